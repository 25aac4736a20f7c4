package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/ledgerfind"
	"github.com/poiesic/ledgerfind/core"
)

// seedReceipt is one row of sample data; DaysAgo anchors the purchase date
// relative to now so the seeded database always has recent activity.
type seedReceipt struct {
	Merchant string
	Amount   float64
	Category string
	DaysAgo  int
	OCRText  string
}

type seedWarranty struct {
	Product      string
	Brand        string
	Category     string
	Retailer     string
	DaysAgo      int
	CoverageDays int
	Coverage     string
}

var receipts = []seedReceipt{
	{"Whole Foods Market", 87.32, "groceries", 2, "WHOLE FOODS MARKET organic bananas almond milk sourdough bread olive oil"},
	{"Trader Joe's", 54.18, "groceries", 5, "TRADER JOES frozen dumplings dark chocolate peanut butter cups sparkling water"},
	{"Safeway", 112.45, "groceries", 9, "SAFEWAY chicken breast pasta marinara sauce paper towels laundry detergent"},
	{"Costco Wholesale", 243.87, "groceries", 12, "COSTCO WHOLESALE rotisserie chicken bulk rice olive oil 2L kirkland paper towels"},
	{"Blue Bottle Coffee", 6.75, "dining", 1, "BLUE BOTTLE COFFEE single origin pour over oat milk latte"},
	{"Chipotle Mexican Grill", 14.20, "dining", 3, "CHIPOTLE burrito bowl chicken guacamole chips"},
	{"Sushi Tomo", 68.90, "dining", 7, "SUSHI TOMO omakase nigiri sashimi miso soup green tea"},
	{"The Italian Place", 92.40, "dining", 15, "ITALIAN PLACE tagliatelle ragu tiramisu house red wine"},
	{"Shell", 48.62, "fuel", 4, "SHELL regular unleaded 12.4 gal pump 7"},
	{"Chevron", 52.10, "fuel", 11, "CHEVRON supreme unleaded 11.8 gal car wash"},
	{"Shell", 45.33, "fuel", 18, "SHELL regular unleaded 11.5 gal pump 3"},
	{"Walgreens", 23.45, "health", 6, "WALGREENS ibuprofen vitamin d sunscreen spf 50"},
	{"CVS Pharmacy", 41.80, "health", 13, "CVS PHARMACY prescription refill allergy medication bandages"},
	{"Home Depot", 156.73, "home", 8, "HOME DEPOT cordless drill bits wood screws painters tape"},
	{"IKEA", 312.99, "home", 21, "IKEA bookshelf desk lamp storage boxes assembly kit"},
	{"Best Buy", 899.99, "electronics", 10, "BEST BUY 27 inch 4k monitor hdmi cable surge protector"},
	{"Apple Store", 1199.00, "electronics", 25, "APPLE STORE iphone pro applecare usb-c cable"},
	{"REI", 187.50, "sporting goods", 14, "REI hiking boots merino socks trail map water bottle"},
	{"Uniqlo", 76.40, "clothing", 16, "UNIQLO merino sweater oxford shirt chino pants"},
	{"AMC Theatres", 32.50, "entertainment", 5, "AMC THEATRES 2 tickets imax large popcorn"},
	{"Peet's Coffee", 5.45, "dining", 2, "PEETS COFFEE cappuccino almond croissant"},
	{"Whole Foods Market", 64.91, "groceries", 19, "WHOLE FOODS MARKET wild salmon asparagus quinoa lemon"},
	{"Shell", 49.87, "fuel", 26, "SHELL regular unleaded 12.1 gal pump 5"},
	{"Target", 94.23, "home", 23, "TARGET bath towels kitchen sponges candle throw pillow"},
	{"Trader Joe's", 47.66, "groceries", 27, "TRADER JOES everything bagel seasoning cauliflower gnocchi cold brew"},
}

var warranties = []seedWarranty{
	{"OLED TV 55\"", "LG", "electronics", "Best Buy", 120, 730, "2-year manufacturer warranty, panel and parts"},
	{"Espresso Machine", "Breville", "appliances", "Williams Sonoma", 45, 365, "1-year limited warranty"},
	{"Laptop 14\"", "Lenovo", "electronics", "Lenovo.com", 200, 1095, "3-year onsite warranty"},
	{"Washing Machine", "Bosch", "appliances", "Home Depot", 300, 730, "2-year parts and labor"},
	{"Noise Cancelling Headphones", "Sony", "electronics", "Amazon", 60, 365, "1-year manufacturer warranty"},
	{"Robot Vacuum", "iRobot", "appliances", "Costco Wholesale", 90, 730, "2-year Costco concierge coverage"},
	{"Mountain Bike", "Trek", "sporting goods", "Trek Bicycle Store", 150, 1825, "5-year frame warranty"},
	{"Smart Thermostat", "Ecobee", "home", "Home Depot", 30, 1095, "3-year limited warranty"},
}

var (
	dbPath = flag.String("db", "./ledger_db", "path to the database directory")
	userID = flag.Uint64("user", 1, "user ID to seed records for")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	engine, err := ledgerfind.NewEngine(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	now := time.Now()
	owner := core.ID(*userID)

	// Ingest in small batches so a mid-run failure leaves earlier batches
	// stored and indexed.
	const batchSize = 5
	batch := make([]*core.Receipt, 0, batchSize)
	for _, row := range receipts {
		batch = append(batch, &core.Receipt{
			Merchant:    row.Merchant,
			Amount:      row.Amount,
			Currency:    "USD",
			Category:    row.Category,
			PurchasedAt: now.AddDate(0, 0, -row.DaysAgo),
			OCRText:     row.OCRText,
		})
		if len(batch) == batchSize {
			if _, err := engine.AddReceipts(ctx, owner, batch...); err != nil {
				panic(err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := engine.AddReceipts(ctx, owner, batch...); err != nil {
			panic(err)
		}
	}

	seeded := make([]*core.Warranty, 0, len(warranties))
	for _, row := range warranties {
		purchased := now.AddDate(0, 0, -row.DaysAgo)
		seeded = append(seeded, &core.Warranty{
			Product:     row.Product,
			Brand:       row.Brand,
			Category:    row.Category,
			Retailer:    row.Retailer,
			PurchasedAt: purchased,
			ExpiresAt:   purchased.AddDate(0, 0, row.CoverageDays),
			Coverage:    row.Coverage,
		})
	}
	if _, err := engine.AddWarranties(ctx, owner, seeded...); err != nil {
		panic(err)
	}

	engine.WaitForIndexing()
	fmt.Printf("Seeded %d receipts and %d warranties for user %d\n",
		len(receipts), len(warranties), owner)
}
