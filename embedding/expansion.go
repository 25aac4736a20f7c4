package embedding

import "strings"

// expansion appends domain phrasing to a query when a trigger word appears.
// Short finance queries carry little semantic signal on their own; the
// added phrases pull the query vector toward the receipt and warranty
// records it should land near. The table is ordered so expansions apply
// deterministically.
type expansion struct {
	trigger string
	phrase  string
}

var queryExpansions = []expansion{
	{"grocery", "food supermarket shopping"},
	{"groceries", "food supermarket shopping"},
	{"restaurant", "dining food meal"},
	{"coffee", "cafe espresso drink"},
	{"gas", "fuel gasoline station"},
	{"electronics", "device gadget computer"},
	{"subscription", "recurring monthly service"},
	{"pharmacy", "medicine drugstore health"},
	{"warranty", "guarantee coverage protection plan"},
	{"refund", "return reimbursement money back"},
	{"travel", "flight hotel transportation"},
	{"clothing", "apparel clothes fashion"},
	{"utilities", "electric water internet bill"},
}

// ExpandQuery returns the query text with any matching domain expansions
// appended. Matching is case-insensitive on whole words; the original text
// is always preserved verbatim at the front.
func ExpandQuery(text string) string {
	lowered := strings.ToLower(text)
	words := make(map[string]bool)
	for _, word := range strings.Fields(lowered) {
		words[strings.Trim(word, ".,!?;:'\"()")] = true
	}

	var sb strings.Builder
	sb.WriteString(text)
	for _, exp := range queryExpansions {
		if words[exp.trigger] {
			sb.WriteString(" ")
			sb.WriteString(exp.phrase)
		}
	}
	return sb.String()
}
