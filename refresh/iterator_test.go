package refresh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ledgerfind/core"
)

func TestEntityIteratorCoversBothTypes(t *testing.T) {
	stores := setupStores(t)

	seedReceipt(t, stores, "Whole Foods")
	seedReceipt(t, stores, "Shell")
	_, err := stores.Warranties.AddWarranties(context.Background(), &core.Warranty{
		UserId:      testUserID,
		Product:     "Espresso Machine",
		PurchasedAt: testTime,
		ExpiresAt:   testTime.AddDate(2, 0, 0),
	})
	require.NoError(t, err)

	iterator := NewEntityIterator(stores.Receipts, stores.Warranties, 2)

	var batches [][]core.Entity
	err = iterator.ForEach(context.Background(), testUserID, func(batch []core.Entity) error {
		batches = append(batches, batch)
		return nil
	})
	require.NoError(t, err)

	// Three entities at batch size 2 yield two batches.
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)

	types := map[core.EntityType]int{}
	for _, batch := range batches {
		for _, entity := range batch {
			types[entity.Type()]++
		}
	}
	assert.Equal(t, 2, types[core.EntityTypeReceipt])
	assert.Equal(t, 1, types[core.EntityTypeWarranty])
}

func TestEntityIteratorUserScoped(t *testing.T) {
	stores := setupStores(t)
	seedReceipt(t, stores, "Whole Foods")

	iterator := NewEntityIterator(stores.Receipts, stores.Warranties, 10)
	count, err := iterator.Count(context.Background(), core.ID(999))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
