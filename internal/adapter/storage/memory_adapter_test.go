package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

func TestMemoryListTransactions_AppendOrder(t *testing.T) {
	mem := NewMemoryAdapter()
	ctx := context.Background()
	now := time.Now().UTC()

	// second entry carries an earlier clock, as if written by a skewed instance
	dates := []time.Time{now, now.Add(-time.Minute), now.Add(time.Second)}
	err := mem.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		for i, d := range dates {
			tr := &domain.InventoryTransaction{
				ID:               string(rune('a' + i)),
				InventoryItemID:  "item-1",
				TransactionType:  domain.TransactionTypeAdjustment,
				PreviousQuantity: i,
				NewQuantity:      i + 1,
				TransactionDate:  d,
			}
			if err := tx.AppendTransaction(ctx, tr); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	entries, err := mem.ListTransactions(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)
	assert.Nil(t, domain.VerifyChain(entries))
}

func TestMemoryGetDefaultLocation(t *testing.T) {
	mem := NewMemoryAdapter()
	ctx := context.Background()

	_, err := mem.GetDefaultLocation(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = mem.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		return tx.InsertLocation(ctx, &domain.Location{ID: "loc-1", Code: "HQ", IsActive: true, IsDefault: true})
	})
	require.NoError(t, err)

	loc, err := mem.GetDefaultLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "loc-1", loc.ID)
}
