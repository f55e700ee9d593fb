package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/asset-ledger/internal/core/domain"
)

func TestStatistics_GroupsByTypeAndMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.createItem(t, 5)

	for i := 0; i < 2; i++ {
		_, err := env.lifecycle.IssueItem(ctx, IssueInput{ItemID: item.ID, IssuedTo: "Bob", IssuedBy: "Admin"})
		require.NoError(t, err)
		_, err = env.lifecycle.ReturnItem(ctx, item.ID, "Admin")
		require.NoError(t, err)
	}

	stats, err := env.ledger.Statistics(ctx, domain.LedgerFilter{InventoryItemID: item.ID})
	require.NoError(t, err)

	byType := make(map[domain.TransactionType]domain.TypeStatistic)
	for _, s := range stats.ByType {
		byType[s.TransactionType] = s
	}
	assert.Equal(t, 2, byType[domain.TransactionTypeIssue].Count)
	assert.Equal(t, 2, byType[domain.TransactionTypeReturn].Count)
	assert.Equal(t, 1, byType[domain.TransactionTypePurchase].Count)
	assert.Equal(t, 5, byType[domain.TransactionTypePurchase].Quantity)
	assert.True(t, decimal.NewFromInt(500).Equal(byType[domain.TransactionTypePurchase].Value))

	require.Len(t, stats.ByMonth, 1)
	assert.Equal(t, 5, stats.ByMonth[0].Count)
}

func TestStatistics_DateRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createItem(t, 1)

	future := time.Now().Add(24 * time.Hour)
	stats, err := env.ledger.Statistics(ctx, domain.LedgerFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, stats.ByType)

	past := time.Now().Add(-24 * time.Hour)
	_, err = env.ledger.Statistics(ctx, domain.LedgerFilter{From: &future, To: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestListForItem_UnknownItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.ListForItem(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.ledger.VerifyChain(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
