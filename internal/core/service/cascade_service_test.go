package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

// seedWorkflow leaves an available item that carries ledger entries, requests and a return-request.
func seedWorkflow(t *testing.T, env *testEnv, locationID *string) (*domain.InventoryItem, string, string) {
	t.Helper()
	ctx := context.Background()

	created, err := env.lifecycle.CreateItem(ctx, CreateItemInput{
		Name:            "Projector",
		InitialQuantity: 4,
		LocationID:      locationID,
		CreatedBy:       "Admin",
	})
	require.NoError(t, err)
	item := created.Item

	req, err := env.approval.SubmitRequest(ctx, SubmitRequestInput{ItemID: item.ID, RequestedBy: "Bob", Quantity: 1})
	require.NoError(t, err)
	_, err = env.approval.ApproveRequest(ctx, ApproveInput{RequestID: req.ID, ApprovedBy: "Admin"})
	require.NoError(t, err)

	rr, err := env.approval.SubmitReturnRequest(ctx, item.ID, &req.ID, "Bob")
	require.NoError(t, err)
	_, err = env.approval.ApproveReturnRequest(ctx, rr.ID, "Admin")
	require.NoError(t, err)

	pending, err := env.approval.SubmitRequest(ctx, SubmitRequestInput{ItemID: item.ID, RequestedBy: "Carol", Quantity: 1})
	require.NoError(t, err)

	return item, pending.ID, rr.ID
}

func TestDeleteItem_RemovesEveryDependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item, pendingID, returnID := seedWorkflow(t, env, nil)

	res, err := env.cascade.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TransactionsDeleted)
	assert.Equal(t, int64(2), res.RequestsDeleted)
	assert.Equal(t, int64(1), res.ReturnRequestsDeleted)

	_, err = env.store.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := env.store.ListTransactions(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = env.store.GetRequest(ctx, pendingID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = env.store.WithinTx(ctx, func(ctx context.Context, tx port.TxRepository) error {
		_, err := tx.GetReturnRequestForUpdate(ctx, returnID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteItem_LeavesOtherItemsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doomed := env.createItem(t, 2)
	kept := env.createItem(t, 3)

	_, err := env.cascade.DeleteItem(ctx, doomed.ID)
	require.NoError(t, err)

	entries, err := env.ledger.ListForItem(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteItem_IssuedItemRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.createItem(t, 2)

	_, err := env.lifecycle.IssueItem(ctx, IssueInput{ItemID: item.ID, IssuedTo: "Bob", IssuedBy: "Admin"})
	require.NoError(t, err)

	_, err = env.cascade.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrItemCurrentlyIssued)
	assert.NotErrorIs(t, err, domain.ErrCascadeFailure)

	entries, err := env.ledger.ListForItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDeleteItem_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cascade.DeleteItem(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteItem_FailureKeepsAllRows(t *testing.T) {
	for _, step := range []string{"DeleteReturnRequestsByItem", "DeleteItem"} {
		t.Run(step, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			item, pendingID, _ := seedWorkflow(t, env, nil)

			faulty := newTestEnvWithStore(t, &faultyStore{Store: env.memory, failOn: step}, env.memory)
			_, err := faulty.cascade.DeleteItem(ctx, item.ID)
			assert.ErrorIs(t, err, domain.ErrCascadeFailure)
			assert.ErrorIs(t, err, errInjected)

			_, err = env.store.GetItem(ctx, item.ID)
			require.NoError(t, err)

			entries, err := env.store.ListTransactions(ctx, item.ID)
			require.NoError(t, err)
			assert.Len(t, entries, 3)

			_, err = env.store.GetRequest(ctx, pendingID)
			assert.NoError(t, err)
		})
	}
}

func TestDeleteItem_ReleasesOccupancy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loc := env.createLocation(t, "WH", 10, false)
	item, _, _ := seedWorkflow(t, env, &loc.ID)

	before, err := env.store.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, before.CurrentOccupancy)

	res, err := env.cascade.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.OccupancyReleased)

	after, err := env.store.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.CurrentOccupancy)
}
