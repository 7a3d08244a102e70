package document

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/pubsub/memory"
	"github.com/fakturlab/faktur/internal/testutil"
)

func newTestModel(t *testing.T) (*Model, *testutil.InMemoryInvoiceStore) {
	t.Helper()

	store := testutil.NewInMemoryInvoiceStore(invoice.Defaults{
		Currency:   "IDR",
		SenderName: "Minilemon Media",
	})

	model, err := NewModel(context.Background(), store, memory.NewPubSub(logger.L), logger.L)
	require.NoError(t, err)
	return model, store
}

func TestRemoveLastItemIsNoOp(t *testing.T) {
	model, store := newTestModel(t)
	ctx := context.Background()

	require.Len(t, model.Snapshot().Items, 1)

	require.NoError(t, model.RemoveItem(ctx, 0))

	assert.Len(t, model.Snapshot().Items, 1)
	// the no-op commits nothing
	assert.Equal(t, 0, store.SaveCount())
}

func TestRemoveItemPreservesOrder(t *testing.T) {
	model, _ := newTestModel(t)
	ctx := context.Background()

	_, err := model.AddItem(ctx)
	require.NoError(t, err)
	_, err = model.AddItem(ctx)
	require.NoError(t, err)

	before := model.Snapshot().Items
	require.Len(t, before, 3)

	require.NoError(t, model.RemoveItem(ctx, 1))

	after := model.Snapshot().Items
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[2].ID, after[1].ID)
}

func TestItemIndexOutOfRange(t *testing.T) {
	model, _ := newTestModel(t)
	ctx := context.Background()

	_, err := model.AddItem(ctx)
	require.NoError(t, err)

	err = model.UpdateItem(ctx, 5, invoice.LineItemPatch{})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))

	err = model.RemoveItem(ctx, -1)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestEveryMutationWritesThrough(t *testing.T) {
	model, store := newTestModel(t)
	ctx := context.Background()

	name := "PT Client"
	require.NoError(t, model.UpdateClient(ctx, invoice.ClientPatch{Name: &name}))
	assert.Equal(t, 1, store.SaveCount())
	assert.Equal(t, "PT Client", store.Stored().ClientDetails.Name)

	require.NoError(t, model.SetTaxRate(ctx, decimal.NewFromInt(10)))
	assert.Equal(t, 2, store.SaveCount())

	_, err := model.AddItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, store.SaveCount())

	// persisted copy matches the model after each committed edit
	assert.Len(t, store.Stored().Items, len(model.Snapshot().Items))
}

func TestFailedSaveSurfaces(t *testing.T) {
	model, store := newTestModel(t)
	store.FailSavesWith(ierr.NewError("disk gone").Mark(ierr.ErrStorage))

	number := "INV-9"
	err := model.UpdateMeta(context.Background(), invoice.MetaPatch{InvoiceNumber: &number})
	require.Error(t, err)
	assert.True(t, ierr.IsStorage(err))
}

func TestMutationPublishesChangeEvent(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore(invoice.Defaults{Currency: "IDR", SenderName: "x"})
	bus := memory.NewPubSub(logger.L)
	ctx := context.Background()

	messages, err := bus.Subscribe(ctx, TopicInvoiceUpdated)
	require.NoError(t, err)

	model, err := NewModel(ctx, store, bus, logger.L)
	require.NoError(t, err)

	require.NoError(t, model.SetDiscount(ctx, decimal.NewFromInt(5000)))

	select {
	case msg := <-messages:
		var event ChangeEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "set_discount", event.Op)
		assert.Equal(t, "INV-001", event.InvoiceNumber)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestReplaceItemsRejectsEmptyList(t *testing.T) {
	model, _ := newTestModel(t)

	err := model.ReplaceItems(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.Len(t, model.Snapshot().Items, 1)
}

func TestReset(t *testing.T) {
	model, store := newTestModel(t)
	ctx := context.Background()

	name := "Someone"
	require.NoError(t, model.UpdateClient(ctx, invoice.ClientPatch{Name: &name}))

	fresh := invoice.Default(time.Now(), invoice.Defaults{Currency: "IDR", SenderName: "Minilemon Media"})
	require.NoError(t, model.Reset(ctx, fresh))

	snap := model.Snapshot()
	assert.Empty(t, snap.ClientDetails.Name)
	assert.Equal(t, "INV-001", snap.InvoiceNumber)
	// reset persists the fresh document right away
	require.NotNil(t, store.Stored())
	assert.Empty(t, store.Stored().ClientDetails.Name)
}

func TestSnapshotIsIsolated(t *testing.T) {
	model, _ := newTestModel(t)

	snap := model.Snapshot()
	snap.Items[0].Description = "tampered"
	snap.InvoiceNumber = "tampered"

	assert.Equal(t, "Jasa Pembuatan Website", model.Snapshot().Items[0].Description)
	assert.Equal(t, "INV-001", model.Snapshot().InvoiceNumber)
}
