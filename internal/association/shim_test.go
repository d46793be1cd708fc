package association

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("quota exceeded")
}
func (brokenKV) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }
func (brokenKV) Delete(context.Context, string) error      { return errors.New("quota exceeded") }

func newLocalShim() (*Shim, *kv.Memory) {
	mem := kv.NewMemory()
	return NewShim(NewLocalStore(mem), quietLogger), mem
}

func TestShim_ReadYourWrites(t *testing.T) {
	ctx := context.Background()
	shim, _ := newLocalShim()

	assert.Nil(t, shim.GetTransactionCategory(ctx, 1))
	require.NoError(t, shim.SetTransactionCategory(ctx, 1, core.Int64(7)))
	got := shim.GetTransactionCategory(ctx, 1)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)

	require.NoError(t, shim.SetBudgetCategory(ctx, 1, core.Int64(3)))
	got = shim.GetBudgetCategory(ctx, 1)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), *got)

	// the two maps are independent
	got = shim.GetTransactionCategory(ctx, 1)
	assert.Equal(t, int64(7), *got)
}

func TestLocalStore_NullIsDistinctFromAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(kv.NewMemory())

	_, found, err := store.Lookup(ctx, Transactions, 5)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Link(ctx, Transactions, 5, nil))
	cat, found, err := store.Lookup(ctx, Transactions, 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, cat)
}

func TestLocalStore_PersistsUnderMapKeys(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewLocalStore(mem)
	require.NoError(t, store.Link(ctx, Budgets, 2, core.Int64(4)))

	raw, ok, err := mem.Get(ctx, BudgetMapKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"2":4}`, string(raw))

	// a second store over the same kv sees the mapping
	cat, found, err := NewLocalStore(mem).Lookup(ctx, Budgets, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(4), *cat)
}

func TestShim_RemoveBudgetCategory(t *testing.T) {
	ctx := context.Background()
	shim, _ := newLocalShim()
	require.NoError(t, shim.SetBudgetCategory(ctx, 9, core.Int64(1)))
	require.NoError(t, shim.RemoveBudgetCategory(ctx, 9))
	assert.Nil(t, shim.GetBudgetCategory(ctx, 9))
	require.NoError(t, shim.RemoveBudgetCategory(ctx, 9))
}

func TestMergeCategories_RemoteWins(t *testing.T) {
	ctx := context.Background()
	shim, _ := newLocalShim()
	require.NoError(t, shim.SetTransactionCategory(ctx, 1, core.Int64(100)))
	require.NoError(t, shim.SetTransactionCategory(ctx, 2, core.Int64(200)))

	in := []core.Transaction{
		{ID: 1, CategoryID: core.Int64(5)},
		{ID: 2},
		{ID: 3},
	}
	out := shim.MergeTransactions(ctx, in)

	require.Len(t, out, 3)
	assert.Equal(t, int64(5), *out[0].CategoryID)
	assert.Equal(t, int64(200), *out[1].CategoryID)
	assert.Nil(t, out[2].CategoryID)
	assert.Nil(t, in[1].CategoryID, "input must not be mutated")
}

func TestMergeBudgets(t *testing.T) {
	ctx := context.Background()
	shim, _ := newLocalShim()
	require.NoError(t, shim.SetBudgetCategory(ctx, 1, core.Int64(8)))

	out := shim.MergeBudgets(ctx, []core.Budget{{ID: 1}, {ID: 2, CategoryID: core.Int64(3)}})
	assert.Equal(t, int64(8), *out[0].CategoryID)
	assert.Equal(t, int64(3), *out[1].CategoryID)
}

func TestShim_DegradesOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	shim := NewShim(NewLocalStore(brokenKV{}), quietLogger)

	assert.Nil(t, shim.GetTransactionCategory(ctx, 1))
	out := shim.MergeTransactions(ctx, []core.Transaction{{ID: 1}})
	assert.Nil(t, out[0].CategoryID)

	err := shim.SetBudgetCategory(ctx, 1, core.Int64(2))
	var aerr *core.AssociationStoreError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorAs(t, shim.RemoveBudgetCategory(ctx, 1), &aerr)
}

func TestShim_CorruptedMapIsUnmapped(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, TransactionMapKey, []byte("{not json")))
	shim := NewShim(NewLocalStore(mem), quietLogger)
	assert.Nil(t, shim.GetTransactionCategory(ctx, 1))
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	shim := NewShim(NoopStore{}, quietLogger)
	require.NoError(t, shim.SetTransactionCategory(ctx, 1, core.Int64(2)))
	assert.Nil(t, shim.GetTransactionCategory(ctx, 1))

	out := shim.MergeTransactions(ctx, []core.Transaction{{ID: 1, CategoryID: core.Int64(4)}, {ID: 2}})
	assert.Equal(t, int64(4), *out[0].CategoryID)
	assert.Nil(t, out[1].CategoryID)
}
