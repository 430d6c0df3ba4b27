package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank-io/corebank/model"
)

func newTestEngine(t *testing.T, store Store) *Engine {
	t.Helper()
	engine, err := NewEngine(store, EngineConfig{
		Discipline: DisciplineOptimistic,
		MaxRetries: 50,
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return engine
}

func TestTransferConservation(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_1", "CUS_1", "1000.12"),
		seedAccount("ACC_2", "CUS_2", "2000.00"),
	}))
	engine := newTestEngine(t, store)

	amount := decimal.RequireFromString("99.98")
	outcome, err := engine.Transfer(context.Background(), "ACC_1", "ACC_2", amount)
	require.NoError(t, err)

	assert.True(t, outcome.Debit.Balance.Equal(decimal.RequireFromString("900.14")))
	assert.True(t, outcome.Credit.Balance.Equal(decimal.RequireFromString("2099.98")))
	assert.True(t, outcome.Debit.AvailBalance.Equal(outcome.Debit.Balance))
	assert.True(t, outcome.Credit.AvailBalance.Equal(outcome.Credit.Balance))

	// Total funds across both accounts are unchanged, exactly.
	before := outcome.DebitPrevBalance.Add(outcome.CreditPrevBalance)
	after := outcome.Debit.Balance.Add(outcome.Credit.Balance)
	assert.True(t, before.Equal(after))

	assert.NotEmpty(t, outcome.TransactionID)
	assert.Contains(t, outcome.TransactionID, "txn_")
}

func TestTransferInsufficientFunds(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_1", "CUS_1", "100.00"),
		seedAccount("ACC_2", "CUS_2", "0.00"),
	}))
	engine := newTestEngine(t, store)

	_, err := engine.Transfer(context.Background(), "ACC_1", "ACC_2", decimal.RequireFromString("123.45"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	debit, err := store.Get(context.Background(), "ACC_1")
	require.NoError(t, err)
	assert.True(t, debit.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestTransferInvalidAmount(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(t, store)

	_, err := engine.Transfer(context.Background(), "ACC_1", "ACC_2", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.Transfer(context.Background(), "ACC_1", "ACC_2", decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// A transfer where debit and credit name the same account must be
// rejected before any mutation: the engine works on two snapshots of the
// record, so letting it commit would credit the account a net +amount.
func TestTransferSameAccountRejected(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_1", "CUS_1", "100.00"),
	}))
	engine := newTestEngine(t, store)

	_, err := engine.Transfer(context.Background(), "ACC_1", "ACC_1", decimal.RequireFromString("40.00"))
	assert.ErrorIs(t, err, ErrSameAccount)

	account, err := store.Get(context.Background(), "ACC_1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, account.AvailBalance.Equal(account.Balance))
}

func TestTransferUnknownAccount(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_1", "CUS_1", "100.00"),
	}))
	engine := newTestEngine(t, store)

	_, err := engine.Transfer(context.Background(), "ACC_1", "ACC_MISSING", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// Concurrent debits against one account must commit exactly as many
// transfers as the balance allows; the rest fail with insufficient funds
// and the final balance is exact.
func TestTransferConcurrentDebits(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_HOT", "CUS_1", "100.00"),
		seedAccount("ACC_SINK", "CUS_2", "0.00"),
	}))
	engine := newTestEngine(t, store)

	const workers = 10
	amount := decimal.RequireFromString("15.00")

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(context.Background(), "ACC_HOT", "ACC_SINK", amount)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientFunds):
			rejected++
		}
	}
	// 100.00 funds 6 transfers of 15.00.
	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 4, rejected)

	hot, err := store.Get(context.Background(), "ACC_HOT")
	require.NoError(t, err)
	sink, err := store.Get(context.Background(), "ACC_SINK")
	require.NoError(t, err)
	assert.True(t, hot.Balance.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, sink.Balance.Equal(decimal.RequireFromString("90.00")))
	assert.True(t, hot.Balance.Sign() >= 0)
}

func newLockEngine(t *testing.T, store Store) *Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	engine, err := NewEngine(store, EngineConfig{
		Discipline: DisciplineLock,
		MaxRetries: 5,
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}, client)
	require.NoError(t, err)
	return engine
}

func TestNewEngineLockRequiresClient(t *testing.T) {
	_, err := NewEngine(NewMemoryStore(), EngineConfig{Discipline: DisciplineLock}, nil)
	assert.Error(t, err)
}

func TestTransferLockDiscipline(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_1", "CUS_1", "1000.12"),
		seedAccount("ACC_2", "CUS_2", "2000.00"),
	}))
	engine := newLockEngine(t, store)

	outcome, err := engine.Transfer(context.Background(), "ACC_1", "ACC_2", decimal.RequireFromString("99.98"))
	require.NoError(t, err)
	assert.True(t, outcome.Debit.Balance.Equal(decimal.RequireFromString("900.14")))
	assert.True(t, outcome.Credit.Balance.Equal(decimal.RequireFromString("2099.98")))

	// Both account locks are released once the transfer commits.
	_, err = engine.Transfer(context.Background(), "ACC_2", "ACC_1", decimal.RequireFromString("50.00"))
	require.NoError(t, err)
}

// The concurrent-debits property must hold under the lock discipline
// exactly as it does under the optimistic one: per-account locks taken in
// id order serialize the writers without deadlocking.
func TestTransferConcurrentDebitsLockDiscipline(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.BatchLoad(context.Background(), []*model.Account{
		seedAccount("ACC_HOT", "CUS_1", "100.00"),
		seedAccount("ACC_SINK", "CUS_2", "0.00"),
	}))
	engine := newLockEngine(t, store)

	const workers = 10
	amount := decimal.RequireFromString("15.00")

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(context.Background(), "ACC_HOT", "ACC_SINK", amount)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientFunds):
			rejected++
		}
	}
	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 4, rejected)

	hot, err := store.Get(context.Background(), "ACC_HOT")
	require.NoError(t, err)
	sink, err := store.Get(context.Background(), "ACC_SINK")
	require.NoError(t, err)
	assert.True(t, hot.Balance.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, sink.Balance.Equal(decimal.RequireFromString("90.00")))
}

// conflictStore always reports a version conflict so the retry budget is
// exercised end to end.
type conflictStore struct {
	mu       sync.Mutex
	attempts int
}

func (s *conflictStore) Get(_ context.Context, accountID string) (*model.Account, error) {
	return seedAccount(accountID, "CUS_1", "1000.00"), nil
}

func (s *conflictStore) UpdatePair(_ context.Context, _, _ *model.Account) error {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()
	return ErrVersionConflict
}

func (s *conflictStore) BatchLoad(_ context.Context, _ []*model.Account) error {
	return nil
}

func TestTransferContentionExceeded(t *testing.T) {
	store := &conflictStore{}
	engine, err := NewEngine(store, EngineConfig{
		Discipline: DisciplineOptimistic,
		MaxRetries: 3,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	_, err = engine.Transfer(context.Background(), "ACC_1", "ACC_2", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrContentionExceeded)
	// Initial attempt plus the full retry budget.
	assert.Equal(t, 4, store.attempts)
}
