/*
Copyright 2025 Corebank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	redlock "github.com/corebank-io/corebank/internal/lock"
	"github.com/corebank-io/corebank/model"
)

const (
	// DisciplineOptimistic retries the read-compute-write sequence on
	// version conflicts. DisciplineLock serializes writers on per-account
	// Redis locks acquired in id order, so conflicts cannot occur among
	// lock-respecting writers.
	DisciplineOptimistic = "optimistic"
	DisciplineLock       = "lock"

	lockKeyPrefix   = "corebank:lock:account:"
	lockHoldTimeout = 10 * time.Second
	lockWaitTimeout = 5 * time.Second
)

var (
	// ErrInsufficientFunds is returned when the debit account's available
	// balance does not cover the transfer amount. No mutation occurs.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrContentionExceeded is returned after the optimistic retry budget
	// is exhausted. The caller may retry the whole transfer.
	ErrContentionExceeded = errors.New("contention retry budget exceeded")

	// ErrInvalidAmount guards the engine precondition that transfer
	// amounts are strictly positive.
	ErrInvalidAmount = errors.New("transfer amount must be positive")

	// ErrSameAccount rejects transfers where debit and credit name the
	// same account. The engine works on two independent snapshots of the
	// record, so committing both sides of a self-transfer would create
	// funds instead of netting to zero.
	ErrSameAccount = errors.New("debit and credit accounts must differ")
)

// EngineConfig bounds the engine's conflict retry loop.
type EngineConfig struct {
	Discipline string
	MaxRetries int
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// TransferOutcome is the result of a committed transfer: both accounts as
// persisted, both sides' pre-transfer balances, and a fresh transaction id.
type TransferOutcome struct {
	TransactionID string

	Debit  *model.Account
	Credit *model.Account

	DebitPrevBalance      decimal.Decimal
	DebitPrevAvailBalance decimal.Decimal

	CreditPrevBalance      decimal.Decimal
	CreditPrevAvailBalance decimal.Decimal
}

// Engine applies the debit/credit invariant through the store's
// conditional update. It is the only place account balances are mutated;
// it knows nothing about HTTP, events, or request validation.
type Engine struct {
	store      Store
	cfg        EngineConfig
	lockClient redis.UniversalClient
}

// NewEngine builds a transfer engine over the given store. lockClient is
// only consulted under DisciplineLock and may be nil otherwise.
func NewEngine(store Store, cfg EngineConfig, lockClient redis.UniversalClient) (*Engine, error) {
	if cfg.Discipline == "" {
		cfg.Discipline = DisciplineOptimistic
	}
	if cfg.Discipline != DisciplineOptimistic && cfg.Discipline != DisciplineLock {
		return nil, fmt.Errorf("unknown concurrency discipline %q", cfg.Discipline)
	}
	if cfg.Discipline == DisciplineLock && lockClient == nil {
		return nil, errors.New("lock discipline requires a redis client")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 5 * time.Millisecond
	}
	if cfg.BackoffMax <= cfg.BackoffMin {
		cfg.BackoffMax = 100 * time.Millisecond
	}
	return &Engine{store: store, cfg: cfg, lockClient: lockClient}, nil
}

// Transfer moves amount from the debit account to the credit account.
// Both balance updates commit as a single atomic step or not at all.
func (e *Engine) Transfer(ctx context.Context, debitAccountID, creditAccountID string, amount decimal.Decimal) (*TransferOutcome, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if debitAccountID == creditAccountID {
		return nil, ErrSameAccount
	}

	if e.cfg.Discipline == DisciplineLock {
		locker := redlock.NewMultiLocker(
			e.lockClient,
			[]string{lockKeyPrefix + debitAccountID, lockKeyPrefix + creditAccountID},
			model.GenerateIDWithPrefix("loc"),
		)
		if err := locker.WaitLock(ctx, lockHoldTimeout, lockWaitTimeout); err != nil {
			return nil, fmt.Errorf("acquiring account locks: %w", err)
		}
		defer func() {
			if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
				logrus.Warnf("releasing account locks: %v", err)
			}
		}()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.BackoffMin
	bo.MaxInterval = e.cfg.BackoffMax
	bo.RandomizationFactor = 0.5
	bo.Reset()

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(bo.NextBackOff()):
			}
			logrus.WithFields(logrus.Fields{
				"debit_account":  debitAccountID,
				"credit_account": creditAccountID,
				"attempt":        attempt,
			}).Debug("retrying transfer after version conflict")
		}

		outcome, err := e.attemptTransfer(ctx, debitAccountID, creditAccountID, amount)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return outcome, nil
	}
	return nil, ErrContentionExceeded
}

func (e *Engine) attemptTransfer(ctx context.Context, debitAccountID, creditAccountID string, amount decimal.Decimal) (*TransferOutcome, error) {
	// Always re-fetch by id; caller-held snapshots may be stale.
	debit, err := e.store.Get(ctx, debitAccountID)
	if err != nil {
		return nil, err
	}
	credit, err := e.store.Get(ctx, creditAccountID)
	if err != nil {
		return nil, err
	}

	if debit.AvailBalance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	outcome := &TransferOutcome{
		DebitPrevBalance:       debit.Balance,
		DebitPrevAvailBalance:  debit.AvailBalance,
		CreditPrevBalance:      credit.Balance,
		CreditPrevAvailBalance: credit.AvailBalance,
	}

	// Mirror avail to the ledger balance, there is no partial-hold state.
	debit.Balance = debit.Balance.Sub(amount)
	debit.AvailBalance = debit.Balance
	credit.Balance = credit.Balance.Add(amount)
	credit.AvailBalance = credit.Balance

	if err := e.store.UpdatePair(ctx, debit, credit); err != nil {
		return nil, err
	}

	outcome.TransactionID = model.GenerateIDWithPrefix("txn")
	outcome.Debit = debit
	outcome.Credit = credit
	return outcome, nil
}
