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

package corebank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/corebank-io/corebank/ledger"
	"github.com/corebank-io/corebank/model"
)

var (
	// ErrInvalidAmount rejects zero or negative transfer amounts before
	// any store access.
	ErrInvalidAmount = errors.New("transfer amount must be greater than zero")

	// ErrSameAccount rejects requests that debit and credit the same
	// account; such a request can never move funds.
	ErrSameAccount = errors.New("debit and credit accounts must differ")

	// ErrUnknownDebitAccount means the debit account id holds no record.
	ErrUnknownDebitAccount = errors.New("unknown debit account")

	// ErrOwnershipMismatch means the debit account exists but is not
	// owned by the requesting customer.
	ErrOwnershipMismatch = errors.New("debit account does not belong to customer")

	// ErrUnknownCreditAccount means the credit account id holds no record.
	ErrUnknownCreditAccount = errors.New("unknown credit account")
)

// ExecuteTransfer validates the request, runs the transfer through the
// engine, and enqueues the resulting domain event. Validation order is
// observable behavior: amount and distinct accounts first (no store
// access), then debit existence and ownership, then credit existence,
// then the engine's funds and contention checks. On any failure nothing is mutated and no event
// is produced.
//
// A full outbox never fails the transfer: event delivery is best-effort
// relative to transfer success so transfer latency stays independent of
// sink health.
func (c *Corebank) ExecuteTransfer(ctx context.Context, request *model.TransferRequest) (*model.TransferRecord, error) {
	if request.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if request.DebitAccountID == request.CreditAccountID {
		return nil, ErrSameAccount
	}

	debit, err := c.store.Get(ctx, request.DebitAccountID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, ErrUnknownDebitAccount
	}
	if err != nil {
		return nil, fmt.Errorf("loading debit account: %w", err)
	}
	if debit.CustomerID != request.DebitCustomerID {
		return nil, ErrOwnershipMismatch
	}

	if _, err := c.store.Get(ctx, request.CreditAccountID); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrUnknownCreditAccount
		}
		return nil, fmt.Errorf("loading credit account: %w", err)
	}

	outcome, err := c.engine.Transfer(ctx, request.DebitAccountID, request.CreditAccountID, request.Amount)
	if err != nil {
		return nil, err
	}

	record := buildTransferRecord(request, outcome)

	event, err := model.NewOutboxEvent(record)
	if err != nil {
		logrus.WithField("transaction_id", record.TransactionID).
			Errorf("encoding transfer event: %v", err)
		return record, nil
	}
	c.outbox.Enqueue(event)

	return record, nil
}

func buildTransferRecord(request *model.TransferRequest, outcome *ledger.TransferOutcome) *model.TransferRecord {
	return &model.TransferRecord{
		TransactionID: outcome.TransactionID,

		DebitCustomerID:       outcome.Debit.CustomerID,
		DebitAccountID:        outcome.Debit.AccountID,
		DebitPrevBalance:      outcome.DebitPrevBalance,
		DebitPrevAvailBalance: outcome.DebitPrevAvailBalance,
		DebitBalance:          outcome.Debit.Balance,
		DebitAvailBalance:     outcome.Debit.AvailBalance,

		CreditCustomerID:       outcome.Credit.CustomerID,
		CreditAccountID:        outcome.Credit.AccountID,
		CreditPrevBalance:      outcome.CreditPrevBalance,
		CreditPrevAvailBalance: outcome.CreditPrevAvailBalance,
		CreditBalance:          outcome.Credit.Balance,
		CreditAvailBalance:     outcome.Credit.AvailBalance,

		TransferAmount:  request.Amount,
		Currency:        request.Currency,
		Memo:            request.Memo,
		TransactionDate: request.TransactionDate,
		Status:          model.StatusCompleted,
		RefID:           request.RefID,

		CreatedAt: time.Now(),
	}
}
