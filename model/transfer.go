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

package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// TransferRequest is a validated, immutable intent to move funds between
// two local checking accounts. RefID is a caller-supplied correlation id
// for upstream systems; it is passed through untouched and is not used to
// deduplicate transfers.
type TransferRequest struct {
	DebitCustomerID string          `json:"debit_customer_id"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	TransactionDate string          `json:"transaction_date"`
	Memo            string          `json:"memo"`
	RefID           string          `json:"ref_id"`
}

func currencyValidation(value interface{}) error {
	c, ok := value.(string)
	if !ok || !KnownCurrency(c) {
		return errors.New("currency is not supported")
	}
	return nil
}

func amountValidation(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok || amount.Sign() <= 0 {
		return errors.New("amount must be greater than zero")
	}
	return nil
}

// ValidateTransferRequest checks the shape of the request. Business rules
// (ownership, funds) are enforced by the orchestrator and engine.
func (r *TransferRequest) ValidateTransferRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DebitCustomerID, validation.Required),
		validation.Field(&r.DebitAccountID, validation.Required),
		validation.Field(&r.CreditAccountID, validation.Required),
		validation.Field(&r.Amount, validation.By(amountValidation)),
		validation.Field(&r.Currency, validation.Required, validation.By(currencyValidation)),
		validation.Field(&r.RefID, validation.Required),
	)
}

const StatusCompleted = "completed"

// TransferRecord is the immutable result of a completed transfer. It
// captures both accounts' balances before and after the movement so
// downstream consumers can reconcile without re-reading the ledger.
type TransferRecord struct {
	TransactionID string `json:"transaction_id"`

	DebitCustomerID       string          `json:"debit_customer_id"`
	DebitAccountID        string          `json:"debit_account_id"`
	DebitPrevBalance      decimal.Decimal `json:"debit_prev_balance"`
	DebitPrevAvailBalance decimal.Decimal `json:"debit_prev_avail_balance"`
	DebitBalance          decimal.Decimal `json:"debit_balance"`
	DebitAvailBalance     decimal.Decimal `json:"debit_avail_balance"`

	CreditCustomerID       string          `json:"credit_customer_id"`
	CreditAccountID        string          `json:"credit_account_id"`
	CreditPrevBalance      decimal.Decimal `json:"credit_prev_balance"`
	CreditPrevAvailBalance decimal.Decimal `json:"credit_prev_avail_balance"`
	CreditBalance          decimal.Decimal `json:"credit_balance"`
	CreditAvailBalance     decimal.Decimal `json:"credit_avail_balance"`

	TransferAmount  decimal.Decimal `json:"transfer_amount"`
	Currency        string          `json:"currency"`
	Memo            string          `json:"memo"`
	TransactionDate string          `json:"transaction_date"`
	Status          string          `json:"status"`
	RefID           string          `json:"ref_id"`

	CreatedAt time.Time `json:"created_at"`
}
