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
	"time"

	"github.com/shopspring/decimal"
)

// AccountCurrency is the closed set of currencies a checking account can hold.
type AccountCurrency string

const (
	CurrencyUSD AccountCurrency = "USD"
	CurrencySGD AccountCurrency = "SGD"
	CurrencyTHB AccountCurrency = "THB"
	CurrencyPHP AccountCurrency = "PHP"
	CurrencyVND AccountCurrency = "VND"
	CurrencyMYR AccountCurrency = "MYR"
	CurrencyIDR AccountCurrency = "IDR"
	CurrencyINR AccountCurrency = "INR"
)

// KnownCurrency reports whether c is one of the supported account currencies.
func KnownCurrency(c string) bool {
	switch AccountCurrency(c) {
	case CurrencyUSD, CurrencySGD, CurrencyTHB, CurrencyPHP,
		CurrencyVND, CurrencyMYR, CurrencyIDR, CurrencyINR:
		return true
	}
	return false
}

type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// Account is a checking account record. Balance is the settled ledger
// balance; AvailBalance is the balance available for debit. Every transfer
// in this ledger keeps the two equal, there is no partial-hold state.
//
// Version is an opaque token advanced by the store on every committed
// write; it backs the conditional-update contract of the account store.
type Account struct {
	AccountID    string          `json:"account_id"`
	CustomerID   string          `json:"customer_id"`
	Currency     AccountCurrency `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	AvailBalance decimal.Decimal `json:"avail_balance"`
	Status       AccountStatus   `json:"status"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int64           `json:"version"`
}

// Clone returns a deep copy of the account. Stores hand out clones so
// callers can never mutate committed state in place.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
