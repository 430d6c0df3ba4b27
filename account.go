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
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/corebank-io/corebank/model"
)

// GetAccount is a pure pass-through to the account store. Unknown ids
// surface ledger.ErrAccountNotFound.
func (c *Corebank) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	return c.store.Get(ctx, accountID)
}

// seedLoadChunkSize caps how many parsed rows are buffered before being
// handed to the store.
const seedLoadChunkSize = 1000

// LoadAccountsFromCSV bulk-seeds accounts from CSV rows shaped
// customer_id,account_id,currency,avail_balance,balance,status (status 1
// for active, 0 for inactive; a header row is tolerated). Malformed rows
// are logged and skipped rather than aborting the batch. Returns how many
// accounts were loaded.
func (c *Corebank) LoadAccountsFromCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	loaded := 0
	line := 0
	chunk := make([]*model.Account, 0, seedLoadChunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := c.store.BatchLoad(ctx, chunk); err != nil {
			return fmt.Errorf("loading account batch: %w", err)
		}
		loaded += len(chunk)
		chunk = chunk[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logrus.WithField("line", line).Warnf("skipping unreadable csv row: %v", err)
			line++
			continue
		}
		line++

		if line == 1 && len(row) > 0 && row[0] == "customer_id" {
			continue
		}

		account, err := parseAccountRow(row)
		if err != nil {
			logrus.WithField("line", line).Warnf("skipping malformed account row: %v", err)
			continue
		}
		chunk = append(chunk, account)

		if len(chunk) >= seedLoadChunkSize {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}

	if err := flush(); err != nil {
		return loaded, err
	}
	return loaded, nil
}

func parseAccountRow(row []string) (*model.Account, error) {
	if len(row) < 6 {
		return nil, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}

	customerID, accountID, currency := row[0], row[1], row[2]
	if customerID == "" || accountID == "" {
		return nil, fmt.Errorf("customer id and account id are required")
	}
	if !model.KnownCurrency(currency) {
		return nil, fmt.Errorf("unsupported currency %q", currency)
	}

	availBalance, err := decimal.NewFromString(row[3])
	if err != nil {
		return nil, fmt.Errorf("avail balance: %w", err)
	}
	balance, err := decimal.NewFromString(row[4])
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}

	status := model.StatusActive
	if row[5] == "0" || row[5] == string(model.StatusInactive) {
		status = model.StatusInactive
	}

	return &model.Account{
		AccountID:    accountID,
		CustomerID:   customerID,
		Currency:     model.AccountCurrency(currency),
		Balance:      balance,
		AvailBalance: availBalance,
		Status:       status,
	}, nil
}
