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
	"sync"
	"time"

	"github.com/corebank-io/corebank/model"
)

// MemoryStore keeps accounts in a process-local map. Its mutex is the
// exclusive-lock discipline: a committed UpdatePair never interleaves
// with another mutation, and the version check makes stale writers fail
// instead of overwriting fresh state.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*model.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*model.Account)}
}

func (s *MemoryStore) Get(_ context.Context, accountID string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryStore) UpdatePair(_ context.Context, debit, credit *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentDebit, ok := s.accounts[debit.AccountID]
	if !ok {
		return ErrAccountNotFound
	}
	currentCredit, ok := s.accounts[credit.AccountID]
	if !ok {
		return ErrAccountNotFound
	}
	if currentDebit.Version != debit.Version || currentCredit.Version != credit.Version {
		return ErrVersionConflict
	}

	now := time.Now()
	newDebit := debit.Clone()
	newDebit.Version++
	newDebit.UpdatedAt = now
	newCredit := credit.Clone()
	newCredit.Version++
	newCredit.UpdatedAt = now

	s.accounts[debit.AccountID] = newDebit
	s.accounts[credit.AccountID] = newCredit

	// Reflect the committed state back to the caller.
	*debit = *newDebit
	*credit = *newCredit
	return nil
}

func (s *MemoryStore) BatchLoad(_ context.Context, accounts []*model.Account) error {
	for start := 0; start < len(accounts); start += batchLoadChunkSize {
		end := start + batchLoadChunkSize
		if end > len(accounts) {
			end = len(accounts)
		}

		s.mu.Lock()
		for _, account := range accounts[start:end] {
			record := account.Clone()
			if existing, ok := s.accounts[record.AccountID]; ok {
				// Invalidate in-flight optimistic writers on overwrite.
				record.Version = existing.Version + 1
			} else if record.Version == 0 {
				record.Version = 1
			}
			if record.UpdatedAt.IsZero() {
				record.UpdatedAt = time.Now()
			}
			s.accounts[record.AccountID] = record
		}
		s.mu.Unlock()
	}
	return nil
}

// Len returns the number of stored accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
