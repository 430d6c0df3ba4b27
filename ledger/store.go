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

	"github.com/corebank-io/corebank/model"
)

var (
	// ErrAccountNotFound is returned when the requested account id holds no record.
	ErrAccountNotFound = errors.New("account not found")

	// ErrVersionConflict is returned by UpdatePair when another writer
	// committed to one of the accounts after the caller read it.
	ErrVersionConflict = errors.New("account version conflict")
)

// Store is keyed storage for checking accounts. It owns all
// synchronization across account mutation: UpdatePair is the only write
// path for transfers and is atomic with respect to every other caller.
type Store interface {
	// Get returns the latest committed state of the account, or
	// ErrAccountNotFound. The returned record is a private copy.
	Get(ctx context.Context, accountID string) (*model.Account, error)

	// UpdatePair persists both accounts as one indivisible step iff
	// neither has been modified since the versions carried on the passed
	// records; it advances each version token and stamps UpdatedAt.
	// Returns ErrVersionConflict if either account moved underneath the
	// caller, in which case nothing is written.
	UpdatePair(ctx context.Context, debit, credit *model.Account) error

	// BatchLoad bulk-upserts accounts in bounded chunks. Safe to call
	// while transfers are running; no transfer observes a half-written
	// chunk.
	BatchLoad(ctx context.Context, accounts []*model.Account) error
}

// batchLoadChunkSize bounds memory and lock-hold time during seeding.
const batchLoadChunkSize = 500
