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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corebank-io/corebank/model"
	"github.com/redis/go-redis/v9"
)

const accountKeyPrefix = "corebank:account:"

// RedisStore keeps each account as a JSON value under its own key. It is
// the optimistic discipline: UpdatePair watches both keys and aborts the
// conditional transaction if either changed since the caller's read, so a
// lost update can never commit.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func accountKey(accountID string) string {
	return accountKeyPrefix + accountID
}

func (s *RedisStore) Get(ctx context.Context, accountID string) (*model.Account, error) {
	payload, err := s.client.Get(ctx, accountKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store get %s: %w", accountID, err)
	}

	var account model.Account
	if err := json.Unmarshal(payload, &account); err != nil {
		return nil, fmt.Errorf("redis store decode %s: %w", accountID, err)
	}
	return &account, nil
}

func (s *RedisStore) UpdatePair(ctx context.Context, debit, credit *model.Account) error {
	debitKey := accountKey(debit.AccountID)
	creditKey := accountKey(credit.AccountID)

	now := time.Now()
	newDebit := debit.Clone()
	newDebit.Version++
	newDebit.UpdatedAt = now
	newCredit := credit.Clone()
	newCredit.Version++
	newCredit.UpdatedAt = now

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		for _, check := range []struct {
			key      string
			expected int64
		}{
			{debitKey, debit.Version},
			{creditKey, credit.Version},
		} {
			payload, err := tx.Get(ctx, check.key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrAccountNotFound
			}
			if err != nil {
				return err
			}
			var current model.Account
			if err := json.Unmarshal(payload, &current); err != nil {
				return err
			}
			if current.Version != check.expected {
				return ErrVersionConflict
			}
		}

		debitPayload, err := json.Marshal(newDebit)
		if err != nil {
			return err
		}
		creditPayload, err := json.Marshal(newCredit)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, debitKey, debitPayload, 0)
			pipe.Set(ctx, creditKey, creditPayload, 0)
			return nil
		})
		return err
	}, debitKey, creditKey)

	if errors.Is(err, redis.TxFailedErr) {
		// A watched key changed between the read and EXEC.
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	*debit = *newDebit
	*credit = *newCredit
	return nil
}

func (s *RedisStore) BatchLoad(ctx context.Context, accounts []*model.Account) error {
	for start := 0; start < len(accounts); start += batchLoadChunkSize {
		end := start + batchLoadChunkSize
		if end > len(accounts) {
			end = len(accounts)
		}
		chunk := accounts[start:end]

		// Read existing versions so overwrites invalidate in-flight
		// optimistic writers instead of resurrecting stale tokens.
		keys := make([]string, len(chunk))
		for i, account := range chunk {
			keys[i] = accountKey(account.AccountID)
		}
		existing, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("redis store batch read: %w", err)
		}

		// MULTI/EXEC keeps the chunk invisible until it commits as a whole.
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, account := range chunk {
				record := account.Clone()
				record.Version = 1
				if raw, ok := existing[i].(string); ok {
					var current model.Account
					if err := json.Unmarshal([]byte(raw), &current); err == nil {
						record.Version = current.Version + 1
					}
				}
				if record.UpdatedAt.IsZero() {
					record.UpdatedAt = time.Now()
				}
				payload, err := json.Marshal(record)
				if err != nil {
					return err
				}
				pipe.Set(ctx, keys[i], payload, 0)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis store batch load: %w", err)
		}
	}
	return nil
}
