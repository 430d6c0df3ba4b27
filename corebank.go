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

// Package corebank simulates a core-banking ledger: checking accounts,
// local fund transfers with an exact conservation invariant, and a
// bounded event outbox that decouples transfer latency from downstream
// event delivery.
package corebank

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corebank-io/corebank/config"
	redis_db "github.com/corebank-io/corebank/internal/redis-db"
	"github.com/corebank-io/corebank/ledger"
	"github.com/corebank-io/corebank/outbox"
)

// Corebank wires the account store, transfer engine, and event outbox
// into the service the request layer calls into.
type Corebank struct {
	store   ledger.Store
	engine  *ledger.Engine
	outbox  *outbox.Outbox
	flusher *outbox.Flusher
	redis   redis.UniversalClient
}

// NewCorebank builds the service from the loaded configuration: the
// configured store kind, the engine with its concurrency discipline, and
// the outbox with its configured sink.
func NewCorebank() (*Corebank, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	var redisClient redis.UniversalClient
	needsRedis := cnf.Ledger.Store == config.StoreRedis ||
		cnf.Ledger.Discipline == config.DisciplineLock ||
		cnf.Sink.Kind == config.SinkStream
	if needsRedis {
		rd, err := redis_db.NewRedisClient(cnf.Redis.Dns)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		redisClient = rd.Client()
	}

	var store ledger.Store
	switch cnf.Ledger.Store {
	case config.StoreRedis:
		store = ledger.NewRedisStore(redisClient)
	default:
		store = ledger.NewMemoryStore()
	}

	engine, err := ledger.NewEngine(store, ledger.EngineConfig{
		Discipline: cnf.Ledger.Discipline,
		MaxRetries: cnf.Ledger.MaxRetries,
		BackoffMin: time.Duration(cnf.Ledger.BackoffMinMs) * time.Millisecond,
		BackoffMax: time.Duration(cnf.Ledger.BackoffMaxMs) * time.Millisecond,
	}, redisClient)
	if err != nil {
		return nil, err
	}

	sink, err := outbox.NewSink(cnf, redisClient)
	if err != nil {
		return nil, err
	}

	eventQueue := outbox.NewOutbox(cnf.Outbox.Capacity)
	flusher := outbox.NewFlusher(eventQueue, sink, outbox.FlusherConfig{
		Interval:          time.Duration(cnf.Outbox.FlushIntervalMs) * time.Millisecond,
		BatchSize:         cnf.Outbox.FlushBatchSize,
		ShutdownBatchSize: cnf.Outbox.ShutdownBatchSize,
	})

	return &Corebank{
		store:   store,
		engine:  engine,
		outbox:  eventQueue,
		flusher: flusher,
		redis:   redisClient,
	}, nil
}

// NewCorebankWithDeps builds a service around explicitly constructed
// collaborators. Tests construct a fresh store per case through this.
func NewCorebankWithDeps(store ledger.Store, engine *ledger.Engine, eventQueue *outbox.Outbox, flusher *outbox.Flusher) *Corebank {
	return &Corebank{store: store, engine: engine, outbox: eventQueue, flusher: flusher}
}

// Start launches the background flush cycle.
func (c *Corebank) Start(ctx context.Context) {
	if c.flusher != nil {
		c.flusher.Start(ctx)
	}
}

// Shutdown stops the flush cycle after a final, larger drain of the outbox.
func (c *Corebank) Shutdown() {
	if c.flusher != nil {
		c.flusher.Stop()
	}
}

// Outbox exposes the event queue, mainly for tests and metrics.
func (c *Corebank) Outbox() *outbox.Outbox {
	return c.outbox
}
