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

package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FlusherConfig controls the background flush cycle.
type FlusherConfig struct {
	Interval          time.Duration
	BatchSize         int
	ShutdownBatchSize int
}

// Flusher is the single consumer of the outbox. It drains a batch on a
// fixed interval and hands it to the sink; a failed publish loses the
// batch (the transfers behind it already completed). Stop runs one last
// flush with the larger shutdown bound to minimize event loss.
type Flusher struct {
	outbox *Outbox
	sink   Sink
	cfg    FlusherConfig

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewFlusher(outbox *Outbox, sink Sink, cfg FlusherConfig) *Flusher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5000
	}
	if cfg.ShutdownBatchSize < cfg.BatchSize {
		cfg.ShutdownBatchSize = 4 * cfg.BatchSize
	}
	return &Flusher{
		outbox: outbox,
		sink:   sink,
		cfg:    cfg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the flush loop. The loop exits when ctx is cancelled or
// Stop is called.
func (f *Flusher) Start(ctx context.Context) {
	go f.run(ctx)
}

func (f *Flusher) run(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.finalFlush()
			return
		case <-f.stop:
			f.finalFlush()
			return
		case <-ticker.C:
			f.FlushCycle(ctx, f.cfg.BatchSize)
		}
	}
}

// FlushCycle drains up to max events and publishes them. It returns the
// number of events handed to the sink; those events are terminal for the
// outbox whether or not the publish succeeded.
func (f *Flusher) FlushCycle(ctx context.Context, max int) int {
	events := f.outbox.Drain(max)
	if len(events) == 0 {
		return 0
	}

	if err := f.sink.Publish(ctx, events); err != nil {
		logrus.WithFields(logrus.Fields{
			"batch_size": len(events),
			"error":      err,
		}).Error("event sink publish failed, batch lost")
		return len(events)
	}

	logrus.WithField("batch_size", len(events)).Info("flushed events to sink")
	return len(events)
}

func (f *Flusher) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushed := f.FlushCycle(ctx, f.cfg.ShutdownBatchSize)
	logrus.WithField("batch_size", flushed).Info("final outbox flush before shutdown")
}

// Stop halts the flush loop after one final drain and waits for it to
// finish. Safe to call from multiple goroutines.
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() {
		close(f.stop)
	})
	<-f.done
}
