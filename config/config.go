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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "8000"

	// Store kinds.
	StoreMemory = "memory"
	StoreRedis  = "redis"

	// Concurrency disciplines for the transfer engine.
	DisciplineOptimistic = "optimistic"
	DisciplineLock       = "lock"

	// Event sink kinds.
	SinkNone        = "none"
	SinkEventBridge = "eventbridge"
	SinkStream      = "stream"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Port string `json:"port" envconfig:"COREBANK_SERVER_PORT"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"COREBANK_REDIS_DNS"`
}

type LedgerConfig struct {
	Store        string `json:"store" envconfig:"COREBANK_LEDGER_STORE"`
	Discipline   string `json:"discipline" envconfig:"COREBANK_LEDGER_DISCIPLINE"`
	MaxRetries   int    `json:"max_retries" envconfig:"COREBANK_LEDGER_MAX_RETRIES"`
	BackoffMinMs int    `json:"backoff_min_ms" envconfig:"COREBANK_LEDGER_BACKOFF_MIN_MS"`
	BackoffMaxMs int    `json:"backoff_max_ms" envconfig:"COREBANK_LEDGER_BACKOFF_MAX_MS"`
}

type OutboxConfig struct {
	Capacity          int `json:"capacity" envconfig:"COREBANK_OUTBOX_CAPACITY"`
	FlushIntervalMs   int `json:"flush_interval_ms" envconfig:"COREBANK_OUTBOX_FLUSH_INTERVAL_MS"`
	FlushBatchSize    int `json:"flush_batch_size" envconfig:"COREBANK_OUTBOX_FLUSH_BATCH_SIZE"`
	ShutdownBatchSize int `json:"shutdown_batch_size" envconfig:"COREBANK_OUTBOX_SHUTDOWN_BATCH_SIZE"`
}

type SinkConfig struct {
	Kind       string `json:"kind" envconfig:"COREBANK_SINK_KIND"`
	AwsRegion  string `json:"aws_region" envconfig:"COREBANK_SINK_AWS_REGION"`
	EventBus   string `json:"event_bus" envconfig:"COREBANK_SINK_EVENT_BUS"`
	StreamName string `json:"stream_name" envconfig:"COREBANK_SINK_STREAM_NAME"`
}

type Configuration struct {
	ProjectName string       `json:"project_name" envconfig:"COREBANK_PROJECT_NAME"`
	Server      ServerConfig `json:"server"`
	Redis       RedisConfig  `json:"redis"`
	Ledger      LedgerConfig `json:"ledger"`
	Outbox      OutboxConfig `json:"outbox"`
	Sink        SinkConfig   `json:"sink"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("corebank", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called corebank.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Corebank Server"
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Ledger.Store == "" {
		cnf.Ledger.Store = StoreMemory
	}
	if cnf.Ledger.Store != StoreMemory && cnf.Ledger.Store != StoreRedis {
		return errors.New("ledger store must be one of: memory, redis")
	}
	if cnf.Ledger.Store == StoreRedis && cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's required for the redis ledger store.")
		return errors.New("redis DNS is required")
	}
	if cnf.Ledger.Discipline == "" {
		cnf.Ledger.Discipline = DisciplineOptimistic
	}
	if cnf.Ledger.Discipline != DisciplineOptimistic && cnf.Ledger.Discipline != DisciplineLock {
		return errors.New("ledger discipline must be one of: optimistic, lock")
	}
	if cnf.Ledger.MaxRetries <= 0 {
		cnf.Ledger.MaxRetries = 5
	}
	if cnf.Ledger.BackoffMinMs <= 0 {
		cnf.Ledger.BackoffMinMs = 5
	}
	if cnf.Ledger.BackoffMaxMs <= cnf.Ledger.BackoffMinMs {
		cnf.Ledger.BackoffMaxMs = 100
	}

	if cnf.Outbox.Capacity <= 0 {
		cnf.Outbox.Capacity = 10000
	}
	if cnf.Outbox.FlushIntervalMs <= 0 {
		cnf.Outbox.FlushIntervalMs = 2000
	}
	if cnf.Outbox.FlushBatchSize <= 0 {
		cnf.Outbox.FlushBatchSize = 5000
	}
	if cnf.Outbox.ShutdownBatchSize <= 0 {
		cnf.Outbox.ShutdownBatchSize = 20000
	}

	switch cnf.Sink.Kind {
	case "":
		cnf.Sink.Kind = SinkNone
	case SinkNone, SinkEventBridge, SinkStream:
	default:
		return errors.New("sink kind must be one of: none, eventbridge, stream")
	}
	if cnf.Sink.Kind == SinkEventBridge && cnf.Sink.EventBus == "" {
		cnf.Sink.EventBus = "default"
	}
	if cnf.Sink.Kind == SinkStream {
		if cnf.Redis.Dns == "" {
			return errors.New("redis DNS is required for the stream sink")
		}
		if cnf.Sink.StreamName == "" {
			cnf.Sink.StreamName = "fund-transfers"
		}
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if err := mockConfig.validateAndAddDefaults(); err != nil {
		log.Printf("Warning: mock config validation: %v", err)
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
