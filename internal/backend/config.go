package backend

import (
	"errors"
	"fmt"

	"budgie/internal/config"
)

// BackendTypes lists every supported event store in documentation order.
var BackendTypes = []BackendType{MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend}

// FromAppConfig picks the event store and AMQP settings out of the
// application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := Config{
		Type:         BackendType(appConfig.Backend),
		EventFile:    appConfig.EventFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresDSN:  appConfig.PostgresDSN,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the chosen store has its location and that AMQP,
// when enabled, names both an exchange and a queue.
func (c Config) Validate() error {
	var errs []error
	switch c.Type {
	case MemoryBackend:
	case FileBackend:
		if c.EventFile == "" {
			errs = append(errs, errors.New("event file path is required for file backend"))
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
		}
	case PostgresBackend:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("Postgres DSN is required for postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, BackendTypes))
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP exchange and queue are required when AMQP is enabled"))
	}
	return errors.Join(errs...)
}
