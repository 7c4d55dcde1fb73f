package kv

import (
	"context"
	"fmt"

	"github.com/iqac-smarttrack/apiserver/config"
	"github.com/iqac-smarttrack/apiserver/internal/db"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Open returns the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Store.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile, "":
		return NewFile(cfg.Store.Dir)
	case DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		backend, err := NewSQLite(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return backend, nil
	case DriverPostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewPostgres(conn), nil
	case DriverMongo:
		return NewMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
