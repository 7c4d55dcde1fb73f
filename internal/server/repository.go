package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/iqac-smarttrack/apiserver/config"
	"github.com/iqac-smarttrack/apiserver/internal/db"
	"github.com/iqac-smarttrack/apiserver/internal/kv"
	"github.com/iqac-smarttrack/apiserver/internal/remote"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/iqac-smarttrack/apiserver/internal/store"
	"github.com/sirupsen/logrus"
)

// OpenRepository returns the backend selected by cfg.Store.Mode. In remote
// mode without a database host the mock client is used, so the API still
// answers with demo data.
func OpenRepository(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (services.Repository, error) {
	switch cfg.Store.Mode {
	case config.StoreModeLocal, "":
		backend, err := kv.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s backend: %w", cfg.Store.Driver, err)
		}
		return store.New(backend, cfg.Store.KeyPrefix), nil
	case config.StoreModeRemote:
		conn, err := db.Open(ctx, cfg.Database)
		if errors.Is(err, db.ErrNotConfigured) {
			logger.Warn("database is not configured; serving mock data")
			sessions, err := kv.Open(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("open session backend: %w", err)
			}
			return remote.NewStore(remote.NewMock(), sessions, cfg.Store.KeyPrefix), nil
		}
		if err != nil {
			return nil, err
		}
		client := remote.NewPostgres(conn, logger)
		return remote.NewStore(client, kv.NewPostgres(conn), cfg.Store.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.Store.Mode)
	}
}
