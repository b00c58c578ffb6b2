package main

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/authenticator/internal/config"
	"github.com/yourusername/authenticator/internal/users"
)

const storeConnectTimeout = 10 * time.Second

// openUserStore は STORE_DRIVER に応じたユーザーストアを開きます。
func openUserStore(ctx context.Context, cfg *config.Config) (users.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
		defer cancel()
		store, err := users.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := users.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.StoreDriver)
	}
}
