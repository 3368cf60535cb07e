package twitterkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/mongo"
	"github.com/dmitrymomot/twitterkit/pkg/pg"
	"github.com/dmitrymomot/twitterkit/pkg/redis"
	"github.com/dmitrymomot/twitterkit/pkg/secrets"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

// backend is a connected session store with its health check and release funcs.
type backend struct {
	store session.Store
	ping  func(context.Context) error
	close func() error
}

func noop() error { return nil }

func alwaysHealthy(context.Context) error { return nil }

// openStore connects the backend named by cfg.Store.
func openStore(ctx context.Context, cfg Config, log *slog.Logger) (backend, error) {
	switch cfg.Store {
	case StoreFile, "":
		if cfg.SessionFile == "" {
			return backend{}, ErrSessionFileRequired
		}
		st, err := session.OpenFileStore(cfg.SessionFile)
		if err != nil {
			return backend{}, err
		}
		return backend{store: st, ping: alwaysHealthy, close: noop}, nil

	case StoreMemory:
		return backend{store: session.NewMemoryStore(), ping: alwaysHealthy, close: noop}, nil

	case StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return backend{}, err
		}
		return backend{
			store: redis.NewStore(client, cfg.Redis),
			ping:  redis.Healthcheck(client),
			close: client.Close,
		}, nil

	case StorePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return backend{}, err
		}
		if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return backend{}, err
		}
		return backend{
			store: pg.NewStore(pool),
			ping:  pg.Healthcheck(pool),
			close: func() error { pool.Close(); return nil },
		}, nil

	case StoreMongo:
		client, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return backend{}, err
		}
		return backend{
			store: mongo.NewStore(client, cfg.Mongo),
			ping:  mongo.Healthcheck(client),
			close: func() error { return client.Disconnect(context.Background()) },
		}, nil
	}
	return backend{}, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
}

// managerOptions adds at-rest encryption when a master key is configured.
// Each key family derives its own data key.
func managerOptions(cfg Config, prefix string, log *slog.Logger) ([]session.Option, error) {
	opts := []session.Option{session.WithLogger(log)}
	if cfg.EncryptionKey == "" {
		return opts, nil
	}
	key, err := secrets.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Join(errors.New("twitterkit: TWITTER_ENCRYPTION_KEY"), err)
	}
	defer clear(key)
	c, err := secrets.NewCipher(key, prefix)
	if err != nil {
		return nil, err
	}
	log.Debug("session store encryption enabled", logger.Key(prefix))
	return append(opts, session.WithCipher(c)), nil
}
