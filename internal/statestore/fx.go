package statestore

import (
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/linkpulse/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("statestore",
	fx.Provide(NewStore),
)

// NewStore picks Redis when configured, in-memory otherwise.
func NewStore(cfg config.Config, log *zap.Logger) Store {
	if cfg.RedisAddr == "" {
		log.Info("authorization state store: in-memory")
		return NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	log.Info("authorization state store: redis", zap.String("addr", cfg.RedisAddr))
	return NewRedisStore(client)
}
