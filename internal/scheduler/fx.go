package scheduler

import (
	"context"

	"github.com/smallbiznis/linkpulse/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(start),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Interval: cfg.SweepInterval,
		Window:   cfg.RefreshThreshold,
	}
}

func start(lc fx.Lifecycle, sched *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
