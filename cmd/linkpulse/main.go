package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/linkpulse/internal/auth"
	"github.com/smallbiznis/linkpulse/internal/clock"
	"github.com/smallbiznis/linkpulse/internal/config"
	obslogger "github.com/smallbiznis/linkpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/linkpulse/internal/observability/metrics"
	"github.com/smallbiznis/linkpulse/internal/oauth"
	"github.com/smallbiznis/linkpulse/internal/scheduler"
	"github.com/smallbiznis/linkpulse/internal/server"
	"github.com/smallbiznis/linkpulse/internal/statestore"
	"github.com/smallbiznis/linkpulse/internal/token"
	"github.com/smallbiznis/linkpulse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		obslogger.Module,
		fx.Provide(obsmetrics.NewTokenMetrics),
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,

		statestore.Module,
		oauth.Module,
		token.Module,
		auth.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
