package token

import (
	"github.com/smallbiznis/linkpulse/internal/token/repository"
	"github.com/smallbiznis/linkpulse/internal/token/service"
	"go.uber.org/fx"
)

var Module = fx.Module("token",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
