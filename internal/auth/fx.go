package auth

import (
	"github.com/smallbiznis/linkpulse/internal/auth/repository"
	"github.com/smallbiznis/linkpulse/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(repository.New),
	session.Module,
)
