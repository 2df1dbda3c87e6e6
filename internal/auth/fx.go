package auth

import (
	"github.com/smallbiznis/civicdash/internal/auth/gate"
	"github.com/smallbiznis/civicdash/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.gate",
	fx.Provide(gate.New),
	session.Module,
)
