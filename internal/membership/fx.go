package membership

import (
	"github.com/smallbiznis/civicdash/internal/membership/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("membership.repository",
	fx.Provide(repository.Provide),
)
