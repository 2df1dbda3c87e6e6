package membershipmetrics

import (
	"github.com/smallbiznis/civicdash/internal/membershipmetrics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("membershipmetrics.service",
	fx.Provide(service.New),
)
