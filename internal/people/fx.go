package people

import (
	"github.com/smallbiznis/civicdash/internal/people/repository"
	"github.com/smallbiznis/civicdash/internal/people/service"
	"go.uber.org/fx"
)

var Module = fx.Module("people.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
