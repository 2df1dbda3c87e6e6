package ledger

import (
	"github.com/smallbiznis/civicdash/internal/config"
	"github.com/smallbiznis/civicdash/internal/ledger/domain"
	"github.com/smallbiznis/civicdash/internal/ledger/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(provideSource),
)

func provideSource(cfg config.Config) domain.Source {
	return stripe.NewClient(cfg.Stripe)
}
