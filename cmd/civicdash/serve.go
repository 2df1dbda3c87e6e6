package main

import (
	"github.com/smallbiznis/civicdash/internal/auth"
	"github.com/smallbiznis/civicdash/internal/catalog"
	"github.com/smallbiznis/civicdash/internal/clock"
	"github.com/smallbiznis/civicdash/internal/config"
	"github.com/smallbiznis/civicdash/internal/ledger"
	"github.com/smallbiznis/civicdash/internal/membership"
	"github.com/smallbiznis/civicdash/internal/membershipmetrics"
	"github.com/smallbiznis/civicdash/internal/migration"
	"github.com/smallbiznis/civicdash/internal/observability"
	"github.com/smallbiznis/civicdash/internal/people"
	"github.com/smallbiznis/civicdash/internal/ratelimit"
	"github.com/smallbiznis/civicdash/internal/server"
	"github.com/smallbiznis/civicdash/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func serve() error {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core Infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		db.Module,
		migration.Module,

		// Functional Domains
		catalog.Module,
		ledger.Module,
		membership.Module,
		membershipmetrics.Module,
		people.Module,
		auth.Module,
		ratelimit.Module,

		server.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
