package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/civicdash/internal/auth/gate"
	"github.com/smallbiznis/civicdash/internal/auth/session"
	"github.com/smallbiznis/civicdash/internal/config"
	membershipmetricsdomain "github.com/smallbiznis/civicdash/internal/membershipmetrics/domain"
	"github.com/smallbiznis/civicdash/internal/observability"
	obsmiddleware "github.com/smallbiznis/civicdash/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/civicdash/internal/observability/metrics"
	obstracing "github.com/smallbiznis/civicdash/internal/observability/tracing"
	peopledomain "github.com/smallbiznis/civicdash/internal/people/domain"
	"github.com/smallbiznis/civicdash/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := NewEngine(obsCfg, httpMetrics)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(cfg.AllowedOrigins))
	}
	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	gate       *gate.Gate
	sessions   *session.Manager
	limiter    *ratelimit.LoginLimiter
	reportSvc  membershipmetricsdomain.Service
	peopleSvc  peopledomain.Service
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Gate       *gate.Gate
	Sessions   *session.Manager
	Limiter    *ratelimit.LoginLimiter `optional:"true"`
	ReportSvc  membershipmetricsdomain.Service
	PeopleSvc  peopledomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		gate:       p.Gate,
		sessions:   p.Sessions,
		limiter:    p.Limiter,
		reportSvc:  p.ReportSvc,
		peopleSvc:  p.PeopleSvc,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerDashboardRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/validate-password", s.ValidatePassword)
	auth.GET("/verify-session", s.VerifySession)
	auth.POST("/logout", s.Logout)
}

func (s *Server) registerDashboardRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/dashboard/membership-metrics", s.GetMembershipMetrics)

	// -------- People --------
	api.GET("/people", s.ListPeople)
	api.GET("/people/duplicate-memberships", s.ListDuplicateMemberships)
}
