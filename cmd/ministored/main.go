package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ministore/internal/app"
	"ministore/internal/config"
	"ministore/internal/history"
	"ministore/internal/pipeline"
	"ministore/internal/scheduler"
	"ministore/internal/server"
)

func NewRouter(analyzer *pipeline.Analyzer, hist *history.Log, sched *scheduler.Scheduler, logger *zap.Logger) *gin.Engine {
	deps := server.Deps{Analyzer: analyzer, Logger: logger}
	if hist != nil {
		deps.History = hist
	}
	if sched != nil {
		deps.Schedule = sched
	}
	return server.NewRouter(deps)
}

func RunServer(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, sched *scheduler.Scheduler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if sched != nil {
				if err := sched.Start(); err != nil {
					return err
				}
			}
			go func() {
				logger.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr), zap.String("mode", cfg.MinistoreMode))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sched != nil {
				if err := sched.Stop(ctx); err != nil {
					logger.Warn("scheduler did not stop cleanly", zap.Error(err))
				}
			}
			defer logger.Sync()
			return srv.Shutdown(ctx)
		},
	})
}

func main() {
	gin.SetMode(gin.ReleaseMode)

	fx.New(
		app.Module,
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(NewRouter),
		fx.Invoke(RunServer),
	).Run()
}
