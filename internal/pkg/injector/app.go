package injector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/school-assistant-backend/internal/conf"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/seed"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/server"
)

// App encapsulates all application dependencies
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	Importer   *seed.Importer
}

func newApp(config *conf.Config, log *logger.Logger, httpServer *server.HTTPServer, importer *seed.Importer) *App {
	return &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		Importer:   importer,
	}
}

// Run imports the knowledge seed, serves HTTP and, when enabled, re-imports
// the seed file on change. It returns once ctx is done and the server has
// drained.
func (a *App) Run(ctx context.Context) error {
	kc := a.Config.Knowledge
	if kc.ImportOnStart {
		if _, err := a.Importer.Import(ctx); err != nil {
			// the service still answers from whatever the store already holds
			a.Logger.Error("knowledge seed import failed", zap.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.HTTPServer.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.HTTPServer.Stop(context.Background())
	})

	if kc.Watch && kc.SeedSource == conf.SeedSourceFile {
		watcher := seed.NewWatcher(kc.SeedPath, kc.WatchDebounce, a.Importer.Reload, a.Logger)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}
