package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"cubecubic/admin"
	"cubecubic/catalog"
	appConfig "cubecubic/config"
	"cubecubic/controller"
	"cubecubic/database"
	"cubecubic/handlers"
	"cubecubic/metrics"
	appSentry "cubecubic/sentry"
	"cubecubic/view"
	"cubecubic/watcher"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()
	setupLogging(appConfig.Config.Options.LogLevel)

	appSentry.Init(appConfig.Config.Sentry.DSN, appConfig.Config.Sentry.Release)
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		appSentry.ReportError(err)
		log.Fatal(err)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "listener", "method", "path"},
		TimestampFormat: time.RFC3339,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func run(ctx context.Context) error {
	cfg := appConfig.Config
	logger := log.WithFields(log.Fields{"module": "main"})

	metrics.Register()
	appSentry.SetContext("server", map[string]interface{}{
		"publicDir": cfg.Server.PublicDir,
		"saveMode":  string(cfg.Admin.SaveMode),
	})

	store := catalog.NewStore(cfg.CatalogPath())
	if err := store.Load(); err != nil {
		// The site still comes up; pages show the load error until a reload.
		metrics.IncCatalogLoad("error")
		logger.WithError(err).Error("Failed to load catalog")
		appSentry.ReportError(err)
	} else {
		metrics.IncCatalogLoad("ok")
		doc := store.Snapshot()
		metrics.SetCatalogSize(len(doc.Albums), len(doc.Tracks))
		logger.WithFields(log.Fields{
			"albums": len(doc.Albums),
			"tracks": len(doc.Tracks),
		}).Info("Catalog loaded")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	paths := view.Paths{
		MediaPrefix:  cfg.Server.MediaPrefix,
		CoverPrefix:  cfg.Catalog.CoverPrefix,
		DefaultCover: cfg.Catalog.DefaultCover,
	}
	idle := time.Duration(cfg.Options.IdleTimeoutMinutes) * time.Minute
	ctrl := controller.NewController(store, db, paths, cfg.Options.ErrorSkipDelay, idle)
	editor := admin.NewController(store, cfg.Admin.SaveMode)
	gate := admin.NewGate(cfg.Admin.Password, cfg.Admin.LoginRatePerMinute)
	sorter := catalog.NewAlbumSorter(cfg.Catalog.PriorityAlbums)

	manager := handlers.NewManager(store, ctrl, editor, gate, db, sorter, handlers.Options{
		PublicDir:   cfg.Server.PublicDir,
		IndexFile:   cfg.Server.IndexFile,
		MediaPrefix: cfg.Server.MediaPrefix,
		MediaDir:    cfg.MediaDir(),
		PostEnabled: cfg.Admin.PostEnabled(),
		Private:     database.Files(cfg.Database.Path),
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	manager.Register(router)

	listener, err := listen(ctx, cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ctrl.ReapIdle(ctx) })

	if cfg.Catalog.Watch {
		w := watcher.New(store.Path(), watcher.DefaultDebounce, func() {
			reloadCatalog(store, ctrl)
		})
		g.Go(func() error { return w.Run(ctx) })
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.WithField("addr", listener.Addr().String()).Info("Starting server")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// listen opens an ngrok tunnel when a domain is configured, otherwise a
// local TCP port.
func listen(ctx context.Context, cfg *appConfig.ConfigStruct) (net.Listener, error) {
	if cfg.NGrok.IsEnabled() {
		tunnel, err := ngrok.Listen(ctx,
			config.HTTPEndpoint(
				config.WithDomain(cfg.NGrok.Domain),
			),
			ngrok.WithAuthtokenFromEnv(), // defaults to NGROK_AUTHTOKEN
		)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"module": "main"}).Info("Ngrok URL: ", tunnel.URL())
		return tunnel, nil
	}

	port := cfg.Server.Port
	if port == "" {
		port = "3000"
	}
	return net.Listen("tcp", ":"+port)
}

// reloadCatalog picks up edits made to tracks.json outside the admin view.
// Unsaved admin edits win over the file.
func reloadCatalog(store *catalog.Store, ctrl *controller.Controller) {
	logger := log.WithFields(log.Fields{"module": "watcher"})
	err := store.LoadIfClean()
	if errors.Is(err, catalog.ErrDirty) {
		logger.Warn("Catalog file changed while admin edits are unsaved, skipping reload")
		return
	}
	if err != nil {
		metrics.IncCatalogLoad("error")
		logger.WithError(err).Error("Failed to reload catalog")
		appSentry.ReportError(err)
		return
	}
	metrics.IncCatalogLoad("ok")
	doc := store.Snapshot()
	metrics.SetCatalogSize(len(doc.Albums), len(doc.Tracks))
	ctrl.Refresh()
	logger.Info("Catalog reloaded")
}
