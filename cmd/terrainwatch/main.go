package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"terrainwatch/internal/api"
	"terrainwatch/pkg/audio"
	"terrainwatch/pkg/config"
	"terrainwatch/pkg/core"
	"terrainwatch/pkg/db"
	"terrainwatch/pkg/engine"
	"terrainwatch/pkg/logging"
	"terrainwatch/pkg/notify"
	"terrainwatch/pkg/probe"
	"terrainwatch/pkg/store"
	"terrainwatch/pkg/terrain"
	"terrainwatch/pkg/version"
)

const defaultConfigPath = "configs/terrainwatch.yaml"

var (
	configPath  = flag.String("config", "", "Path to the config file (default $TERRAINWATCH_CONFIG or "+defaultConfigPath+")")
	initConfig  = flag.Bool("init-config", false, "Generate default config file and exit")
	trace       = flag.Bool("trace", false, "Enable trace logging of per-tick decisions")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	path := resolveConfigPath(*configPath)

	if *initConfig {
		if err := config.GenerateDefault(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", path)
		return
	}

	if *trace {
		logging.SetTrace(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, path); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("TERRAINWATCH_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("terrainwatch Started", "version", version.Version, "config", configPath)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := probe.Summarize(probe.Run(ctx, probe.DefaultTimeout,
		probe.Database(dbConn),
		probe.ElevationFile(appCfg.Terrain.ElevationFile),
	)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	selector, cache, err := initTerrain(appCfg)
	if err != nil {
		return err
	}

	player := audio.NewTonePlayer(&appCfg.Audio)
	history := store.NewHistoryWriter(st, historyQueue)
	live := notify.NewBroadcaster()
	dispatcher := notify.NewDispatcher(player)
	dispatcher.AddSink(live)
	dispatcher.AddSink(history)

	unit := core.NewUnit(engine.New(appCfg, selector, cache, dispatcher))

	simClient, pusher := initializeSimClient(appCfg)
	defer simClient.Close()

	sched := setupScheduler(appCfg, simClient, unit, cache, st)

	handlers := api.Handlers{
		Engine:    api.NewEngineHandler(unit),
		Telemetry: api.NewTelemetryHandler(nil),
		Alerts:    api.NewAlertsHandler(st, live),
		Audio:     api.NewAudioHandler(player),
	}
	if pusher != nil {
		handlers.Telemetry = api.NewTelemetryHandler(pusher)
	}
	srv := api.NewServer(appCfg.Server.Address, handlers, cancel)
	srv.Handler = loggingMiddleware(srv.Handler)

	var raster elevationDataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return history.Run(gctx) })
	g.Go(func() error {
		raster = loadElevationDataset(gctx, appCfg.Terrain.ElevationFile, openETOPO1, selector.Dataset(), cache)
		return nil
	})
	g.Go(func() error {
		sched.Start(gctx)
		return nil
	})
	g.Go(func() error { return runServerLifecycle(gctx, srv) })

	err = g.Wait()
	// The scheduler has returned, so no tick samples the dataset any more.
	if raster != nil {
		if cerr := raster.Close(); cerr != nil {
			slog.Warn("Failed to close elevation dataset", "error", cerr)
		}
	}
	slog.Info("terrainwatch Stopped")
	return err
}

func initDB(appCfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func initTerrain(appCfg *config.Config) (*terrain.Selector, *terrain.GridCache, error) {
	tc := appCfg.Terrain
	selector := terrain.NewSelector(terrain.NewDatasetProvider(), terrain.NewProceduralProvider(tc.ProceduralSeed))
	cache, err := terrain.NewGridCache(tc.CacheSize, tc.CacheTTL.Std(), tc.Resolution)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create terrain cache: %w", err)
	}
	return selector, cache, nil
}

// elevationDataset is an opened elevation file.
type elevationDataset interface {
	terrain.ElevationSource
	io.Closer
}

func openETOPO1(path string) (elevationDataset, error) {
	r, err := terrain.OpenETOPO1(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// loadElevationDataset opens the dataset off the tick path and swaps it in once loaded.
// Cached procedural grids are dropped so the next tick samples the dataset. The returned
// dataset stays open; the caller closes it once nothing ticks any more.
func loadElevationDataset(ctx context.Context, path string, open func(string) (elevationDataset, error),
	dataset *terrain.DatasetProvider, cache *terrain.GridCache) elevationDataset {
	if path == "" {
		slog.Warn("No elevation file configured, using procedural terrain")
		return nil
	}
	start := time.Now()
	raster, err := open(path)
	if err != nil {
		slog.Warn("Elevation dataset unavailable, using procedural terrain", "path", path, "error", err)
		return nil
	}
	if ctx.Err() != nil {
		raster.Close()
		return nil
	}
	dataset.Attach(raster, terrain.ProviderDataset)
	cache.Purge()
	slog.Info("Elevation dataset loaded", "path", path, "duration", time.Since(start).Round(time.Millisecond))
	return raster
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if logging.RequestLogger != nil {
			logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		}
	})
}
