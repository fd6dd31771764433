package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petdoor_hub/internal/coordinator"
	"petdoor_hub/internal/device"
	"petdoor_hub/internal/handlers"
	"petdoor_hub/internal/logger"
	"petdoor_hub/internal/repository"
	"petdoor_hub/internal/repository/db"
	"petdoor_hub/internal/server"
	"petdoor_hub/internal/service"

	"github.com/spf13/viper"
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// device client and coordinator
	coord := coordinator.New(newDeviceClient(), coordinatorConfig(), log)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()
	if err := coord.Initialize(initCtx); err != nil {
		log.Fatalw("device unreachable, refusing to start", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, coord, viper.GetBool("coordinator.include_all_events"))
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the journal before the scheduler so no merge goes unobserved
	services.Journal.Start()
	if err := coord.Start(ctx); err != nil {
		log.Fatalw("failed to start coordinator", "err", err)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, coord, services.Journal, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// newDeviceClient builds the door API client from configuration.
func newDeviceClient() *device.HTTPClient {
	return device.NewHTTPClient(
		viper.GetString("device.host"),
		viper.GetString("device.username"),
		viper.GetString("device.password"),
	)
}

// coordinatorConfig reads the polling cadences; zero values fall back to the
// coordinator's defaults.
func coordinatorConfig() coordinator.Config {
	return coordinator.Config{
		FastInterval:     viper.GetDuration("coordinator.fast_interval"),
		SlowInterval:     viper.GetDuration("coordinator.slow_interval"),
		CallTimeout:      viper.GetDuration("coordinator.timeout"),
		SlowEnabled:      viper.GetBool("coordinator.slow_enabled"),
		IncludeAllEvents: viper.GetBool("coordinator.include_all_events"),
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, coord *coordinator.Coordinator, journal *service.Journal, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines; Stop waits for any in-flight refresh
	cancel()
	coord.Stop()
	journal.Stop()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
