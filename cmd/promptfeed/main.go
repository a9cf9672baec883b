package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/config"
	"github.com/promptverse/promptfeed/src/data"
	"github.com/promptverse/promptfeed/src/engagement"
	"github.com/promptverse/promptfeed/src/events"
	"github.com/promptverse/promptfeed/src/feed"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/metrics"
	"github.com/promptverse/promptfeed/src/prompts"
	"github.com/promptverse/promptfeed/src/ranking"
	"github.com/promptverse/promptfeed/src/stats"
	"github.com/promptverse/promptfeed/src/webserver"
)

var rootCmd = &cobra.Command{
	Use:           "promptfeed",
	Short:         "Prompt sharing service: catalog, social feed, marketplace rankings and leaderboards",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, log, err := open()
		if err != nil {
			return err
		}
		defer log.Sync()
		return data.Migrate(db, log)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "set-setting <name> <value>",
	Short: "Store a runtime setting in the settings table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, log, err := open()
		if err != nil {
			return err
		}
		defer log.Sync()
		if err := data.Migrate(db, log); err != nil {
			return err
		}
		if err := data.PutSetting(db, args[0], args[1]); err != nil {
			return err
		}
		log.Info("setting stored", zap.String("name", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// open loads bootstrap config, builds the logger and connects to MySQL.
func open() (config.Bootstrap, *gorm.DB, *zap.Logger, error) {
	boot, err := config.LoadBootstrap()
	if err != nil {
		return boot, nil, nil, err
	}
	log, err := logging.New(boot.LogLevel, boot.LogFormat)
	if err != nil {
		return boot, nil, nil, err
	}
	db, err := data.ConnectMySQL(boot.MySQLDSN, log)
	if err != nil {
		return boot, nil, nil, err
	}
	return boot, db, log, nil
}

func serve() error {
	boot, db, log, err := open()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := data.Migrate(db, log); err != nil {
		return err
	}
	if err := data.LoadSettings(db); err != nil {
		return err
	}
	cfg := config.Load(boot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pub events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		pub = events.NewRedisPublisher(rdb, cfg.EventsStream)
		log.Info("publishing activity events", zap.String("stream", cfg.EventsStream))
	} else {
		log.Warn("REDIS_URL not set, activity events disabled")
	}

	m := metrics.NewCollector("promptfeed")
	ledger := stats.NewLedger(db, log.Named("stats"), stats.WithMaxPageSize(cfg.MaxPageSize))
	ix := engagement.NewIndex(db, log.Named("engagement"),
		engagement.WithPublisher(pub), engagement.WithMetrics(m))

	router := webserver.New(cfg, webserver.Deps{
		DB: db,
		Catalog: prompts.NewCatalog(db, ledger, log.Named("prompts"),
			prompts.WithPublisher(pub), prompts.WithMetrics(m), prompts.WithMaxPageSize(cfg.MaxPageSize)),
		Ranker:  ranking.NewRanker(db, log.Named("ranking"), ranking.WithMaxPageSize(cfg.MaxPageSize)),
		Index:   ix,
		Feed:    feed.NewComposer(db, ix, log.Named("feed"),
			feed.WithMetrics(m), feed.WithMaxPageSize(cfg.MaxPageSize)),
		Ledger:  ledger,
		Metrics: m,
		Log:     log.Named("http"),
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	log.Info("promptfeed listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutting down", zap.String("signal", s.String()))
	case err := <-errc:
		return fmt.Errorf("http: %w", err)
	}
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	return httpSrv.Shutdown(shutCtx)
}
