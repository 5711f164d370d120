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

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"launchpad/internal/events"
	"launchpad/internal/handlers"
	"launchpad/internal/launchpad"
	"launchpad/internal/metrics"
	"launchpad/internal/middleware"
	"launchpad/internal/oracle"
	"launchpad/internal/routes"
	"launchpad/internal/store"
	"launchpad/pkg/config"
	lpsolana "launchpad/pkg/solana"
)

const (
	eventBuffer     = 1024
	shutdownTimeout = 10 * time.Second
	rpcCheckTimeout = 3 * time.Second
)

func main() {
	app := &cli.App{
		Name:   "launchpad-api",
		Usage:  "serve the launchpad auction engine over HTTP",
		Flags:  config.Flags(config.DBFlags, config.RabbitMQFlags, config.LaunchpadFlags, config.HTTPFlags, config.CommonFlags),
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back SQL migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply pending migrations", Action: migrate(config.ExecuteMigrations)},
					{Name: "down", Usage: "roll back the last migration", Action: migrate(config.RollbackMigration)},
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrate(run func(db *gorm.DB, dir string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s := config.FromContext(c)
		if err := config.InitLogger(s.LogLevel, false); err != nil {
			return err
		}
		if !s.DB.Enabled() {
			return errors.New("migrations need --db-host")
		}
		db, err := config.InitDB(s.DB)
		if err != nil {
			return err
		}
		return run(db, s.MigrationsDir)
	}
}

func serve(c *cli.Context) error {
	s := config.FromContext(c)
	if err := config.InitLogger(s.LogLevel, false); err != nil {
		return err
	}
	if s.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ledger := launchpad.NewMemoryLedger()
	m := metrics.New()
	broadcaster := events.NewBroadcaster(s.AllowedOrigins)
	sinks := launchpad.EventSinks{m, broadcaster}
	opts := []launchpad.Option{launchpad.WithLogger(log.WithField("component", "engine"))}

	var db *gorm.DB
	if s.DB.Enabled() {
		var err error
		if db, err = config.InitDB(s.DB); err != nil {
			return err
		}
		st := store.New(db)
		state, err := st.Load()
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if err := st.LoadLedger(ledger); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		opts = append(opts, launchpad.WithState(state), launchpad.WithStore(st))
	} else {
		log.Warn("no database configured, state lives in memory only")
	}

	var queue *events.Queue
	if s.RabbitMQ.Enabled() {
		conn, err := config.InitRabbitMQ(s.RabbitMQ)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub, err := config.NewPublisher(conn)
		if err != nil {
			return err
		}
		defer pub.Close()
		queue = events.NewQueue(config.EventsQueue, pub, eventBuffer)
		sinks = append(sinks, queue)
	} else {
		log.Info("RabbitMQ not configured, events stay in process")
	}

	if s.SolanaRPC != "" {
		if res := lpsolana.CheckRPC(c.Context, s.SolanaRPC, rpcCheckTimeout); !res.OK {
			log.WithField("rpc", s.SolanaRPC).Warnf("solana rpc unhealthy, pyth prices will fail: %s", res.Error)
		}
		opts = append(opts, launchpad.WithOracleReader(oracle.NewPythRPC(s.SolanaRPC)))
	}
	opts = append(opts, launchpad.WithEventSink(sinks))

	engine, err := launchpad.NewEngine(launchpad.Config{
		TestMode:        s.TestMode,
		FeeBaseLamports: s.FeeBaseLamports,
	}, ledger, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: ":" + s.Port,
		Handler: routes.SetupRouter(routes.Options{
			Handler:        handlers.New(engine, db),
			Metrics:        m,
			Broadcaster:    broadcaster,
			AllowedOrigins: s.AllowedOrigins,
			BidRateLimit: middleware.RateLimiterConfig{
				RequestsPerSecond: s.BidRateLimit,
				Burst:             s.BidRateBurst,
			},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(log.Fields{"port": s.Port, "test_mode": s.TestMode}).Info("launchpad api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if queue != nil {
		g.Go(func() error { return queue.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
