package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"launchpad/internal/launchpad"
	"launchpad/internal/oracle"
	"launchpad/internal/stats"
	"launchpad/internal/store"
	"launchpad/pkg/config"
	lpsolana "launchpad/pkg/solana"
)

func main() {
	app := &cli.App{
		Name:  "launchpad-scheduler",
		Usage: "take periodic auction snapshots and watch oracle freshness",
		Flags: config.Flags(config.DBFlags, config.LaunchpadFlags, config.CommonFlags, []cli.Flag{
			&cli.StringFlag{Name: "snapshot-spec", Value: "0 */15 * * * *", Usage: "cron spec (with seconds) for auction snapshots"},
			&cli.StringFlag{Name: "oracle-spec", Value: "0 * * * * *", Usage: "cron spec (with seconds) for the stale oracle check"},
		}),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadEngine rebuilds a read-only engine from the persisted accounts
func loadEngine(db *gorm.DB, s config.Settings) (*launchpad.Engine, error) {
	st := store.New(db)
	state, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	ledger := launchpad.NewMemoryLedger()
	if err := st.LoadLedger(ledger); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	opts := []launchpad.Option{launchpad.WithState(state)}
	if s.SolanaRPC != "" {
		opts = append(opts, launchpad.WithOracleReader(oracle.NewPythRPC(s.SolanaRPC)))
	}
	return launchpad.NewEngine(launchpad.Config{TestMode: s.TestMode, FeeBaseLamports: s.FeeBaseLamports}, ledger, opts...)
}

func recordSnapshots(db *gorm.DB, s config.Settings) error {
	engine, err := loadEngine(db, s)
	if err != nil {
		return err
	}
	rows, err := stats.Snapshots(engine, time.Now())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		log.Info("> no auctions to snapshot")
		return nil
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("save snapshots: %w", err)
	}
	log.Infof("> recorded %d auction snapshots", len(rows))
	return nil
}

func checkOracles(ctx context.Context, db *gorm.DB, s config.Settings) error {
	if s.SolanaRPC != "" {
		if res := lpsolana.CheckRPC(ctx, s.SolanaRPC, 3*time.Second); !res.OK {
			log.WithField("rpc", s.SolanaRPC).Warnf("> solana rpc unhealthy: %s", res.Error)
		}
	}
	engine, err := loadEngine(db, s)
	if err != nil {
		return err
	}
	for _, key := range stats.StaleOracles(ctx, engine) {
		log.WithField("custody", key.String()).Warn("> oracle price is stale, bids paying through this custody will fail")
	}
	return nil
}

func run(c *cli.Context) error {
	s := config.FromContext(c)
	if err := config.InitLogger(s.LogLevel, false); err != nil {
		return err
	}
	if !s.DB.Enabled() {
		return errors.New("scheduler needs --db-host")
	}
	db, err := config.InitDB(s.DB)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cr := cron.New(cron.WithSeconds())
	if _, err := cr.AddFunc(c.String("snapshot-spec"), func() {
		if err := recordSnapshots(db, s); err != nil {
			log.Errorf("> record auction snapshots: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("add snapshot job: %w", err)
	}
	if _, err := cr.AddFunc(c.String("oracle-spec"), func() {
		if err := checkOracles(ctx, db, s); err != nil {
			log.Errorf("> check oracles: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("add oracle job: %w", err)
	}

	cr.Start()
	log.Info("> scheduler started")
	<-ctx.Done()
	<-cr.Stop().Done()
	log.Info("> scheduler stopped")
	return nil
}
