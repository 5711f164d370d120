package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"launchpad/internal/events"
	"launchpad/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "launchpad-worker",
		Usage: "record queued trade events into the history tables",
		Flags: config.Flags(config.DBFlags, config.RabbitMQFlags, config.CommonFlags, []cli.Flag{
			&cli.BoolFlag{Name: "purge", Usage: "drop pending events before consuming"},
		}),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	s := config.FromContext(c)
	if err := config.InitLogger(s.LogLevel, true); err != nil {
		return err
	}
	if !s.DB.Enabled() || !s.RabbitMQ.Enabled() {
		return errors.New("worker needs both --db-host and --rabbitmq-host")
	}

	db, err := config.InitDB(s.DB)
	if err != nil {
		return err
	}
	conn, err := config.InitRabbitMQ(s.RabbitMQ)
	if err != nil {
		return err
	}
	defer conn.Close()

	consumer, err := config.NewConsumer(conn, config.EventsQueue)
	if err != nil {
		return err
	}
	defer consumer.Close()

	if c.Bool("purge") {
		if err := config.PurgeQueue(conn, config.EventsQueue); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", config.EventsQueue).Info("trade recorder started, waiting for events")
	err = consumer.Consume(ctx, events.NewRecorder(db).Handle)
	if errors.Is(err, context.Canceled) {
		log.Info("trade recorder stopped")
		return nil
	}
	return err
}
