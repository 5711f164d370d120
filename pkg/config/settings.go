package config

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type DBSettings struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Enabled reports whether a database was configured; without one the api runs in memory
func (s DBSettings) Enabled() bool { return s.Host != "" }

func (s DBSettings) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		s.Host, s.User, s.Password, s.Name, s.Port)
}

type RabbitMQSettings struct {
	Host     string
	User     string
	Password string
	Port     string
}

func (s RabbitMQSettings) Enabled() bool { return s.Host != "" }

func (s RabbitMQSettings) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", s.User, s.Password, s.Host, s.Port)
}

// Settings is everything the binaries read from flags or the environment
type Settings struct {
	DB              DBSettings
	RabbitMQ        RabbitMQSettings
	Port            string
	AllowedOrigins  []string
	TestMode        bool
	FeeBaseLamports uint64
	SolanaRPC       string
	BidRateLimit    float64
	BidRateBurst    int
	KeystoreDir     string
	MigrationsDir   string
	LogLevel        string
}

var (
	DBFlags = []cli.Flag{
		&cli.StringFlag{Name: "db-host", EnvVars: []string{"DB_HOST"}, Usage: "postgres host; empty keeps state in memory"},
		&cli.StringFlag{Name: "db-user", EnvVars: []string{"DB_USER"}, Value: "postgres"},
		&cli.StringFlag{Name: "db-password", EnvVars: []string{"DB_PASSWORD"}},
		&cli.StringFlag{Name: "db-name", EnvVars: []string{"DB_NAME"}, Value: "launchpad"},
		&cli.StringFlag{Name: "db-port", EnvVars: []string{"DB_PORT"}, Value: "5432"},
		&cli.StringFlag{Name: "migrations", EnvVars: []string{"MIGRATIONS_DIR"}, Value: "migrations", Usage: "directory of SQL migrations"},
	}

	RabbitMQFlags = []cli.Flag{
		&cli.StringFlag{Name: "rabbitmq-host", EnvVars: []string{"RABBITMQ_HOST"}, Usage: "empty disables event publishing"},
		&cli.StringFlag{Name: "rabbitmq-user", EnvVars: []string{"RABBITMQ_USER"}, Value: "guest"},
		&cli.StringFlag{Name: "rabbitmq-password", EnvVars: []string{"RABBITMQ_PASSWORD"}, Value: "guest"},
		&cli.StringFlag{Name: "rabbitmq-port", EnvVars: []string{"RABBITMQ_PORT"}, Value: "5672"},
	}

	LaunchpadFlags = []cli.Flag{
		&cli.BoolFlag{Name: "test-mode", EnvVars: []string{"LAUNCHPAD_TEST_MODE"}, Usage: "enable test clock, test oracle prices and airdrops"},
		&cli.Uint64Flag{Name: "fee-base-lamports", EnvVars: []string{"LAUNCHPAD_FEE_BASE_LAMPORTS"}, Value: 1_000_000_000},
		&cli.StringFlag{Name: "solana-rpc", EnvVars: []string{"SOLANA_RPC"}, Usage: "RPC endpoint for pyth oracle accounts"},
	}

	HTTPFlags = []cli.Flag{
		&cli.StringFlag{Name: "port", EnvVars: []string{"PORT"}, Value: "8080"},
		&cli.StringSliceFlag{Name: "allowed-origins", EnvVars: []string{"ALLOWED_ORIGINS"}},
		&cli.Float64Flag{Name: "bid-rate-limit", EnvVars: []string{"BID_RATE_LIMIT_RPS"}, Value: 5},
		&cli.IntFlag{Name: "bid-rate-burst", EnvVars: []string{"BID_RATE_LIMIT_BURST"}, Value: 10},
	}

	CommonFlags = []cli.Flag{
		&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: "info"},
		&cli.StringFlag{Name: "keystore", EnvVars: []string{"KEYSTORE_DIR"}, Value: "keystore"},
	}
)

// Flags joins flag groups into one list for a cli.App
func Flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// FromContext reads Settings; flags a binary did not declare come back as zero values
func FromContext(c *cli.Context) Settings {
	return Settings{
		DB: DBSettings{
			Host:     c.String("db-host"),
			User:     c.String("db-user"),
			Password: c.String("db-password"),
			Name:     c.String("db-name"),
			Port:     c.String("db-port"),
		},
		RabbitMQ: RabbitMQSettings{
			Host:     c.String("rabbitmq-host"),
			User:     c.String("rabbitmq-user"),
			Password: c.String("rabbitmq-password"),
			Port:     c.String("rabbitmq-port"),
		},
		Port:            c.String("port"),
		AllowedOrigins:  splitOrigins(c.StringSlice("allowed-origins")),
		TestMode:        c.Bool("test-mode"),
		FeeBaseLamports: c.Uint64("fee-base-lamports"),
		SolanaRPC:       c.String("solana-rpc"),
		BidRateLimit:    c.Float64("bid-rate-limit"),
		BidRateBurst:    c.Int("bid-rate-burst"),
		KeystoreDir:     c.String("keystore"),
		MigrationsDir:   c.String("migrations"),
		LogLevel:        c.String("log-level"),
	}
}

func splitOrigins(values []string) []string {
	var out []string
	for _, v := range values {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// InitLogger sets the global logrus level and formatter
func InitLogger(level string, json bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
