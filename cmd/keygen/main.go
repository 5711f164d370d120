package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"launchpad/internal/middleware"
	"launchpad/pkg/config"
	lpsolana "launchpad/pkg/solana"
)

var passwordFlag = &cli.StringFlag{
	Name:     "password",
	EnvVars:  []string{"KEYSTORE_PASSWORD"},
	Required: true,
}

func main() {
	app := &cli.App{
		Name:  "launchpad-keygen",
		Usage: "manage signer keys and sign API requests",
		Flags: config.CommonFlags,
		Before: func(c *cli.Context) error {
			return config.InitLogger(c.String("log-level"), false)
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "create a key pair and store it encrypted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "label", Usage: "free-form note kept with the key"},
					passwordFlag,
				},
				Action: generate,
			},
			{
				Name:   "list",
				Usage:  "list stored addresses",
				Action: list,
			},
			{
				Name:  "sign",
				Usage: "print signer headers for a request body",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "address", Required: true},
					&cli.StringFlag{Name: "body", Value: "-", Usage: "file holding the JSON body, - for stdin"},
					passwordFlag,
				},
				Action: sign,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func keyManager(c *cli.Context) *lpsolana.KeyManager {
	return lpsolana.NewKeyManager(c.String("keystore"))
}

func generate(c *cli.Context) error {
	km := keyManager(c)
	account, err := km.GenerateKeyPair()
	if err != nil {
		return err
	}
	path, err := km.SaveKeyStoreEntry(account, c.String("label"), c.String("password"))
	if err != nil {
		return err
	}
	log.WithField("path", path).Info("key stored")
	fmt.Println(account.PublicKey.ToBase58())
	return nil
}

func list(c *cli.Context) error {
	addresses, err := keyManager(c).List()
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return errors.New("no keys in " + c.String("keystore"))
	}
	for _, a := range addresses {
		fmt.Println(a)
	}
	return nil
}

func sign(c *cli.Context) error {
	account, err := keyManager(c).LoadKeyStoreEntry(c.String("address"), c.String("password"))
	if err != nil {
		return err
	}
	var body []byte
	if name := c.String("body"); name == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(name)
	}
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	fmt.Printf("%s: %s\n", middleware.HeaderSigner, account.PublicKey.ToBase58())
	fmt.Printf("%s: %s\n", middleware.HeaderTimestamp, ts)
	fmt.Printf("%s: %s\n", middleware.HeaderSignature, lpsolana.SignMessage(account, middleware.SignedMessage(ts, body)))
	return nil
}
