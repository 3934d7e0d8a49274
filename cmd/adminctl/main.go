package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/Freeeeeet/schedule_registrations/internal/apiclient"
	"github.com/Freeeeeet/schedule_registrations/internal/app"
	"github.com/Freeeeeet/schedule_registrations/internal/config"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(os.Getenv("ENV"), "adminctl")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := apiclient.New(cfg.APIURL, apiclient.NewFileTokenStore(cfg.TokenFile), cfg.HTTPTimeout, logger)
	cli := newCommandLine(client, os.Stdin, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			log.Printf("error: %s", err)
		}
		stop()
		os.Exit(1)
	}
}
