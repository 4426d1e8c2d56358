package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xYaper/Portal/internal/config"
	"github.com/0xYaper/Portal/internal/interface/rest"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const appName = "portald"

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "cross-ledger asset bridge daemon"
	app.Flags = config.Flags
	app.Action = daemonAction

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func daemonAction(c *cli.Context) error {
	cfg, err := config.LoadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	log.Infof("%s config: %s", appName, cfg)

	svc, err := cfg.BridgeService()
	if err != nil {
		return fmt.Errorf("failed to create bridge service: %s", err)
	}

	srv := rest.NewServer(cfg.Port, cfg.AdminToken, svc)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start bridge service: %s", err)
	}
	cfg.TransportHub().Start()
	if err := srv.Start(); err != nil {
		svc.Stop()
		return fmt.Errorf("failed to start server: %s", err)
	}
	log.Infof("%s listens on: %d", appName, cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)
	<-sigChan

	log.Info("shutting down service...")
	srv.Stop()
	cfg.TransportHub().Stop()
	svc.Stop()
	return nil
}
