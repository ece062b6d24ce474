package main

import (
	"context"
	"fmt"
	"os"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/app"
	"github.com/deevus/ragdeck-tui/config"
	"github.com/deevus/ragdeck-tui/internal"
	"github.com/deevus/ragdeck-tui/internal/logging"
	flag "github.com/spf13/pflag"
)

func main() {
	serverFlag := flag.StringP("server", "s", "", "server profile name from config")
	configFlag := flag.StringP("config", "c", config.DefaultPath(), "path to config file")
	levelFlag := flag.String("log-level", "", "log level (debug, info, warn, error); overrides the config")
	flag.Parse()

	if err := run(*serverFlag, *configFlag, *levelFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverName, configPath, level string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}

	if serverName == "" {
		names := cfg.ServerNames()
		if len(names) != 1 {
			return fmt.Errorf("multiple servers configured, use --server (available: %v)", names)
		}
		serverName = names[0]
	}
	serverCfg, ok := cfg.Servers[serverName]
	if !ok {
		return fmt.Errorf("server %q not found in config", serverName)
	}

	if level == "" {
		level = cfg.Log.Level
	}
	logger, closeLog, err := logging.Open(cfg.Log.Path, level)
	if err != nil {
		return err
	}
	defer closeLog()
	logger = logger.With("server", serverName)

	client, err := api.NewClient(api.ClientParams{
		BaseURL:            serverCfg.BaseURL,
		APIKey:             serverCfg.APIKey,
		RequestsPerSecond:  serverCfg.RequestsPerSecond,
		InsecureSkipVerify: serverCfg.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("server %q: %w", serverName, err)
	}
	if serverCfg.Owner == "" {
		logger.Warn("no owner configured, pages will poll instead of listening for events")
	}

	root := app.New(app.Params{
		ServerName: serverName,
		StaleTTL:   cfg.Refresh.StaleTTL,
		Refresh:    cfg.Refresh,
		Logger:     logger,
		Connect: func(ctx context.Context) (*internal.Services, error) {
			if err := client.Ping(ctx); err != nil {
				return nil, fmt.Errorf("connecting to %s: %w", client.BaseURL(), err)
			}
			logger.Info("connected", "url", client.BaseURL())
			return internal.FromClient(client, serverCfg.Owner), nil
		},
	})
	defer root.Close()

	vxApp, err := vxfw.NewApp(vaxis.Options{})
	if err != nil {
		return err
	}
	root.SetPostEvent(vxApp.PostEvent)

	return vxApp.Run(root)
}
