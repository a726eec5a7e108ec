package main

import (
	"context"
	"os"

	"github.com/iTrooz/proximate/internal/admin"
	"github.com/iTrooz/proximate/internal/cache/factory"
	"github.com/iTrooz/proximate/internal/config"
	"github.com/iTrooz/proximate/internal/proxy"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := logrus.ParseLevel(cfg.Log.Level)
	logrus.SetLevel(level)

	store, closer, err := factory.Open(context.Background(), cfg.Cache)
	if err != nil {
		logrus.Fatalf("Failed to open cache: %v", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logrus.Errorf("Failed to close cache: %v", err)
		}
	}()

	if cfg.Admin.Port > 0 {
		adminServer := admin.New(store.Adapter)
		go func() {
			if err := adminServer.Start(cfg.Admin.Port); err != nil {
				logrus.Errorf("Admin API failed: %v", err)
			}
		}()
	}

	server, err := proxy.New(cfg, store)
	if err != nil {
		logrus.Fatalf("Failed to create proxy server: %v", err)
	}

	if err := server.Start(); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}
