package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/subosito/gotenv"

	"github.com/caixinha-dev/caixinha/pkg/config"
	"github.com/caixinha-dev/caixinha/pkg/importer"
	"github.com/caixinha-dev/caixinha/pkg/server"
	"github.com/caixinha-dev/caixinha/pkg/store"
)

func main() {
	_ = gotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "caixinha",
	})

	cfgFile := flag.String("config", "", "Config file (default is config.yaml)")
	flag.Parse()

	cfg, err := config.Build(*cfgFile, nil)
	if err != nil {
		logger.Fatal("config error", "err", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	st, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database error", "err", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		logger.Fatal("migration error", "err", err)
	}

	imp := importer.New(st, st, logger)
	srv := server.New(cfg, imp, logger)

	logger.Info("starting server", "addr", cfg.ListenAddr)
	if err := srv.Start(cfg.ListenAddr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
