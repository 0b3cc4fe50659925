package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"parley/internal/app"
	"parley/pkg/api"
	"parley/pkg/banner"
	"parley/pkg/config"
	"parley/pkg/logger"
	"parley/pkg/shutdown"
	"parley/pkg/state"
	"parley/pkg/store"
	"parley/pkg/validation"
)

func main() {
	// build metadata - set via ldflags during build/release
	var (
		version   = "dev"
		commit    = "none"
		buildDate = "unknown"
	)
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	// Resolve config path (file flag wins over env)
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	// Load effective config (file + env); flags win over config/env when
	// explicitly provided by the user.
	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	var addr string
	var dbPath string
	if !setFlags["addr"] {
		addr = cfg.Addr()
	} else {
		addr = addrVal
	}
	if !setFlags["db"] {
		if p := cfg.Storage.DBPath; p != "" {
			dbPath = p
		} else {
			dbPath = dbVal
		}
	} else {
		dbPath = dbVal
	}

	if cfg.Logging.Format != "" {
		os.Setenv("PARLEY_LOG_FORMAT", cfg.Logging.Format)
	}
	logger.InitWithLevel(cfg.Logging.Level)

	if err := state.Init(dbPath); err != nil {
		log.Fatalf("failed to init state dirs under %s: %v", dbPath, err)
	}

	// Validation rules; an absent config section keeps the defaults.
	vr := validation.Rules{
		RequireBody: cfg.Validation.RequireBody,
		MaxBodyLen:  cfg.Validation.MaxBodyLen,
	}
	if !vr.RequireBody && vr.MaxBodyLen == 0 {
		vr.RequireBody = true
	}
	validation.SetRules(vr)

	if err := store.Open(dbPath); err != nil {
		log.Fatalf("failed to open pebble at %s: %v", dbPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	session, err := app.Build(ctx, cfg)
	if err != nil {
		cancel()
		_ = store.Close()
		shutdown.Abort("session build failed", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String())
		cancel()
		session.Shutdown()
		_ = store.Close()
		os.Exit(0)
	}()

	// config sources summary for the banner
	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr = verStr + " @ " + buildDate
	}
	banner.Print(addr, dbPath, cfg.Chat.Self, cfg.Transport.URL, strings.Join(srcs, ", "), verStr)

	mux := http.NewServeMux()
	mux.Handle("/", api.Handler(session.Registry))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	var errServe error
	if cert != "" && key != "" {
		errServe = http.ListenAndServeTLS(addr, cert, key, mux)
	} else {
		errServe = http.ListenAndServe(addr, mux)
	}
	if errServe != nil {
		log.Fatal(errServe)
	}
}
