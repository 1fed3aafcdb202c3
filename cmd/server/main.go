package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/himanishpuri/Songle/internal/config"
	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/songle"
	"github.com/himanishpuri/Songle/pkg/songle/metrics"
)

var (
	configFile string
	port       int
)

func init() {
	flag.StringVar(&configFile, "config", "", "Path to config file (default: ./config.yaml if present)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if lvl, ok := logger.ParseLevel(cfg.Log.Level); ok && os.Getenv("LOG_LEVEL") == "" {
		log.SetLevel(lvl)
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if cfg.Server.PrivateKey == "" {
		log.Warnf("No server.private_key configured, dashboard routes are disabled")
	}

	opts, err := cfg.ServiceOptions()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	service, err := songle.NewService(append(opts, songle.WithLogger(log))...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	if cfg.Server.Metrics {
		metrics.Register()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go service.Run(ctx)

	server := NewServer(service, &ServerConfig{
		Port:       cfg.Server.Port,
		PrivateKey: cfg.Server.PrivateKey,
		Metrics:    cfg.Server.Metrics,
	})
	if err := server.Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
	}
}
