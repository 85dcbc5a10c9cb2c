package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/hostpulse/vitals-agent/config"
	"github.com/hostpulse/vitals-agent/internal/collector"
	"github.com/hostpulse/vitals-agent/internal/server"
	"github.com/hostpulse/vitals-agent/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The store performs the first collection on construction; that pass
	// seeds the rate-engine baselines and cannot yet carry usage values.
	st := store.New(collector.New(collector.Options{
		StoragePath:     cfg.StoragePath,
		PowerSupplyRoot: cfg.PowerSupplyRoot,
		DRMRoot:         cfg.DRMRoot,
		ACPIRoot:        cfg.ACPIRoot,
		CPUFreqRoot:     cfg.CPUFreqRoot,
		EnableBattery:   cfg.BatteryEnabled,
		EnableGPU:       cfg.GPUEnabled,
	}), cfg.PollInterval)

	go st.Run(ctx)

	// Signal readiness to systemd; a no-op outside of it
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("sd_notify failed: %v", err)
	}

	srv := server.New(cfg, st)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
