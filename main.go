package main

import (
	"context"
	"log"
)

// Entry point for the parking gate controller.
func main() {
	cfg, err := LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger, err := NewEventLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("initialisation error: %v", err)
	}
	initMetrics()

	hw, err := initHardware(cfg, logger)
	if err != nil {
		log.Fatalf("initialisation error: %v", err)
	}
	ranger, err := openRangeFinder(cfg, hw, logger)
	if err != nil {
		log.Fatalf("initialisation error: %v", err)
	}
	gate := NewGate(NewServo(hw.Servo, cfg.Gate.MinPulse, cfg.Gate.MaxPulse), cfg.Gate, logger)
	classifier := NewClassifier(ranger, hw.IR, cfg.Range.ThresholdCM, logger)
	ctrl := NewController(classifier, gate, cfg.SampleInterval, logger)
	ctrl.Init()

	// There is no shutdown path; the process runs until power loss or reset.
	ctx := context.Background()
	ip, err := waitForNetwork(ctx, cfg.Network, nil, logger)
	if err != nil {
		log.Fatalf("network: %v", err)
	}
	log.Printf("Connected, IP address: %s\n", ip)

	ctrl.AddNotifier(initNotifiers(ctx, cfg, logger)...)
	go func() {
		log.Fatalf("control loop exited: %v", ctrl.Run(ctx))
	}()

	server := NewServer(ctrl, cfg.HTTPPort, logger)
	if err := server.Start(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
