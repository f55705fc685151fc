package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/vlink/internal/channel"
	"github.com/danmuck/vlink/internal/config"
	"github.com/danmuck/vlink/internal/logging"
	"github.com/danmuck/vlink/internal/protocol/sendtype"
	"github.com/danmuck/vlink/internal/telemetry"

	"github.com/rs/zerolog/log"
)

const statsInterval = 5 * time.Second

func main() {
	logging.ConfigureRuntime()

	configPath := flag.String("config", "vlink.toml", "path to channel configuration TOML file")
	asServer := flag.Bool("server", false, "run as the binding (server) side, overriding the config file")
	asClient := flag.Bool("client", false, "run as the connecting (client) side, overriding the config file")
	flag.Parse()

	fileCfg, err := config.LoadChannelConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("vlinkctl: failed to load config")
	}
	if *asServer {
		fileCfg.IsServer = true
	}
	if *asClient {
		fileCfg.IsServer = false
	}

	if err := run(fileCfg); err != nil {
		log.Fatal().Err(err).Msg("vlinkctl: exiting")
	}
}

func run(fileCfg config.ChannelConfig) error {
	sendType, err := sendtype.Parse(fileCfg.SendType)
	if err != nil {
		return fmt.Errorf("vlinkctl: %w", err)
	}

	cfg := channel.DefaultConfig()
	cfg.LocalMaxAge = durationFromSeconds(fileCfg.MaxAgeSeconds)
	cfg.DelayTracking = fileCfg.DelayTracking
	cfg.SendType = sendType
	cfg.SocketTimeout = durationFromSeconds(fileCfg.SocketTimeoutSec)
	cfg.HandshakeTimeout = durationFromSeconds(fileCfg.HandshakeTimeoutS)
	cfg.DebugEnabled = fileCfg.DebugEnabled
	cfg.CleanupPort = fileCfg.TCPPort

	ch := channel.New(cfg)
	telemetry.Register()
	role := "client"
	if fileCfg.IsServer {
		role = "server"
	}
	ch.AttachTelemetry(role)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ch.Setup(ctx, fileCfg.Host, fileCfg.Port, fileCfg.NumInputs, fileCfg.NumOutputs, fileCfg.IsServer); err != nil {
		return fmt.Errorf("vlinkctl: setup: %w", err)
	}
	defer ch.Close()

	if err := ch.Handshake(cfg.HandshakeTimeout); err != nil {
		return fmt.Errorf("vlinkctl: handshake: %w", err)
	}
	if err := ch.Start(); err != nil {
		return fmt.Errorf("vlinkctl: start: %w", err)
	}

	log.Info().
		Str("role", role).
		Int("expected_recv_packet_size", ch.GetExpectedRecvPacketSize()).
		Msg("vlinkctl: running")

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("vlinkctl: shutdown requested")
			return nil
		case <-ticker.C:
			ch.PrintPacketStats()
			ch.PrintDelayStats()
		}
	}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
