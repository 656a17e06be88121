package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AndersHogqvist/BTCommunicator/server"
	"github.com/AndersHogqvist/BTCommunicator/session"
	"github.com/AndersHogqvist/BTCommunicator/transport"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		listenAddr   string
		deviceName   string
		channel      uint8
		serialPort   string
		baudRate     int
		pingInterval time.Duration
		resendCount  int
		resendDelay  time.Duration
		noReset      bool
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:          "btcommd",
		Short:        "Daemon bridging SerialCommand peripherals to HTTP and WebSocket clients",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

			var discoverer transport.Discoverer
			if serialPort != "" {
				discoverer = &transport.SerialDiscoverer{Path: serialPort, BaudRate: baudRate}
			} else {
				discoverer, err = transport.NewBluezDiscoverer(channel)
				if err != nil {
					return err
				}
			}

			sess := session.New(discoverer, session.Options{
				DeviceName:   deviceName,
				DisableReset: noReset,
				PingInterval: pingInterval,
				ResendCount:  resendCount,
				ResendDelay:  resendDelay,
			})
			defer sess.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(sess, version)
			return srv.Run(ctx, listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&deviceName, "device", "HC-06", "paired Bluetooth device name")
	cmd.Flags().Uint8Var(&channel, "channel", transport.DefaultRFCOMMChannel, "RFCOMM channel")
	cmd.Flags().StringVar(&serialPort, "serial-port", "", "use a local serial port instead of Bluetooth")
	cmd.Flags().IntVar(&baudRate, "baud", transport.DefaultBaudRate, "serial baud rate")
	cmd.Flags().DurationVar(&pingInterval, "ping-interval", 10*time.Second, "default keepalive interval")
	cmd.Flags().IntVar(&resendCount, "resend-count", 3, "configured send try count")
	cmd.Flags().DurationVar(&resendDelay, "resend-delay", 300*time.Millisecond, "delay between failed write attempts")
	cmd.Flags().BoolVar(&noReset, "no-reset", false, "skip the reset command after connecting")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	return cmd
}
