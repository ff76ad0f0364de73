// Package main implements the kvm-client process: it dials a kvm-server
// host, completes the session handshake, and emits every input event it
// receives to the local keyboard and mouse, reconnecting with backoff if
// the connection drops.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/opd-ai/virtualkvm/kvmclient"
	"github.com/sirupsen/logrus"
)

// CLIConfig holds command-line configuration for the client process.
type CLIConfig struct {
	serverAddr string
	clientAddr string
	logLevel   string
	help       bool
}

// parseCLIFlags parses command-line flags and returns the configuration.
// Network flags: -server, -addr
// Logging flags: -log-level
// Help flag: -help
func parseCLIFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.serverAddr, "server", "", "server address (host:port) to connect to")
	flag.StringVar(&config.clientAddr, "addr", "0.0.0.0:7891", "this client's datagram bind address, reported to the server")
	flag.StringVar(&config.logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flag.BoolVar(&config.help, "help", false, "show help message")

	flag.Parse()
	return config
}

// printUsage prints the usage information.
func printUsage() {
	fmt.Println("virtualkvm client")
	fmt.Println("=================")
	fmt.Println()
	fmt.Println("Connects to a virtualkvm server and synthesizes every input event it")
	fmt.Println("receives while this client holds the target.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s -server <host:port> [options]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// validateCLIConfig validates the CLI configuration.
func validateCLIConfig(config *CLIConfig) error {
	if config.serverAddr == "" {
		return fmt.Errorf("server address is required (-server host:port)")
	}
	if config.clientAddr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if !validLogLevels[config.logLevel] {
		return fmt.Errorf("invalid log level %q: must be one of DEBUG, INFO, WARN, ERROR", config.logLevel)
	}
	return nil
}

// setupSignalHandling arranges for an interrupt signal to cancel ctx.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		sig := <-sigChan
		logrus.WithFields(logrus.Fields{"signal": sig.String()}).Info("received interrupt signal, shutting down")
		cancel()
	}()
}

func main() {
	os.Exit(run())
}

// run executes the main application logic and returns an exit code.
func run() int {
	cliConfig := parseCLIFlags()

	if cliConfig.help {
		printUsage()
		return 0
	}

	if err := validateCLIConfig(cliConfig); err != nil {
		logrus.WithError(err).Error("configuration error")
		fmt.Fprintln(os.Stderr, "Use -help for usage information.")
		return 1
	}

	level, err := logrus.ParseLevel(cliConfig.logLevel)
	if err != nil {
		logrus.WithError(err).Error("invalid log level")
		return 1
	}
	logrus.SetLevel(level)

	output := devio.NewNullOutput()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	supervisor := kvmclient.NewSupervisor(cliConfig.serverAddr, cliConfig.clientAddr, output)
	if err := supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("client failed")
		return 1
	}

	logrus.Info("client shut down")
	return 0
}
