// Package main implements the kvm-server host process: it listens for
// clients over TCP and UDP on the same address, captures the local
// keyboard and mouse, and forwards input to whichever endpoint currently
// holds the target (the server itself or one of the connected clients).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/sirupsen/logrus"
)

// CLIConfig holds command-line configuration for the server process.
type CLIConfig struct {
	addr     string
	logLevel string
	help     bool
}

// parseCLIFlags parses command-line flags and returns the configuration.
// Network flags: -addr
// Logging flags: -log-level
// Help flag: -help
func parseCLIFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.addr, "addr", "0.0.0.0:7890", "listen address (TCP control channel and UDP datagram channel)")
	flag.StringVar(&config.logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flag.BoolVar(&config.help, "help", false, "show help message")

	flag.Parse()
	return config
}

// printUsage prints the usage information.
func printUsage() {
	fmt.Println("virtualkvm server")
	fmt.Println("=================")
	fmt.Println()
	fmt.Println("Captures the local keyboard and mouse and forwards input to whichever")
	fmt.Println("connected client currently holds the target, cycled with")
	fmt.Println("Left-Ctrl + Left-Shift + H.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options]\n", os.Args[0])
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
	if config.addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if !validLogLevels[config.logLevel] {
		return fmt.Errorf("invalid log level %q: must be one of DEBUG, INFO, WARN, ERROR", config.logLevel)
	}
	return nil
}

// setupSignalHandling arranges for an interrupt signal to cancel ctx,
// giving the server a chance to shut down its listeners and connections
// cleanly.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		sig := <-sigChan
		logrus.WithFields(logrus.Fields{"signal": sig.String()}).Info("received interrupt signal, shutting down")
		cancel()
	}()
}

// selectDevices prompts interactively for which keyboard and mouse to
// capture. Real OS device backends are out of scope for this module (see
// devio); the prompt still runs so the runtime surface matches a deployed
// host, but it always resolves to the no-op capture device.
func selectDevices() (*devio.NullInput, *devio.NullOutput) {
	fmt.Println("Select keyboard and mouse to capture:")
	fmt.Println("  [1] (no physical device backend compiled in)")
	fmt.Print("> ")

	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')

	return devio.NewNullInput(devio.DefaultInputBuffer), devio.NewNullOutput()
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

	input, output := selectDevices()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	server := NewServer(cliConfig.addr, input, output)
	if err := server.Run(ctx); err != nil {
		logrus.WithError(err).WithField("addr", cliConfig.addr).Error("server failed")
		return 1
	}

	logrus.Info("server shut down")
	return 0
}
