package kvmclient

import (
	"context"
	"time"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/sirupsen/logrus"
)

const (
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 180 * time.Second
	retryMultiplier   = 2
)

// Supervisor repeatedly dials a server, runs one connection to
// completion, and reconnects with exponential backoff (reset on every
// successful connection) until ctx is cancelled.
type Supervisor struct {
	ServerAddr string
	ClientAddr string
	Output     devio.Output
}

// NewSupervisor returns a Supervisor that connects output to whatever
// server is listening at serverAddr, announcing clientAddr as this
// client's datagram endpoint.
func NewSupervisor(serverAddr, clientAddr string, output devio.Output) *Supervisor {
	return &Supervisor{ServerAddr: serverAddr, ClientAddr: clientAddr, Output: output}
}

// Run blocks until ctx is cancelled, reconnecting for as long as needed.
func (s *Supervisor) Run(ctx context.Context) error {
	logger := logrus.WithFields(logrus.Fields{"function": "Supervisor.Run", "package": "kvmclient"})

	retryDelay := initialRetryDelay
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sess, err := dial(s.ServerAddr, s.ClientAddr)
		if err != nil {
			logger.WithError(err).WithField("retry_in", retryDelay).Warn("could not connect to server")
			if !sleepOrDone(ctx, retryDelay) {
				return ctx.Err()
			}
			retryDelay = nextRetryDelay(retryDelay)
			continue
		}

		retryDelay = initialRetryDelay
		logger.Info("connected to server")

		if err := runConnection(ctx, sess, s.Output); err != nil {
			logger.WithError(err).Warn("connection ended with error")
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func nextRetryDelay(current time.Duration) time.Duration {
	next := current * retryMultiplier
	if next > maxRetryDelay {
		return maxRetryDelay
	}
	return next
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
