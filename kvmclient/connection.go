package kvmclient

import (
	"context"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/sirupsen/logrus"
)

// runConnection drives one connected session's datagram and special
// channel loops until either exits, then cancels and closes the session
// to tear down the other before returning whichever error ended the
// connection (nil on a clean, context-driven shutdown).
func runConnection(ctx context.Context, sess *session, output devio.Output) error {
	logger := logrus.WithFields(logrus.Fields{"function": "runConnection", "package": "kvmclient"})

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	releaseRequest := make(chan struct{}, 1)
	datagramErr := make(chan error, 1)
	specialErr := make(chan error, 1)

	go func() { datagramErr <- runDatagramLoop(connCtx, sess.datagram, output, releaseRequest) }()
	go func() { specialErr <- runSpecialChannel(connCtx, sess.reliable, releaseRequest) }()

	var err error
	var drainDatagram, drainSpecial bool
	select {
	case err = <-datagramErr:
		logger.WithError(err).Debug("datagram loop exited first")
		drainSpecial = true
	case err = <-specialErr:
		logger.WithError(err).Debug("special channel exited first")
		drainDatagram = true
	}

	cancel()
	sess.Close()

	if drainDatagram {
		<-datagramErr
	}
	if drainSpecial {
		<-specialErr
	}

	return err
}
