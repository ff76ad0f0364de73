package kvmclient

import (
	"context"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

type datagramResult struct {
	msg wire.Message
	err error
}

// runDatagramLoop replays every InputEvent received on datagram through
// output, until a receive fails (closing the session's datagram socket is
// what triggers this) or ctx is cancelled. releaseRequest fires once per
// target change, telling this client to release every key it believes is
// held before the new target starts sending events of its own.
func runDatagramLoop(ctx context.Context, datagram *transport.Datagram, output devio.Output, releaseRequest <-chan struct{}) error {
	logger := logrus.WithFields(logrus.Fields{"function": "runDatagramLoop", "package": "kvmclient"})

	results := make(chan datagramResult)
	go func() {
		for {
			msg, err := datagram.Receive()
			select {
			case results <- datagramResult{msg: msg, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case res := <-results:
			if res.err != nil {
				return res.err
			}
			event, ok := res.msg.(wire.InputEvent)
			if !ok {
				logger.WithField("tag", res.msg.Tag()).Warn("discarding non-input datagram message")
				continue
			}
			if err := output.Emit(event.Event); err != nil {
				return err
			}

		case <-releaseRequest:
			if err := output.ReleaseAll(); err != nil {
				return err
			}

		case <-ctx.Done():
			return output.ReleaseAll()
		}
	}
}
