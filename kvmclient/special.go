package kvmclient

import (
	"context"
	"errors"
	"time"

	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

const (
	heartbeatInterval     = 3 * time.Second
	outboundQueueCapacity = 8
)

// runSpecialChannel splits reliable into independent reader/writer loops:
// the reader acknowledges target changes (triggering releaseRequest so
// the datagram loop releases every held key) and logs clipboard
// notifications; the writer multiplexes queued acknowledgements against
// its own heartbeat. Either loop exiting tears down the other.
func runSpecialChannel(ctx context.Context, reliable *transport.Reliable, releaseRequest chan<- struct{}) error {
	reader, writer := reliable.Split()
	outbound := make(chan wire.Message, outboundQueueCapacity)

	readerErr := make(chan error, 1)
	writerErr := make(chan error, 1)

	go func() { readerErr <- runSpecialReader(ctx, reader, outbound, releaseRequest) }()
	go func() { writerErr <- runSpecialWriter(ctx, writer, outbound) }()

	var err error
	select {
	case err = <-readerErr:
	case err = <-writerErr:
	case <-ctx.Done():
	}

	_ = writer.Close()
	<-readerErr
	<-writerErr
	return err
}

func runSpecialReader(ctx context.Context, reader *transport.ReliableReader, outbound chan<- wire.Message, releaseRequest chan<- struct{}) error {
	logger := logrus.WithFields(logrus.Fields{"function": "runSpecialReader", "package": "kvmclient"})

	for {
		msg, err := reader.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrConnectionClosed) {
				return nil
			}
			return err
		}

		switch m := msg.(type) {
		case wire.ClipboardChanged:
			logger.WithField("length", len(m.Content)).Debug("received clipboard notification")
			// Clipboard synchronization itself is out of scope, but the
			// protocol still requires an acknowledgement reply; send back
			// an empty ClipboardChanged rather than inventing a tenth wire
			// variant for a dedicated ack.
			select {
			case outbound <- wire.ClipboardChanged{}:
			case <-ctx.Done():
				return nil
			}

		case wire.TargetChangeNotification:
			select {
			case releaseRequest <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			select {
			case outbound <- wire.TargetChangeResponse{}:
			case <-ctx.Done():
				return nil
			}

		case wire.Heartbeat:
			// liveness only

		default:
			logger.WithField("tag", msg.Tag()).Warn("received unexpected message on reliable channel")
		}
	}
}

func runSpecialWriter(ctx context.Context, writer *transport.ReliableWriter, outbound <-chan wire.Message) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-outbound:
			if !ok {
				return nil
			}
			if err := writer.Send(msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := writer.Send(wire.Heartbeat{}); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
