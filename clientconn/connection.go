package clientconn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

const (
	// heartbeatInterval matches both sides of the connection, so a
	// silent failure is detected within a small, bounded number of
	// intervals rather than relying on TCP keepalive timings.
	heartbeatInterval = 3 * time.Second

	// maxHeartbeatFailures is the number of consecutive failed sends
	// (heartbeat or otherwise) before the writer gives up on this
	// client.
	maxHeartbeatFailures = 3

	// OutboundQueueCapacity bounds the per-client outbound message
	// queue, applying backpressure to whatever is driving the registry
	// if a client's writer falls behind.
	OutboundQueueCapacity = 256
)

// Inbound tags a message received from a client with the id assigned to
// it at handshake completion, for the shared processor to route.
type Inbound struct {
	ClientID uuid.UUID
	Message  wire.Message
}

// Connection owns one client's split reliable-channel halves and runs
// its reader and writer loops until either fails, the connection is
// closed, or ctx is cancelled.
type Connection struct {
	id     uuid.UUID
	reader *transport.ReliableReader
	writer *transport.ReliableWriter

	outbound   chan wire.Message
	inbound    chan<- Inbound
	disconnect chan<- uuid.UUID
}

// New constructs a Connection for client id. inbound receives every
// message the client sends, tagged with id; disconnect receives id
// exactly once if this connection's reader or writer gives up.
func New(id uuid.UUID, reader *transport.ReliableReader, writer *transport.ReliableWriter, inbound chan<- Inbound, disconnect chan<- uuid.UUID) *Connection {
	return &Connection{
		id:         id,
		reader:     reader,
		writer:     writer,
		outbound:   make(chan wire.Message, OutboundQueueCapacity),
		inbound:    inbound,
		disconnect: disconnect,
	}
}

// Outbound returns the channel other components (the state registry, in
// practice) use to enqueue a message for this client's writer.
func (c *Connection) Outbound() chan<- wire.Message {
	return c.outbound
}

// Run drives the reader and writer loops until one of them exits, then
// tears down the other by closing the underlying connection and
// returns. Cancelling ctx also triggers shutdown.
func (c *Connection) Run(ctx context.Context) {
	logger := logrus.WithFields(logrus.Fields{
		"function": "Connection.Run", "package": "clientconn", "client_id": c.id,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		c.readLoop(ctx)
		close(readerDone)
	}()
	go func() {
		c.writeLoop(ctx)
		close(writerDone)
	}()

	select {
	case <-readerDone:
		logger.Debug("reader loop exited, tearing down writer")
	case <-writerDone:
		logger.Debug("writer loop exited, tearing down reader")
	case <-ctx.Done():
		logger.Debug("context cancelled, tearing down connection")
	}

	// Cancelling unblocks the writer's select; closing the connection
	// unblocks a reader parked in Receive.
	cancel()
	_ = c.writer.Close()
	<-readerDone
	<-writerDone
}

func (c *Connection) readLoop(ctx context.Context) {
	logger := logrus.WithFields(logrus.Fields{
		"function": "Connection.readLoop", "package": "clientconn", "client_id": c.id,
	})

	for {
		msg, err := c.reader.Receive()
		if err != nil {
			if !errors.Is(err, transport.ErrConnectionClosed) {
				logger.WithError(err).Warn("reliable-channel read failed")
			}
			c.notifyDisconnect(ctx)
			return
		}

		select {
		case c.inbound <- Inbound{ClientID: c.id, Message: msg}:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connection) writeLoop(ctx context.Context) {
	logger := logrus.WithFields(logrus.Fields{
		"function": "Connection.writeLoop", "package": "clientconn", "client_id": c.id,
	})

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	failCount := 0
	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				return
			}
			if !c.handleSendResult(c.writer.Send(msg), &failCount, logger) {
				c.notifyDisconnect(ctx)
				return
			}
		case <-ticker.C:
			if !c.handleSendResult(c.writer.Send(wire.Heartbeat{}), &failCount, logger) {
				c.notifyDisconnect(ctx)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleSendResult updates failCount (reset on any successful send, not
// just heartbeats) and reports whether the writer loop should continue.
func (c *Connection) handleSendResult(err error, failCount *int, logger *logrus.Entry) bool {
	if err != nil {
		*failCount++
		logger.WithError(err).WithField("fail_count", *failCount).Warn("failed send on reliable channel")
		return *failCount < maxHeartbeatFailures
	}
	*failCount = 0
	return true
}

// notifyDisconnect reports this client's id on the disconnect channel.
// The send blocks until the consumer has room; losing a disconnect would
// leave the registry believing the client is still connected, so only
// shutdown may skip it.
func (c *Connection) notifyDisconnect(ctx context.Context) {
	select {
	case c.disconnect <- c.id:
	case <-ctx.Done():
	}
}
