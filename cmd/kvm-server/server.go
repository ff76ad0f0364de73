package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/opd-ai/virtualkvm/clientconn"
	"github.com/opd-ai/virtualkvm/device"
	"github.com/opd-ai/virtualkvm/devio"
	"github.com/opd-ai/virtualkvm/handshake"
	"github.com/opd-ai/virtualkvm/serverstate"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

// signalQueueCapacity and friends size the buffered channels joining the
// device actor, the per-client connections, and the registry. They are
// generous enough that a burst of input or a flurry of connects never
// blocks the capture loop under normal operation.
const (
	signalQueueCapacity      = 256
	grabRequestQueueCapacity = 8
	inboundQueueCapacity     = 256
	disconnectQueueCapacity  = 16
)

// Server owns every long-lived component of the host process: the client
// registry, the shared outbound datagram socket, the capture device
// actor, and the TCP listener that accepts new sessions.
type Server struct {
	addr     string
	registry *serverstate.Registry
	input    devio.Input
	output   devio.Output
}

// NewServer returns a Server that listens and sends on addr (used for
// both the TCP control channel and the UDP datagram channel), driving
// input and output.
func NewServer(addr string, input devio.Input, output devio.Output) *Server {
	return &Server{addr: addr, registry: serverstate.NewRegistry(), input: input, output: output}
}

// Run binds the TCP listener and UDP socket, starts the capture device
// and every supporting goroutine, and blocks until ctx is cancelled or a
// fatal initialization error occurs. A non-nil return always means
// initialization failed; a cancelled ctx yields nil.
func (s *Server) Run(ctx context.Context) error {
	logger := logrus.WithFields(logrus.Fields{"function": "Server.Run", "package": "main"})

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen tcp on %s: %w", s.addr, err)
	}
	defer listener.Close()

	udpConn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen udp on %s: %w", s.addr, err)
	}
	defer udpConn.Close()
	datagram := transport.NewDatagram(udpConn, nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	grabRequest := make(chan bool, grabRequestQueueCapacity)
	signals := make(chan device.Signal, signalQueueCapacity)
	inbound := make(chan clientconn.Inbound, inboundQueueCapacity)
	disconnect := make(chan uuid.UUID, disconnectQueueCapacity)

	deviceActor := device.New(s.input, s.output)

	go func() {
		if err := deviceActor.Run(ctx, signals, grabRequest); err != nil {
			logger.WithError(err).Warn("device actor exited")
		}
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	go s.acceptLoop(ctx, listener, inbound, disconnect)
	go s.signalLoop(ctx, datagram, signals, grabRequest)
	go s.inboundLoop(ctx, datagram, inbound)
	go s.disconnectLoop(ctx, grabRequest, disconnect)

	logger.WithField("addr", s.addr).Info("server listening")
	<-ctx.Done()
	return nil
}

// acceptLoop accepts TCP connections until ctx is cancelled (which closes
// listener), handshaking and registering each one on its own goroutine.
func (s *Server) acceptLoop(ctx context.Context, listener net.Listener, inbound chan<- clientconn.Inbound, disconnect chan<- uuid.UUID) {
	logger := logrus.WithFields(logrus.Fields{"function": "Server.acceptLoop", "package": "main"})

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Warn("accept failed")
			continue
		}
		go s.handleConnection(ctx, conn, inbound, disconnect)
	}
}

// handleConnection completes the handshake for one accepted connection,
// registers it in the registry, and runs its connection actor until it
// disconnects.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn, inbound chan<- clientconn.Inbound, disconnect chan<- uuid.UUID) {
	logger := logrus.WithFields(logrus.Fields{"function": "Server.handleConnection", "package": "main"})

	reliable := transport.NewReliable(conn)
	result, err := handshake.Accept(reliable)
	if err != nil {
		logger.WithError(err).Warn("handshake failed")
		reliable.Close()
		return
	}

	clientAddr, err := net.ResolveUDPAddr("udp", result.ClientAddr)
	if err != nil {
		logger.WithError(err).WithField("client_addr", result.ClientAddr).Warn("could not resolve client datagram address")
		reliable.Close()
		return
	}

	id := uuid.New()
	reader, writer := reliable.Split()
	conn2 := clientconn.New(id, reader, writer, inbound, disconnect)

	client := serverstate.NewClient(id, clientAddr, result.Key, conn2.Outbound())
	idx := s.registry.AddClient(client)

	logger.WithFields(logrus.Fields{"client_id": id, "index": idx, "client_addr": result.ClientAddr}).Info("client connected")

	conn2.Run(ctx)
}

// signalLoop consumes captured input events and hotkey signals from the
// device actor, routing input to the current target over datagram and
// advancing the target on a cycle request.
func (s *Server) signalLoop(ctx context.Context, datagram *transport.Datagram, signals <-chan device.Signal, grabRequest chan<- bool) {
	logger := logrus.WithFields(logrus.Fields{"function": "Server.signalLoop", "package": "main"})

	send := func(c *serverstate.Client, msg wire.Message) error {
		return datagram.SendTo(c.Addr, c.Key, msg)
	}

	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return
			}
			switch event := sig.(type) {
			case device.InputCaptured:
				if err := s.registry.RouteInputEvent(wire.InputEvent{Event: event.Event}, send); err != nil {
					logger.WithError(err).Warn("failed to route input event")
				}
			case device.CycleRequested:
				if err := s.registry.CycleTarget(grabRequest); err != nil {
					logger.WithError(err).Warn("failed to cycle target")
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// disconnectLoop marks clients disconnected as their connection actors
// give up, cycling the target back to the server if the disconnecting
// client was it.
func (s *Server) disconnectLoop(ctx context.Context, grabRequest chan<- bool, disconnect <-chan uuid.UUID) {
	logger := logrus.WithFields(logrus.Fields{"function": "Server.disconnectLoop", "package": "main"})

	for {
		select {
		case id, ok := <-disconnect:
			if !ok {
				return
			}
			if err := s.registry.DisconnectClient(id, grabRequest); err != nil && !errors.Is(err, serverstate.ErrClientNotFound) {
				logger.WithError(err).WithField("client_id", id).Warn("disconnect handling failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// inboundLoop consumes every message received on any client's reliable
// channel and acts on the handful this server recognizes.
func (s *Server) inboundLoop(ctx context.Context, datagram *transport.Datagram, inbound <-chan clientconn.Inbound) {
	logger := logrus.WithFields(logrus.Fields{"function": "Server.inboundLoop", "package": "main"})

	for {
		select {
		case in, ok := <-inbound:
			if !ok {
				return
			}
			s.handleInbound(datagram, in, logger)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleInbound(datagram *transport.Datagram, in clientconn.Inbound, logger *logrus.Entry) {
	switch msg := in.Message.(type) {
	case wire.TargetChangeResponse:
		client, idx, err := s.registry.ClientByID(in.ClientID)
		if err != nil {
			logger.WithError(err).WithField("client_id", in.ClientID).Warn("target change response from unknown client")
			return
		}
		send := func(m wire.Message) error { return datagram.SendTo(client.Addr, client.Key, m) }
		if err := s.registry.HandleChangeTargetResponse(idx, send); err != nil {
			logger.WithError(err).WithField("client_id", in.ClientID).Warn("failed to process target change response")
		}

	case wire.Heartbeat:
		// liveness only; clientconn's own failure counter drives disconnects.

	case wire.ClipboardChanged:
		s.registry.RecordClipboard(msg.Content)
		logger.WithField("client_id", in.ClientID).Debug("clipboard synchronization is not implemented")

	default:
		logger.WithFields(logrus.Fields{"client_id": in.ClientID, "tag": msg.Tag()}).Warn("unexpected message on reliable channel")
	}
}
