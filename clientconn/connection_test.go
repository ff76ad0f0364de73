package clientconn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/stretchr/testify/require"
)

func TestConnectionForwardsReceivedMessages(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	serverTransport := transport.NewReliable(serverSide)
	reader, writer := serverTransport.Split()

	id := uuid.New()
	inbound := make(chan Inbound, 8)
	disconnect := make(chan uuid.UUID, 1)

	conn := New(id, reader, writer, inbound, disconnect)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		conn.Run(ctx)
		close(done)
	}()

	peerTransport := transport.NewReliable(clientSide)
	require.NoError(t, peerTransport.Send(wire.ClipboardChanged{Content: "hello"}))

	select {
	case msg := <-inbound:
		require.Equal(t, id, msg.ClientID)
		require.Equal(t, wire.ClipboardChanged{Content: "hello"}, msg.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded message")
	}

	cancel()
	<-done
}

func TestConnectionSendsHeartbeat(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	serverTransport := transport.NewReliable(serverSide)
	reader, writer := serverTransport.Split()

	inbound := make(chan Inbound, 1)
	disconnect := make(chan uuid.UUID, 1)
	conn := New(uuid.New(), reader, writer, inbound, disconnect)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		conn.Run(ctx)
		close(done)
	}()

	peerTransport := transport.NewReliable(clientSide)
	msgCh := make(chan wire.Message, 1)
	go func() {
		msg, err := peerTransport.Receive()
		if err == nil {
			msgCh <- msg
		}
	}()

	select {
	case msg := <-msgCh:
		require.Equal(t, wire.Heartbeat{}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for heartbeat")
	}

	cancel()
	<-done
}

func TestConnectionOutboundMessageIsSent(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	serverTransport := transport.NewReliable(serverSide)
	reader, writer := serverTransport.Split()

	inbound := make(chan Inbound, 1)
	disconnect := make(chan uuid.UUID, 1)
	conn := New(uuid.New(), reader, writer, inbound, disconnect)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		conn.Run(ctx)
		close(done)
	}()

	conn.Outbound() <- wire.TargetChangeNotification{}

	peerTransport := transport.NewReliable(clientSide)
	msg, err := peerTransport.Receive()
	require.NoError(t, err)
	require.Equal(t, wire.TargetChangeNotification{}, msg)

	cancel()
	<-done
}

func TestConnectionDisconnectsWhenPeerCloses(t *testing.T) {
	serverSide, clientSide := net.Pipe()

	serverTransport := transport.NewReliable(serverSide)
	reader, writer := serverTransport.Split()

	id := uuid.New()
	inbound := make(chan Inbound, 1)
	disconnect := make(chan uuid.UUID, 1)
	conn := New(id, reader, writer, inbound, disconnect)

	// Close the peer side immediately; the reader's next Receive fails and
	// reports the disconnect.
	require.NoError(t, clientSide.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		conn.Run(ctx)
		close(done)
	}()

	select {
	case got := <-disconnect:
		require.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect notification")
	}

	<-done
}
