package kvmclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/opd-ai/virtualkvm/handshake"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/stretchr/testify/require"
)

func TestNextRetryDelay(t *testing.T) {
	require.Equal(t, 2*time.Second, nextRetryDelay(1*time.Second))
	require.Equal(t, 180*time.Second, nextRetryDelay(170*time.Second))
	require.Equal(t, 180*time.Second, nextRetryDelay(180*time.Second))
}

func freeUDPAddr(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := conn.LocalAddr().String()
	require.NoError(t, conn.Close())
	return addr
}

func TestDialEstablishesSessionWithFakeServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	serverResultCh := make(chan *handshake.ServerResult, 1)
	serverErrCh := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			serverErrCh <- err
			return
		}
		reliable := transport.NewReliable(conn)
		result, err := handshake.Accept(reliable)
		if err != nil {
			serverErrCh <- err
			return
		}
		serverResultCh <- result
	}()

	clientAddr := freeUDPAddr(t)
	sess, err := dial(listener.Addr().String(), clientAddr)
	require.NoError(t, err)
	defer sess.Close()

	select {
	case result := <-serverResultCh:
		require.Equal(t, clientAddr, result.ClientAddr)
	case err := <-serverErrCh:
		t.Fatalf("server side failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server handshake result")
	}
}

func TestSupervisorStopsOnContextCancellation(t *testing.T) {
	output := devio.NewNullOutput()
	sup := NewSupervisor("127.0.0.1:1", "127.0.0.1:0", output)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sup.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
