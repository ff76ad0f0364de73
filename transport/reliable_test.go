package transport

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/stretchr/testify/require"
)

func TestReliableSendReceiveCleartext(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewReliable(clientConn)
	server := NewReliable(serverConn)

	msg := wire.ClientInit{Addr: "203.0.113.7:9001"}

	errCh := make(chan error, 1)
	go func() { errCh <- client.Send(msg) }()

	got, err := server.Receive()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, msg, got)
}

func TestReliableSendReceiveEncrypted(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewReliable(clientConn)
	server := NewReliable(serverConn)

	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	clientAEAD, err := crypto.NewAEAD(key)
	require.NoError(t, err)
	serverAEAD, err := crypto.NewAEAD(key)
	require.NoError(t, err)

	client.SetKey(clientAEAD)
	server.SetKey(serverAEAD)

	msg := wire.Heartbeat{}

	errCh := make(chan error, 1)
	go func() { errCh <- client.Send(msg) }()

	got, err := server.Receive()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, msg, got)
}

func TestReliableSplitSharesKeyAndBuffer(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewReliable(clientConn)
	server := NewReliable(serverConn)

	first := wire.ClientInit{Addr: "198.51.100.2:9001"}
	errCh := make(chan error, 1)
	go func() { errCh <- client.Send(first) }()
	got, err := server.Receive()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, first, got)

	reader, writer := server.Split()

	var key [32]byte
	aead, err := crypto.NewAEAD(key)
	require.NoError(t, err)
	client.SetKey(aead)
	writer.keys.set(aead)

	second := wire.Heartbeat{}
	go func() { errCh <- client.Send(second) }()
	got2, err := reader.Receive()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, second, got2)
}

func TestReliableReceiveReassemblesSegmentedFrame(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	server := NewReliable(serverConn)

	// Build one complete frame by hand, then deliver it in three arbitrary
	// segments; Receive must block until the whole frame has arrived and
	// then return exactly one message.
	msg := wire.ClipboardChanged{Content: string(make([]byte, 280))}
	framed, err := sealMessage(msg, nil)
	require.NoError(t, err)

	var lengthPrefix [4]byte
	binary.LittleEndian.PutUint32(lengthPrefix[:], uint32(len(framed)))
	raw := append(lengthPrefix[:], framed...)

	go func() {
		third := len(raw) / 3
		for _, segment := range [][]byte{raw[:third], raw[third : 2*third], raw[2*third:]} {
			if _, err := clientConn.Write(segment); err != nil {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	got, err := server.Receive()
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestReliableReceiveTamperedCiphertext(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	server := NewReliable(serverConn)

	var key [32]byte
	aead, err := crypto.NewAEAD(key)
	require.NoError(t, err)
	server.SetKey(aead)

	// Seal a frame under the shared key, then flip one bit of the
	// ciphertext before it reaches the receiver.
	plaintext, err := wire.Encode(wire.Heartbeat{})
	require.NoError(t, err)
	ciphertext, nonce, err := aead.Encrypt(plaintext)
	require.NoError(t, err)
	ciphertext[0] ^= 0x01
	framed, err := wire.EncodeWithNonce(ciphertext, nonce)
	require.NoError(t, err)

	var lengthPrefix [4]byte
	binary.LittleEndian.PutUint32(lengthPrefix[:], uint32(len(framed)))

	go func() {
		_, _ = clientConn.Write(append(lengthPrefix[:], framed...))
	}()

	_, err = server.Receive()
	require.Error(t, err)
}

func TestReliableReceiveConnectionClosed(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	server := NewReliable(serverConn)

	require.NoError(t, clientConn.Close())
	_, err := server.Receive()
	require.Error(t, err)
}

func TestReliableReceiveMalformedLength(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	server := NewReliable(serverConn)

	go func() {
		// Length prefix claims an absurd frame size.
		_, _ = clientConn.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}()

	_, err := server.Receive()
	require.ErrorIs(t, err, ErrMalformedLength)
}
