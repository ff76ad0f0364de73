package kvmclient

import (
	"fmt"
	"net"

	"github.com/opd-ai/virtualkvm/handshake"
	"github.com/opd-ai/virtualkvm/transport"
)

// session bundles the two transports a connected client runs: the framed
// reliable channel used for the handshake and control messages, and the
// datagram channel used for input events.
type session struct {
	reliable *transport.Reliable
	datagram *transport.Datagram
	tcpConn  net.Conn
	udpConn  net.PacketConn
}

// dial connects to serverAddr, completes the handshake announcing
// clientAddr as this client's datagram endpoint, and binds a UDP socket
// on clientAddr for the resulting session.
func dial(serverAddr, clientAddr string) (*session, error) {
	tcpConn, err := net.Dial("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("kvmclient: dial server: %w", err)
	}

	reliable := transport.NewReliable(tcpConn)
	result, err := handshake.Connect(reliable, clientAddr)
	if err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("kvmclient: handshake: %w", err)
	}

	udpConn, err := net.ListenPacket("udp", clientAddr)
	if err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("kvmclient: bind datagram socket: %w", err)
	}

	remote, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		tcpConn.Close()
		udpConn.Close()
		return nil, fmt.Errorf("kvmclient: resolve server datagram address: %w", err)
	}

	datagram := transport.NewDatagram(udpConn, remote)
	datagram.SetKey(result.Key)

	return &session{reliable: reliable, datagram: datagram, tcpConn: tcpConn, udpConn: udpConn}, nil
}

// Close tears down both transports. Closing the underlying connections is
// what unblocks any goroutine parked in a blocking Receive call.
func (s *session) Close() {
	_ = s.reliable.Close()
	_ = s.udpConn.Close()
}
