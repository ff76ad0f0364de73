package transport

import (
	"fmt"
	"net"
	"sync"

	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/wire"
)

// Datagram is the unframed, packet-at-a-time transport bound to a single
// remote endpoint, used for latency-sensitive input events. One UDP
// packet carries exactly one MessageWithNonce; there is no length prefix.
type Datagram struct {
	conn net.PacketConn

	mu     sync.RWMutex
	remote net.Addr
	keys   *keyBox
}

// NewDatagram wraps conn, initially bound to remote. Remote may be nil if
// it is not yet known (the server side learns it from ClientInit).
func NewDatagram(conn net.PacketConn, remote net.Addr) *Datagram {
	return &Datagram{conn: conn, remote: remote, keys: &keyBox{}}
}

// SetRemote rebinds the transport to a new remote endpoint.
func (d *Datagram) SetRemote(remote net.Addr) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remote = remote
}

// Remote returns the currently bound remote endpoint, or nil.
func (d *Datagram) Remote() net.Addr {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.remote
}

// SetKey installs the session AEAD key. As with [Reliable.SetKey], frames
// sent or received after this call are encrypted.
func (d *Datagram) SetKey(key *crypto.AEAD) {
	d.keys.set(key)
}

// Send seals msg and emits it as a single packet to the bound remote
// endpoint.
func (d *Datagram) Send(msg wire.Message) error {
	remote := d.Remote()
	if remote == nil {
		return fmt.Errorf("transport: datagram send: %w", errNoRemote)
	}

	packet, err := sealMessage(msg, d.keys.get())
	if err != nil {
		return err
	}

	if _, err := d.conn.WriteTo(packet, remote); err != nil {
		return fmt.Errorf("transport: write datagram: %w", err)
	}
	return nil
}

// SendTo seals msg with key and writes it directly to addr, bypassing
// this transport's bound remote and key. The server side shares one
// Datagram across every connected client, each with its own address and
// session key, rather than rebinding SetRemote/SetKey per send.
func (d *Datagram) SendTo(addr net.Addr, key *crypto.AEAD, msg wire.Message) error {
	packet, err := sealMessage(msg, key)
	if err != nil {
		return err
	}
	if _, err := d.conn.WriteTo(packet, addr); err != nil {
		return fmt.Errorf("transport: write datagram: %w", err)
	}
	return nil
}

// Receive reads and opens a single packet. It does not filter by sender
// address; callers that care who sent a datagram should inspect the
// addr returned by ReceiveFrom instead.
func (d *Datagram) Receive() (wire.Message, error) {
	msg, _, err := d.ReceiveFrom()
	return msg, err
}

// ReceiveFrom reads and opens a single packet, also returning the address
// it arrived from.
func (d *Datagram) ReceiveFrom() (wire.Message, net.Addr, error) {
	buf := make([]byte, maxDatagramSize)
	n, addr, err := d.conn.ReadFrom(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: read datagram: %w", err)
	}

	msg, err := openMessage(buf[:n], d.keys.get())
	if err != nil {
		return nil, addr, err
	}
	return msg, addr, nil
}

// Close closes the underlying packet connection.
func (d *Datagram) Close() error {
	return d.conn.Close()
}
