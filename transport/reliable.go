package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

// Reliable is the framed, bidirectional transport used for the session
// handshake and all control-plane traffic. It owns a net.Conn (a TCP
// stream in production) and encrypts frames once a session key is
// installed via SetKey.
type Reliable struct {
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex
	keys    *keyBox
}

// NewReliable wraps conn for frame-at-a-time send/receive. No key is
// installed initially; frames are sent and received in the clear (with a
// zeroed nonce) until SetKey is called.
func NewReliable(conn net.Conn) *Reliable {
	return &Reliable{
		conn:   conn,
		reader: bufio.NewReader(conn),
		keys:   &keyBox{},
	}
}

// SetKey installs the session AEAD key derived by the handshake. Frames
// sent or received after this call are encrypted; frames already in
// flight when it is called must be drained first, which the handshake
// protocol guarantees by sequencing.
func (r *Reliable) SetKey(key *crypto.AEAD) {
	r.keys.set(key)
}

// Send serializes, optionally encrypts, frames, and writes msg. Writes
// are serialized against concurrent Send calls on this transport so that
// two frames are never interleaved on the wire; a writer half returned by
// Split has a lock of its own.
func (r *Reliable) Send(msg wire.Message) error {
	return writeFrame(r.conn, &r.writeMu, r.keys.get(), msg)
}

// Receive blocks until a complete frame has arrived, then decrypts and
// deserializes it. It returns ErrConnectionClosed on EOF.
func (r *Reliable) Receive() (wire.Message, error) {
	return readFrame(r.reader, r.keys.get())
}

// Split divides the transport into independent reader and writer halves
// that share the installed key (read through the same keyBox) and, for
// the reader, any bytes already buffered from the underlying conn.
func (r *Reliable) Split() (*ReliableReader, *ReliableWriter) {
	return &ReliableReader{reader: r.reader, keys: r.keys},
		&ReliableWriter{conn: r.conn, keys: r.keys}
}

// Close closes the underlying connection.
func (r *Reliable) Close() error {
	return r.conn.Close()
}

// ReliableReader is the receive half of a split Reliable transport.
type ReliableReader struct {
	reader *bufio.Reader
	keys   *keyBox
}

// Receive behaves as [Reliable.Receive].
func (r *ReliableReader) Receive() (wire.Message, error) {
	return readFrame(r.reader, r.keys.get())
}

// ReliableWriter is the send half of a split Reliable transport.
type ReliableWriter struct {
	conn    net.Conn
	writeMu sync.Mutex
	keys    *keyBox
}

// Send behaves as [Reliable.Send].
func (w *ReliableWriter) Send(msg wire.Message) error {
	return writeFrame(w.conn, &w.writeMu, w.keys.get(), msg)
}

// Close closes the underlying connection. Either half of a split
// transport may call this; net.Conn.Close is safe to call once from
// either side tearing down the other.
func (w *ReliableWriter) Close() error {
	return w.conn.Close()
}

func writeFrame(conn net.Conn, mu *sync.Mutex, key *crypto.AEAD, msg wire.Message) error {
	framed, err := sealMessage(msg, key)
	if err != nil {
		return err
	}

	var lengthPrefix [4]byte
	binary.LittleEndian.PutUint32(lengthPrefix[:], uint32(len(framed)))

	mu.Lock()
	defer mu.Unlock()

	if _, err := conn.Write(lengthPrefix[:]); err != nil {
		return fmt.Errorf("transport: write frame length: %w", err)
	}
	if _, err := conn.Write(framed); err != nil {
		return fmt.Errorf("transport: write frame body: %w", err)
	}
	return nil
}

func readFrame(reader *bufio.Reader, key *crypto.AEAD) (wire.Message, error) {
	var lengthPrefix [4]byte
	if _, err := io.ReadFull(reader, lengthPrefix[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("transport: read frame length: %w", err)
	}

	length := binary.LittleEndian.Uint32(lengthPrefix[:])
	if length == 0 || length > maxFrameLength {
		logrus.WithFields(logrus.Fields{
			"function": "readFrame", "package": "transport", "length": length,
		}).Warn("rejecting frame with implausible length prefix")
		return nil, ErrMalformedLength
	}

	framed := make([]byte, length)
	if _, err := io.ReadFull(reader, framed); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("transport: read frame body: %w", err)
	}

	return openMessage(framed, key)
}
