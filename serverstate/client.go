package serverstate

import (
	"net"

	"github.com/google/uuid"
	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/wire"
)

// pendingMessageCapacity bounds a client's buffered-input-event queue.
// Once full, appending a new message drops the oldest.
const pendingMessageCapacity = 1024

// Client is the server's record of one client session: its datagram
// endpoint, its negotiated AEAD key, a handle to enqueue reliable-channel
// messages, and the bookkeeping needed to decide whether it can receive
// an input event right now or must have one buffered for it.
//
// A Client is never removed from its owning Registry once added, so that
// indices referenced elsewhere (in particular the target index) stay
// stable for the life of the process.
type Client struct {
	ID   uuid.UUID
	Addr net.Addr
	Key  *crypto.AEAD

	// MessageSender enqueues an outbound reliable-channel message for
	// this client's writer goroutine (see clientconn.Connection). Bounded to
	// apply backpressure to whatever is driving the registry.
	MessageSender chan<- wire.Message

	// Connected is a liveness flag; cleared on heartbeat failure or a
	// transport error, never implying removal from the registry.
	Connected bool

	pendingTargetChangeResponses uint32
	pendingMessages              []wire.Message
}

// NewClient constructs a freshly connected client record.
func NewClient(id uuid.UUID, addr net.Addr, key *crypto.AEAD, messageSender chan<- wire.Message) *Client {
	return &Client{
		ID:            id,
		Addr:          addr,
		Key:           key,
		MessageSender: messageSender,
		Connected:     true,
	}
}

// CanReceive reports whether this client may be forwarded a fresh input
// event directly right now: it has no target-change acknowledgement
// outstanding and nothing already queued ahead of it.
func (c *Client) CanReceive() bool {
	return c.pendingTargetChangeResponses == 0 && len(c.pendingMessages) == 0
}

// PendingCount reports how many messages are currently buffered for this
// client.
func (c *Client) PendingCount() int {
	return len(c.pendingMessages)
}

// BufferMessage appends msg to the pending queue, dropping the oldest
// entry first if the queue is already at capacity.
func (c *Client) BufferMessage(msg wire.Message) {
	if len(c.pendingMessages) >= pendingMessageCapacity {
		c.pendingMessages = c.pendingMessages[1:]
	}
	c.pendingMessages = append(c.pendingMessages, msg)
}

// FlushPending drains the pending queue in order via send, stopping (and
// leaving the remainder queued, in order) at the first error.
func (c *Client) FlushPending(send func(wire.Message) error) error {
	for len(c.pendingMessages) > 0 {
		msg := c.pendingMessages[0]
		if err := send(msg); err != nil {
			return err
		}
		c.pendingMessages = c.pendingMessages[1:]
	}
	return nil
}
