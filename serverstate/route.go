package serverstate

import "github.com/opd-ai/virtualkvm/wire"

// RouteInputEvent forwards event to the current target if it can receive
// one right now, or buffers it otherwise. send is invoked with the target
// client, whose address and key the caller uses to deliver the message
// (see cmd/kvm-server, which wires this to a transport.Datagram.SendTo).
// RouteInputEvent is a no-op when the server itself is the target.
func (r *Registry) RouteInputEvent(event wire.InputEvent, send func(*Client, wire.Message) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.targetIdx == nil {
		return nil
	}
	target := r.clients[*r.targetIdx]

	if target.CanReceive() {
		return send(target, event)
	}
	target.BufferMessage(event)
	return nil
}
