package serverstate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

// ChangeTarget installs newIdx as the active target, notifies the
// previous target (if any) that target status is transitioning, and
// emits a grab (true) or ungrab (false) signal on grabRequest exactly on
// a boundary transition: server-to-client or client-to-server. A
// client-to-client retarget notifies the outgoing client but never
// touches grabRequest, since devices stay grabbed throughout.
func (r *Registry) ChangeTarget(newIdx *int, grabRequest chan<- bool) error {
	logger := logrus.WithFields(logrus.Fields{"function": "ChangeTarget", "package": "serverstate"})

	r.mu.Lock()

	wasServer := r.targetIdx == nil
	prevIdx := r.targetIdx

	if err := r.setTarget(newIdx); err != nil {
		r.mu.Unlock()
		return err
	}
	logger.WithField("new_target_idx", formatIdx(newIdx)).Debug("changing target")

	var notifyErr error
	if prevIdx != nil {
		notifyErr = r.sendChangeTargetNotificationLocked(*prevIdx)
	}
	isServer := r.targetIdx == nil
	r.mu.Unlock()

	switch {
	case notifyErr == nil:
	case errors.Is(notifyErr, ErrClientDisconnected):
		// Expected when the outgoing target dropped before the change.
	case errors.Is(notifyErr, ErrOutboundQueueFull):
		logger.WithField("prev_target_idx", formatIdx(prevIdx)).Warn("dropping target change notification for unresponsive client")
	default:
		return notifyErr
	}

	switch {
	case wasServer && !isServer:
		grabRequest <- true
	case !wasServer && isServer:
		grabRequest <- false
	}
	return nil
}

// CycleTarget advances the target by one position in ring order over
// {client_0, ..., client_{N-1}, server}, skipping disconnected clients,
// and wrapping from the server back around to client 0.
func (r *Registry) CycleTarget(grabRequest chan<- bool) error {
	r.mu.Lock()
	length := len(r.clients)
	prevIdx := length // "server" occupies index `length` in ring arithmetic
	if r.targetIdx != nil {
		prevIdx = *r.targetIdx
	}

	nextIdx := -1
	for i := 0; i <= length; i++ {
		idx := (prevIdx + i + 1) % (length + 1)
		if idx == length {
			nextIdx = idx
			break
		}
		if r.clients[idx].Connected {
			nextIdx = idx
			break
		}
	}
	r.mu.Unlock()

	if nextIdx < 0 {
		return ErrClientNotFound
	}

	var target *int
	if nextIdx != length {
		idx := nextIdx
		target = &idx
	}
	return r.ChangeTarget(target, grabRequest)
}

// sendChangeTargetNotificationLocked enqueues a TargetChangeNotification
// for the client at idx and marks it as having an outstanding response.
// The enqueue never blocks: r.mu is held here, and a blocking send could
// wait forever on a writer that already exited with its queue full. On a
// full queue the notification is dropped without marking an outstanding
// response, so the client is not left waiting on an acknowledgement that
// can never be consumed. Callers must hold r.mu.
func (r *Registry) sendChangeTargetNotificationLocked(idx int) error {
	client, err := r.clientAtLocked(idx)
	if err != nil {
		return err
	}
	if !client.Connected {
		return ErrClientDisconnected
	}

	select {
	case client.MessageSender <- wire.TargetChangeNotification{}:
		client.pendingTargetChangeResponses++
		return nil
	default:
		return ErrOutboundQueueFull
	}
}

// HandleChangeTargetResponse processes a client's TargetChangeResponse:
// it clears one outstanding acknowledgement and, once none remain,
// flushes anything buffered for that client via send.
func (r *Registry) HandleChangeTargetResponse(idx int, send func(wire.Message) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, err := r.clientAtLocked(idx)
	if err != nil {
		return err
	}
	if client.pendingTargetChangeResponses > 0 {
		client.pendingTargetChangeResponses--
	}
	if client.pendingTargetChangeResponses == 0 {
		return client.FlushPending(send)
	}
	return nil
}

// DisconnectClient marks id's client as disconnected and, if it was the
// active target, cycles the target back to the server.
func (r *Registry) DisconnectClient(id uuid.UUID, grabRequest chan<- bool) error {
	_, idx, err := r.ClientByID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.clients[idx].Connected = false
	wasTarget := r.targetIdx != nil && *r.targetIdx == idx
	r.mu.Unlock()

	if wasTarget {
		return r.ChangeTarget(nil, grabRequest)
	}
	return nil
}

func formatIdx(idx *int) string {
	if idx == nil {
		return "server"
	}
	return fmt.Sprintf("%d", *idx)
}
