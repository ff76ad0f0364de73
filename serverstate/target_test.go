package serverstate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/stretchr/testify/require"
)

func TestChangeTargetGivenValidTargetIdxShouldChangeTarget(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	err := r.ChangeTarget(intPtr(1), grabRequest)
	require.NoError(t, err)
	require.Equal(t, intPtr(1), r.TargetIdx())
}

func TestChangeTargetFromNoneIssuesGrabAndNoNotification(t *testing.T) {
	r, channels := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	err := r.ChangeTarget(intPtr(1), grabRequest)
	require.NoError(t, err)
	require.Equal(t, intPtr(1), r.TargetIdx())

	for _, ch := range channels {
		select {
		case msg := <-ch:
			t.Fatalf("unexpected message sent: %#v", msg)
		default:
		}
	}

	select {
	case grab := <-grabRequest:
		require.True(t, grab)
	default:
		t.Fatal("expected a grab request, got none")
	}
}

func TestChangeTargetFromClientNotifiesAndNoGrabRequest(t *testing.T) {
	r, channels := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(1), grabRequest))
	<-grabRequest // drain the initial server->client grab

	err := r.ChangeTarget(intPtr(2), grabRequest)
	require.NoError(t, err)
	require.Equal(t, intPtr(2), r.TargetIdx())

	select {
	case msg := <-channels[1]:
		require.Equal(t, wire.TargetChangeNotification{}, msg)
	default:
		t.Fatal("expected a TargetChangeNotification for the outgoing target")
	}

	select {
	case grab := <-grabRequest:
		t.Fatalf("unexpected grab request: %v", grab)
	default:
	}
}

func TestChangeTargetToServerNotifiesAndUngrabs(t *testing.T) {
	r, channels := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(1), grabRequest))
	<-grabRequest

	err := r.ChangeTarget(nil, grabRequest)
	require.NoError(t, err)
	require.Nil(t, r.TargetIdx())

	select {
	case msg := <-channels[1]:
		require.Equal(t, wire.TargetChangeNotification{}, msg)
	default:
		t.Fatal("expected a TargetChangeNotification for the outgoing target")
	}

	select {
	case grab := <-grabRequest:
		require.False(t, grab)
	default:
		t.Fatal("expected an ungrab request, got none")
	}
}

func TestCycleTargetFromNone(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.CycleTarget(grabRequest))
	require.Equal(t, intPtr(0), r.TargetIdx())
}

func TestCycleTargetFromFirst(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(0), grabRequest))
	<-grabRequest

	require.NoError(t, r.CycleTarget(grabRequest))
	require.Equal(t, intPtr(1), r.TargetIdx())
}

func TestCycleTargetFromLastWrapsToServer(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(2), grabRequest))
	<-grabRequest

	require.NoError(t, r.CycleTarget(grabRequest))
	require.Nil(t, r.TargetIdx())

	select {
	case grab := <-grabRequest:
		require.False(t, grab)
	default:
		t.Fatal("expected an ungrab request wrapping back to the server")
	}
}

func TestCycleTargetClosesAfterFullRing(t *testing.T) {
	r, channels := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 8)

	// Cycling N+1 times from any starting point must return to it,
	// provided no connected flags change.
	for i := 0; i < len(channels)+1; i++ {
		require.NoError(t, r.CycleTarget(grabRequest))
	}
	require.Nil(t, r.TargetIdx())
}

func TestCycleTargetWithNoClients(t *testing.T) {
	r := NewRegistry()
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.CycleTarget(grabRequest))
	require.Nil(t, r.TargetIdx())
}

func TestCycleTargetSkipsDisconnectedClients(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.MarkDisconnected(1))

	require.NoError(t, r.ChangeTarget(intPtr(0), grabRequest))
	<-grabRequest

	require.NoError(t, r.CycleTarget(grabRequest))
	require.Equal(t, intPtr(2), r.TargetIdx(), "cycling should skip the disconnected client at index 1")
}

func TestHandleChangeTargetResponseFlushesOnLastAck(t *testing.T) {
	r, _ := newTestRegistry(t, 2)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(0), grabRequest))
	<-grabRequest

	client, err := r.ClientAt(0)
	require.NoError(t, err)
	client.BufferMessage(wire.InputEvent{})

	var sent []wire.Message
	send := func(msg wire.Message) error {
		sent = append(sent, msg)
		return nil
	}

	// pendingTargetChangeResponses is 0 here (no outgoing notification was
	// sent for index 0, since it was the *first* target); create an
	// outstanding ack by changing the target away from it.
	require.NoError(t, r.ChangeTarget(intPtr(1), grabRequest))
	require.NoError(t, r.HandleChangeTargetResponse(0, send))
	require.Equal(t, []wire.Message{wire.InputEvent{}}, sent)
	require.Equal(t, 0, client.PendingCount())
}

func TestChangeTargetDropsNotificationWhenOutboundQueueFull(t *testing.T) {
	r, channels := newTestRegistry(t, 2)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(0), grabRequest))
	<-grabRequest

	// Fill client 0's outbound queue to capacity; the notification the
	// next ChangeTarget triggers has nowhere to go.
	for i := 0; i < cap(channels[0]); i++ {
		channels[0] <- wire.Heartbeat{}
	}

	// The change must complete rather than block on the full queue.
	require.NoError(t, r.ChangeTarget(intPtr(1), grabRequest))
	require.Equal(t, intPtr(1), r.TargetIdx())

	// The dropped notification must not leave client 0 waiting on an
	// acknowledgement that can never arrive.
	client0, err := r.ClientAt(0)
	require.NoError(t, err)
	require.True(t, client0.CanReceive())
}

func TestDisconnectClientOfNonTargetIsNoop(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(0), grabRequest))
	<-grabRequest

	_, _, err := r.ClientByID(mustClientID(t, r, 1))
	require.NoError(t, err)

	id := mustClientID(t, r, 1)
	require.NoError(t, r.DisconnectClient(id, grabRequest))

	select {
	case grab := <-grabRequest:
		t.Fatalf("unexpected grab signal from disconnecting a non-target client: %v", grab)
	default:
	}
	require.Equal(t, intPtr(0), r.TargetIdx())

	client, err := r.ClientAt(1)
	require.NoError(t, err)
	require.False(t, client.Connected)
}

func TestDisconnectClientOfTargetCyclesToServer(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	grabRequest := make(chan bool, 1)

	require.NoError(t, r.ChangeTarget(intPtr(0), grabRequest))
	<-grabRequest

	id := mustClientID(t, r, 0)
	require.NoError(t, r.DisconnectClient(id, grabRequest))

	require.Nil(t, r.TargetIdx())
	select {
	case grab := <-grabRequest:
		require.False(t, grab)
	default:
		t.Fatal("expected an ungrab request after disconnecting the active target")
	}
}

func mustClientID(t *testing.T, r *Registry, idx int) uuid.UUID {
	t.Helper()
	client, err := r.ClientAt(idx)
	require.NoError(t, err)
	return client.ID
}
