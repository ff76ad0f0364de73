package wire

import (
	"testing"
)

func TestTagString(t *testing.T) {
	cases := []struct {
		tag  Tag
		want string
	}{
		{TagInputEvent, "InputEvent"},
		{TagTargetChangeNotification, "TargetChangeNotification"},
		{TagTargetChangeResponse, "TargetChangeResponse"},
		{TagClipboardChanged, "ClipboardChanged"},
		{TagClientInit, "ClientInit"},
		{TagExchangePubKey, "ExchangePubKey"},
		{TagExchangePubKeyResponse, "ExchangePubKeyResponse"},
		{TagHandshake, "Handshake"},
		{TagHeartbeat, "Heartbeat"},
	}

	for _, tc := range cases {
		if got := tc.tag.String(); got != tc.want {
			t.Errorf("Tag(%d).String() = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestTagDeclarationOrder(t *testing.T) {
	// The wire tag for each variant is its declaration order; this pins
	// that order against silent reordering during future edits.
	want := []Tag{
		TagInputEvent,
		TagTargetChangeNotification,
		TagTargetChangeResponse,
		TagClipboardChanged,
		TagClientInit,
		TagExchangePubKey,
		TagExchangePubKeyResponse,
		TagHandshake,
		TagHeartbeat,
	}
	for i, tag := range want {
		if int(tag) != i {
			t.Errorf("tag %s has value %d, want %d", tag, tag, i)
		}
	}
}

func TestTagValid(t *testing.T) {
	if !TagHeartbeat.Valid() {
		t.Error("TagHeartbeat.Valid() = false, want true")
	}
	if Tag(tagCount).Valid() {
		t.Error("Tag(tagCount).Valid() = true, want false")
	}
}
