package crypto

import (
	"testing"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}

	if err := SecureWipe(data); err != nil {
		t.Fatalf("SecureWipe() error: %v", err)
	}

	for i, b := range data {
		if b != 0 {
			t.Fatalf("SecureWipe() left non-zero byte at position %d", i)
		}
	}
}

func TestSecureWipeNil(t *testing.T) {
	if err := SecureWipe(nil); err == nil {
		t.Fatal("SecureWipe(nil) expected error, got nil")
	}
}

func TestZeroBytes(t *testing.T) {
	data := []byte{9, 8, 7, 6}
	ZeroBytes(data)

	for i, b := range data {
		if b != 0 {
			t.Fatalf("ZeroBytes() left non-zero byte at position %d", i)
		}
	}
}

func TestEphemeralKeyPairWipeUsesSecureWipe(t *testing.T) {
	kp, err := GenerateEphemeral()
	if err != nil {
		t.Fatalf("GenerateEphemeral() error: %v", err)
	}

	var privateCopy [32]byte
	copy(privateCopy[:], kp.private[:])

	allZeroInitially := true
	for _, b := range privateCopy {
		if b != 0 {
			allZeroInitially = false
			break
		}
	}
	if allZeroInitially {
		t.Fatal("private key is all zeros before wiping, test cannot proceed")
	}

	kp.Wipe()

	for i, b := range kp.private {
		if b != 0 {
			t.Fatalf("Wipe() left non-zero byte at position %d", i)
		}
	}
}
