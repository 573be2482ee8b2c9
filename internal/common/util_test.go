package common

import (
	"errors"
	"testing"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestInvalidCredentials_IsUnauthorized(t *testing.T) {
	if !errors.Is(ErrorInvalidCredentials, ErrorUnauthorized) {
		t.Fatal("ErrorInvalidCredentials must match ErrorUnauthorized")
	}
	if errors.Is(ErrorUnauthorized, ErrorInvalidCredentials) {
		t.Fatal("ErrorUnauthorized must not match ErrorInvalidCredentials")
	}
}
