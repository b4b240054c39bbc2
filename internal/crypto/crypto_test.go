package crypto

import (
	"strings"
	"testing"
)

// Well-known throwaway key (hardhat account #0).
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "correct horse battery staple")
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	got, err := DecryptKey(blob, "correct horse battery staple")
	if err != nil {
		t.Fatalf("DecryptKey: %v", err)
	}
	if got != testKeyHex {
		t.Errorf("round trip = %q, want %q", got, testKeyHex)
	}

	if _, err := DecryptKey(blob, "wrong password"); err == nil {
		t.Error("decryption with wrong password must fail")
	}
}

func TestEncryptKeyValidation(t *testing.T) {
	if _, err := EncryptKey(testKeyHex, ""); err == nil {
		t.Error("empty password must be rejected")
	}
	if _, err := EncryptKey("not-hex", "pw"); err == nil {
		t.Error("non-hex key must be rejected")
	}
	if _, err := EncryptKey("abcd", "pw"); err == nil {
		t.Error("short key must be rejected")
	}
}

func TestLoadKeyPrefersRaw(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKeyHex})
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if got != testKeyHex {
		t.Errorf("LoadKey = %q, want %q", got, testKeyHex)
	}

	if _, err := LoadKey(KeyConfig{}); err == nil {
		t.Error("LoadKey with no source must fail")
	}
}

func TestSignMessageRoundTrip(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	msg := []byte("market:42 outcome:0")
	sig, err := s.SignMessage(msg)
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 {
		t.Fatalf("signature format %q", sig)
	}

	ok, err := VerifyMessage(msg, sig, s.Address())
	if err != nil {
		t.Fatalf("VerifyMessage: %v", err)
	}
	if !ok {
		t.Error("signature did not verify against signer address")
	}

	ok, err = VerifyMessage([]byte("tampered"), sig, s.Address())
	if err == nil && ok {
		t.Error("tampered message must not verify")
	}
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	if _, err := NewSigner("zz", 1); err == nil {
		t.Error("invalid hex key must be rejected")
	}
}
