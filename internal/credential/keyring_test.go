package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func TestTokenLifecycle(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	if _, err := s.Token(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Token on empty ring = %v, want ErrNotFound", err)
	}
	if err := s.SetToken(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if err := s.SetToken("tok-1"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got, err := s.Token()
	if err != nil || got != "tok-1" {
		t.Fatalf("Token = %q, %v", got, err)
	}
	if err := s.DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if err := s.DeleteToken(); err != nil {
		t.Fatalf("second DeleteToken: %v", err)
	}
	if _, err := s.Token(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Token after delete = %v", err)
	}
}

func TestFileFallbackUsesConfiguredPassphrase(t *testing.T) {
	dir := t.TempDir()
	open := func(pw string) *Store {
		t.Helper()
		cfg := ringConfig(func(k string) string {
			if k == EnvFilePassword {
				return pw
			}
			return ""
		})
		got, err := cfg.FilePasswordFunc("passphrase")
		if err != nil || got != pw {
			t.Fatalf("FilePasswordFunc = %q, %v", got, err)
		}
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		cfg.FileDir = dir
		ring, err := keyring.Open(cfg)
		if err != nil {
			t.Fatalf("keyring.Open: %v", err)
		}
		return NewStore(ring)
	}

	if err := open("correct horse").SetToken("tok-file"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got, err := open("correct horse").Token(); err != nil || got != "tok-file" {
		t.Fatalf("Token = %q, %v", got, err)
	}
	if got, err := open("wrong").Token(); err == nil {
		t.Fatalf("wrong passphrase read token %q", got)
	}
}
