package security

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestEncryptor(t *testing.T, secret string) *Encryptor {
	t.Helper()
	e, err := NewEncryptor(secret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	return e
}

func TestEncryptor_RoundTrip(t *testing.T) {
	e := newTestEncryptor(t, "unit-test-secret")

	plaintexts := []string{
		"",
		"hello",
		"exactly sixteen!",
		"a: message with: colons",
		strings.Repeat("long body ", 500),
		"unicode — ünïcødé ✓",
	}
	for _, p := range plaintexts {
		token, err := e.Encrypt(p)
		if err != nil {
			t.Fatalf("Encrypt(%q) error = %v", p, err)
		}
		if got := e.Decrypt(token); got != p {
			t.Errorf("Decrypt(Encrypt(%q)) = %q", p, got)
		}
		if !IsEncrypted(token) {
			t.Errorf("IsEncrypted(Encrypt(%q)) = false, token %q", p, token)
		}
	}
}

func TestEncryptor_FreshIVPerCall(t *testing.T) {
	e := newTestEncryptor(t, "unit-test-secret")

	a, _ := e.Encrypt("same input")
	b, _ := e.Encrypt("same input")
	if a == b {
		t.Fatal("two encryptions of the same plaintext produced identical tokens")
	}
	if strings.Count(a, ":") != 1 {
		t.Errorf("token %q must contain exactly one separator", a)
	}
	if iv := strings.SplitN(a, ":", 2)[0]; len(iv) != 32 {
		t.Errorf("iv hex length = %d, want 32", len(iv))
	}
}

func TestEncryptor_DecryptMalformed(t *testing.T) {
	e := newTestEncryptor(t, "unit-test-secret")
	failures := 0
	e.OnFailure(func() { failures++ })

	valid, _ := e.Encrypt("payload")
	iv := strings.SplitN(valid, ":", 2)[0]

	tokens := map[string]string{
		"no separator":        "plain text",
		"two separators":      iv + ":abc:def",
		"non-hex iv":          strings.Repeat("z", 32) + ":AAAAAAAAAAAAAAAAAAAAAA==",
		"short iv":            "abcd:AAAAAAAAAAAAAAAAAAAAAA==",
		"non-base64 body":     iv + ":!!!not base64!!!",
		"empty body":          iv + ":",
		"body not block size": iv + ":AAAA",
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			if got := e.Decrypt(token); got != DecryptFailedPlaceholder {
				t.Errorf("Decrypt(%q) = %q, want placeholder", token, got)
			}
		})
	}
	if failures != len(tokens) {
		t.Errorf("failure observer called %d times, want %d", failures, len(tokens))
	}
}

func TestEncryptor_WrongKey(t *testing.T) {
	token, _ := newTestEncryptor(t, "first-secret").Encrypt("secret text")
	got := newTestEncryptor(t, "second-secret").Decrypt(token)
	if got == "secret text" {
		t.Fatal("decrypting with a different key returned the plaintext")
	}
}

func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"plain text", false},
		{"", false},
		{"abc:def", false},
		{strings.Repeat("a", 32) + ":Zm9vYmFy", true},
		{strings.Repeat("a", 32) + ":not base64!", false},
		{strings.Repeat("a", 31) + ":Zm9vYmFy", false},
	}
	for _, tt := range tests {
		if got := IsEncrypted(tt.in); got != tt.want {
			t.Errorf("IsEncrypted(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeriveKey(t *testing.T) {
	if got := DeriveKey("short"); len(got) != 32 || string(got) != "short"+strings.Repeat("0", 27) {
		t.Errorf("DeriveKey(short) = %q", got)
	}
	long := strings.Repeat("x", 40)
	if got := DeriveKey(long); string(got) != long[:32] {
		t.Errorf("DeriveKey(long) = %q", got)
	}
}
