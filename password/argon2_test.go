package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newTestHasher(t *testing.T) *Argon2 {
	t.Helper()

	h, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Errorf("unexpected encoding prefix: %q", encoded)
	}

	ok, err := h.Verify("correct-horse-battery-staple", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("correct secret must verify")
	}

	ok, err = h.Verify("wrong-secret", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("wrong secret must not verify")
	}
}

func TestHashRejectsEmptySecret(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same secret must differ")
	}
}

func TestVerifyRejectsMalformedEncodings(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("secret-value")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not phc", "plaintext"},
		{"wrong algorithm", strings.Replace(encoded, "argon2id", "argon2i", 1)},
		{"missing version", "$argon2id$m=8192,t=1,p=1$c2FsdA$aGFzaA"},
		{"truncated", encoded[:len(encoded)-10] + "!!"},
		{"bad salt encoding", "$argon2id$v=19$m=8192,t=1,p=1$!!!!$aGFzaGhhc2hoYXNoaGFzaA=="},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.Verify("secret-value", tc.encoded); err == nil {
				t.Errorf("Verify(%q) succeeded, want error", tc.encoded)
			}
		})
	}
}

func TestVerifyHonorsEmbeddedParameters(t *testing.T) {
	strong, err := NewArgon2(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	encoded, err := strong.Hash("secret-value")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// A hasher with different costs still verifies: parameters travel in
	// the encoded string.
	weak := newTestHasher(t)
	ok, err := weak.Verify("secret-value", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("hash must verify under its embedded parameters")
	}
}

func TestNewArgon2EnforcesMinimums(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt length", func(c *Config) { c.SaltLength = 8 }},
		{"key length", func(c *Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Errorf("NewArgon2 accepted weak %s", tc.name)
			}
		})
	}
}
