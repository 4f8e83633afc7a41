// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// sha512HexLen is the length of a hex-encoded SHA-512 digest.
const sha512HexLen = sha512.Size * 2

// PasswordHasher derives and checks password digests.
type PasswordHasher interface {
	// Hash returns the digest to store for password.
	Hash(password string) (string, error)

	// Verify reports whether password matches digest. A malformed digest is
	// an error, a mismatch is (false, nil).
	Verify(password, digest string) (bool, error)

	// NeedsUpgrade reports whether digest was produced by an older scheme and
	// should be replaced after the next successful login.
	NeedsUpgrade(digest string) bool
}

// SHA512Hasher stores the unsalted hex SHA-512 of the password. It is the
// default so existing digests keep verifying. Unsalted digests are open to
// precomputation attacks; Argon2idHasher replaces them transparently.
type SHA512Hasher struct{}

// NewSHA512Hasher creates a SHA512Hasher.
func NewSHA512Hasher() *SHA512Hasher {
	return &SHA512Hasher{}
}

// Hash returns the lowercase hex SHA-512 of password.
func (h *SHA512Hasher) Hash(password string) (string, error) {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Verify compares the SHA-512 of password with digest in constant time.
func (h *SHA512Hasher) Verify(password, digest string) (bool, error) {
	if !isSHA512Hex(digest) {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("digest is not a SHA-512 hex string")
	}
	want, err := h.Hash(password)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(digest))) == 1, nil
}

// NeedsUpgrade is always false.
func (h *SHA512Hasher) NeedsUpgrade(string) bool { return false }

func isSHA512Hex(digest string) bool {
	if len(digest) != sha512HexLen {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

// Argon2idHasher produces PHC-format argon2id digests. It still verifies
// legacy SHA-512 digests and reports them as needing an upgrade.
type Argon2idHasher struct {
	legacy SHA512Hasher
}

// NewArgon2idHasher creates an Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id digest with a random salt.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an argon2id or legacy SHA-512 digest.
func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	if isSHA512Hex(digest) {
		return h.legacy.Verify(password, digest)
	}

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version %d", version)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(expected) == 0 || len(expected) > 1<<10 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(expected))
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected))) //nolint:gosec // bounded above
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// NeedsUpgrade reports whether digest is not argon2id.
func (h *Argon2idHasher) NeedsUpgrade(digest string) bool {
	return !strings.HasPrefix(digest, "$argon2id$")
}

var (
	_ PasswordHasher = (*SHA512Hasher)(nil)
	_ PasswordHasher = (*Argon2idHasher)(nil)
)
