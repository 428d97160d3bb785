package accountkit

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// UUIDTokenSource issues random version-4 UUID strings as verification
// tokens. This is the default source; uniqueness comes from generator
// entropy plus the repository's token uniqueness constraint.
type UUIDTokenSource struct{}

func (UUIDTokenSource) NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

const rawTokenSize = 32

// RandomTokenSource issues 32 bytes of CSPRNG output, base64url-encoded
// without padding. Denser than a UUID for the same link length.
type RandomTokenSource struct{}

func (RandomTokenSource) NewToken() (string, error) {
	var raw [rawTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
