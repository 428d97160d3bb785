package accountkit

import "regexp"

// identityPattern is deliberately conservative: ASCII local and domain
// parts, no whitespace. It gatekeeps obviously malformed input; real
// ownership is proven by the verification link, not the shape check.
var identityPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

func validateIdentity(identity string) error {
	if !identityPattern.MatchString(identity) {
		return ErrInvalidIdentityFormat
	}
	return nil
}
