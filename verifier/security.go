package verifier

import (
	"errors"
	"strings"
)

// maxTokenSize bounds the raw token. Real tokens are a few KB.
const maxTokenSize = 1 << 20

// checkTokenFormat rejects input that cannot be a compact JWS before any
// decoding happens: empty, oversized, or not exactly three segments.
func checkTokenFormat(raw string) error {
	if raw == "" {
		return errors.New("token is empty")
	}
	if len(raw) > maxTokenSize {
		return errors.New("token exceeds maximum size (1MB)")
	}
	if n := strings.Count(raw, "."); n != 2 {
		return errors.New("token must have exactly three segments")
	}
	return nil
}
