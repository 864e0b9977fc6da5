package approval

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateTokenID returns a 32-random-byte, base64url-encoded opaque
// token id. A JWT would add nothing here: consume-once semantics require
// server-side state regardless.
func generateTokenID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("approval: generate token id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
