// Package ledger implements the transfer engine: the sole place in the
// codebase that moves money between wallets.
package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// generateReferenceID builds a caller-facing idempotency key of the
// form "<prefix>-<16 uppercase hex>" when the caller didn't supply one.
func generateReferenceID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unrecoverable on this platform;
		// panicking here surfaces it loudly instead of minting a colliding ID.
		panic("ledger: failed to read random bytes for reference id: " + err.Error())
	}
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(buf))
}
