package ws

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
)

var connSeq atomic.Uint64

// newConnID returns the identifier peers use to address relayed payloads.
// The sequential fallback only matters when the entropy source fails.
func newConnID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("conn-%d", connSeq.Add(1))
	}
	return hex.EncodeToString(buf)
}
