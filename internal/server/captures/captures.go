// Package captures archives face-scan images in S3-compatible object storage
// and fingerprints them for the twin resolution round trip.
package captures

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/attendance/internal/timex"
	"golang.org/x/crypto/blake2b"
)

// Archive stores capture images. Implementations must be safe for
// concurrent use.
type Archive interface {
	Put(ctx context.Context, key string, image []byte) error
}

// Digest returns the hex BLAKE2b-256 of image.
func Digest(image []byte) string {
	sum := blake2b.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Key is the object key of a capture: captures/<date>/<session>/<digest>.jpg.
func Key(date timex.Date, sessionID, digest string) string {
	return fmt.Sprintf("captures/%s/%s/%s.jpg", date, sessionID, digest)
}

// Noop discards captures; used when no bucket is configured.
type Noop struct{}

func (Noop) Put(context.Context, string, []byte) error { return nil }
