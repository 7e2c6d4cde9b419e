// Package etag derives the weak validator exposed to clients from a cart's
// version token and normalizes client-supplied If-Match values for
// comparison. Two carts with equal version and timestamp are interchangeable
// for precondition checks, so the derivation is deterministic.
package etag

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func Compute(cartID uuid.UUID, version int64, updatedAt time.Time) string {
	return fmt.Sprintf(`W/"%s-%d-%d"`, cartID, version, updatedAt.Unix())
}

// Normalize strips the weak-validator prefix and surrounding quotes.
func Normalize(value string) string {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "W/")
	v = strings.TrimPrefix(v, "w/")
	return strings.Trim(v, `"`)
}

func Match(provided, current string) bool {
	return Normalize(provided) == Normalize(current)
}
