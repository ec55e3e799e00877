// internal/connections/pairkey.go
package connections

import "github.com/google/uuid"

// PairKey returns the canonical, order-independent key for two user ids:
// the smaller id first, joined with ':'. Both directions of the same pair
// produce the same key, which is what lets the store enforce "at most one
// pending request per unordered pair" with a single uniqueness constraint.
func PairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if bs < as {
		as, bs = bs, as
	}
	return as + ":" + bs
}
