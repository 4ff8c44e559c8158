// Package identity derives stable lead identifiers from name and company.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Length is the number of hex characters kept from the digest. Distinct
// leads can collide at this length; the store tolerates that.
const Length = 12

// Normalize returns the canonical form of a name or company used for
// hashing: NFKC-normalized, case-folded, trimmed, internal whitespace
// collapsed to single spaces.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Generate returns the identifier for a (name, company) pair.
func Generate(name, company string) string {
	sum := sha256.Sum256([]byte(Normalize(name) + "|" + Normalize(company)))
	return hex.EncodeToString(sum[:])[:Length]
}
