package identity

import "regexp"

// ZeroID is the portal's reserved "no reference" identifier.
const ZeroID = "000000000000000000000000"

var idRegexp = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ValidID reports whether s is a well-formed, non-sentinel participant or
// job-listing identifier. Invalid ids must never reach the network.
func ValidID(s string) bool {
	return s != ZeroID && idRegexp.MatchString(s)
}
