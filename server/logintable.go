package server

import "github.com/google/uuid"

// LoginTableEntry is the concrete home for the lookup SHello handling
// consults: since this relay has no external identity service, an
// operator-provisioned static table stands in for one.
type LoginTableEntry struct {
	PublicUUID  uuid.UUID
	PrivateUUID uuid.UUID
}

// LoginTable maps username to its provisioned entry.
type LoginTable map[string]LoginTableEntry

// Lookup returns the entry for username and whether it was found, treating
// an absent username identically to a present-but-mismatched one at the
// call site in Connection.handleLogin.
func (t LoginTable) Lookup(username string) (LoginTableEntry, bool) {
	e, ok := t[username]
	return e, ok
}
