package apiclient

import "strings"

// Credential is the bearer token attached to every request. It is always
// passed explicitly; the client never looks one up on its own.
type Credential string

func (c Credential) Empty() bool {
	return strings.TrimSpace(string(c)) == ""
}

func (c Credential) header() string {
	return "Bearer " + strings.TrimSpace(string(c))
}
