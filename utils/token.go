package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewLinkToken generates an opaque 32-character token for an expiring
// link. The token is the only credential needed to resolve the link, so
// it must be unguessable; a random UUID gives 122 bits of entropy.
func NewLinkToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
