package service

import "github.com/google/uuid"

// newID returns a short prefixed identifier, e.g. "ur_1a2b3c4d".
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
