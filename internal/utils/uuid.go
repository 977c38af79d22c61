package utils

import (
	"os"

	"github.com/google/uuid"
)

// NewUID returns a fresh time-ordered identifier (UUIDv7), falling back to a
// random UUIDv4.
func NewUID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// MachineUID returns an identifier that is stable for the current host: a
// name-based UUIDv5 of the host name. When the host name is unavailable a
// random identifier is returned.
func MachineUID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return NewUID()
	}

	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(host)).String()
}
