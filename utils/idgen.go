package utils

import "github.com/google/uuid"

// IDGenerator produces unique identifiers. Injected as a capability so ids
// are never built by string concatenation at call sites.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

// UUIDGenerator returns an IDGenerator backed by random UUIDs.
func UUIDGenerator() IDGenerator { return uuidGenerator{} }

func (uuidGenerator) NewID() string { return uuid.New().String() }
