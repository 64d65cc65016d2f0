package core

import "github.com/google/uuid"

// Identifier tags long-lived objects (renderer instances, asset indexes) in logs.
type Identifier struct {
	ID   uuid.UUID
	Name string
}

func NewIdentifier(name string) Identifier {
	return Identifier{
		ID:   uuid.New(),
		Name: name,
	}
}

func (i Identifier) String() string {
	return i.Name + "#" + i.ID.String()[:8]
}
