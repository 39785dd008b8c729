package store

import (
	"fmt"

	"github.com/c360/datasynth/entity"
)

// DanglingReferenceError reports a foreign key pointing at an entity that was
// never registered.
type DanglingReferenceError struct {
	EntityType entity.Type
	EntityID   string
	Field      string
	RefType    entity.Type
	RefID      string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s %q: field %s references unknown %s %q",
		e.EntityType, e.EntityID, e.Field, e.RefType, e.RefID)
}

// SubtypeMismatchError reports a foreign key whose target exists but carries
// the wrong subtype, such as a trade referencing a checking account.
type SubtypeMismatchError struct {
	EntityType entity.Type
	EntityID   string
	Field      string
	RefID      string
	Expected   string
	Actual     string
}

func (e *SubtypeMismatchError) Error() string {
	return fmt.Sprintf("%s %q: field %s requires subtype %s, referenced entity %q has %s",
		e.EntityType, e.EntityID, e.Field, e.Expected, e.RefID, e.Actual)
}

// DuplicateEntityError reports a registration reusing an existing ID.
type DuplicateEntityError struct {
	EntityType entity.Type
	EntityID   string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s %q already registered", e.EntityType, e.EntityID)
}
