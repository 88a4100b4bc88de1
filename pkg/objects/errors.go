package objects

import "errors"

var (
	// ErrObjectTypeNotRegistered indicates an action configuration references
	// an object type nothing was registered for.
	ErrObjectTypeNotRegistered = errors.New("object type not registered")

	// ErrRecordNotFound indicates an update targeted a record id that does
	// not exist in the store.
	ErrRecordNotFound = errors.New("record not found")
)

// IsObjectTypeNotRegistered checks for the unregistered-type configuration error.
func IsObjectTypeNotRegistered(err error) bool {
	return errors.Is(err, ErrObjectTypeNotRegistered)
}
