package batches

import (
	"errors"
	"fmt"
)

// Resource names used in error messages.
const (
	ResourceBiochar   = "biochar batch"
	ResourceGraphene  = "graphene batch"
	ResourceAnalysis  = "analysis result"
	ResourceMilestone = "milestone"
	ResourceEquipment = "equipment"
)

// NotFoundError is returned when the requested record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// DuplicateNameError is returned when a record name is already taken.
type DuplicateNameError struct {
	Resource string
	Name     string
}

// Error implements the error interface.
func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("%s named %q already exists", e.Resource, e.Name)
}

// ValidationError is returned when input is well-formed JSON but semantically invalid.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrUnsupportedMedia is returned by a FileStore when an upload is not of an accepted type.
var ErrUnsupportedMedia = errors.New("unsupported media type")
