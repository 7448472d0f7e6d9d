package staff

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrIntegrity = errors.New("referenced by other records")
)

// FieldErrors maps a json field name to its messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for field := range fe {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Err returns nil when there is nothing to report.
func (fe FieldErrors) Err(entity string) error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Fields: fe}
}

type ValidationError struct {
	Entity string
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(e.Fields.Fields(), ", "))
}

type IntegrityError struct {
	Entity       string
	ReferencedBy string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s is still referenced by at least one %s", e.Entity, e.ReferencedBy)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

func FieldError(entity, field, message string) error {
	return &ValidationError{Entity: entity, Fields: FieldErrors{field: {message}}}
}

// DuplicateError reports a unique constraint violation on field.
func DuplicateError(entity, field string) error {
	return FieldError(entity, field, fmt.Sprintf("%s with this %s already exists", entity, field))
}

// InvalidReferenceError reports a foreign key pointing at a missing row.
func InvalidReferenceError(entity, field string) error {
	return FieldError(entity, field, msgInvalidRef)
}
