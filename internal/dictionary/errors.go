package dictionary

import "fmt"

// DuplicateNameError reports an Add whose name collides with an existing
// entity. Name matching is exact: case- and whitespace-sensitive.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("dictionary entity with name %q already exists", e.Name)
}

// NotFoundError reports an update or delete against an absent id. Repeat
// deletes surface this error rather than succeeding silently.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dictionary entity %q not found", e.ID)
}
