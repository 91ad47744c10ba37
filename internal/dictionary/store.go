// Package dictionary implements the durable named-entity dictionary: a
// user-curated table of original value → placeholder label overrides that
// the encoder consults before assigning fresh identifiers. Two drivers are
// provided, an in-memory store and a PostgreSQL store.
package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/safedialog/safedialog/internal/entity"
)

// Entity is the persisted form of a sensitive entity. It carries no
// session-specific identifiers; its id is generated once at creation.
type Entity struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Placeholder string    `json:"placeholder" db:"placeholder"`
	Category    string    `json:"category,omitempty" db:"category"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Sensitive converts the dictionary record into its session form.
func (e Entity) Sensitive() entity.SensitiveEntity {
	return entity.SensitiveEntity{
		ID:          e.ID,
		Name:        e.Name,
		Placeholder: e.Placeholder,
		Category:    e.Category,
	}
}

// Update carries partial field changes; nil fields are left untouched.
type Update struct {
	Name        *string
	Placeholder *string
	Category    *string
}

// Store is the dictionary CRUD contract. Mutations are linearizable with
// respect to each other; a concurrent add/update/delete never corrupts the
// name-uniqueness invariant. Every mutation invalidates cached name-keyed
// encoder lookup tables so subsequent masking calls see the change
// immediately.
type Store interface {
	// List returns all entities ordered by creation time.
	List(ctx context.Context) ([]Entity, error)

	// Add creates a new entity. It fails with DuplicateNameError when name
	// already exists (case- and whitespace-sensitive exact match).
	Add(ctx context.Context, name, placeholder, category string) (Entity, error)

	// Update applies partial changes to an entity, failing with
	// NotFoundError when id is absent.
	Update(ctx context.Context, id string, upd Update) (Entity, error)

	// Delete removes an entity. A repeat delete fails with NotFoundError;
	// the error is never swallowed.
	Delete(ctx context.Context, id string) error

	// Snapshot returns an immutable name-keyed read view for one encoding
	// pass.
	Snapshot(ctx context.Context) (*Index, error)

	Close() error
}

// Index is an immutable name → entity lookup table built from one store
// snapshot. It is safe for concurrent readers.
type Index struct {
	byName map[string]Entity
	names  []string
}

// NewIndex builds an index over the given entities.
func NewIndex(entities []Entity) *Index {
	idx := &Index{byName: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		if _, dup := idx.byName[e.Name]; dup {
			continue
		}
		idx.byName[e.Name] = e
		idx.names = append(idx.names, e.Name)
	}
	return idx
}

// Lookup returns the entity pinned to the exact name, if present.
func (i *Index) Lookup(name string) (Entity, bool) {
	if i == nil {
		return Entity{}, false
	}
	e, ok := i.byName[name]
	return e, ok
}

// Names returns all indexed names in snapshot order.
func (i *Index) Names() []string {
	if i == nil {
		return nil
	}
	return i.names
}

// Len returns the number of indexed names.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.names)
}

// validateFields checks the shared add/update invariants.
func validateFields(name, placeholder string) error {
	if err := entityNameValid(name); err != nil {
		return err
	}
	return placeholderValid(placeholder)
}

func entityNameValid(name string) error {
	if err := entity.ValidateName(name); err != nil {
		return fmt.Errorf("invalid entity: %w", err)
	}
	return nil
}

func placeholderValid(placeholder string) error {
	if err := entity.ValidatePlaceholder(placeholder); err != nil {
		return fmt.Errorf("invalid entity: %w", err)
	}
	return nil
}
