// Package store holds the referential backbone of a generation run: every
// master-data entity registered so far, indexed for foreign key validation
// and parent-to-child traversal.
package store

import (
	"sync"

	"github.com/c360/datasynth/entity"
	"github.com/c360/datasynth/metric"
)

// childRef records one inbound reference for the reverse index.
type childRef struct {
	childType entity.Type
	childID   string
	field     string
}

// Store is an in-memory entity registry with referential integrity checks.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entities map[entity.Type]map[string]entity.Entity
	children map[entity.Type]map[string][]childRef

	metrics *metric.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics enables registration counters on the given collector.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates an empty store.
func New(options ...Option) *Store {
	s := &Store{
		entities: make(map[entity.Type]map[string]entity.Entity),
		children: make(map[entity.Type]map[string][]childRef),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Register validates and inserts a single entity. Validation covers duplicate
// IDs, dangling references and subtype constraints. On any failure the store
// is left untouched.
func (s *Store) Register(e entity.Entity) error {
	return s.RegisterAll(e)
}

// RegisterAll validates and inserts a batch of entities atomically: either
// every entity is registered or none is. Entities within the batch may
// reference each other regardless of order.
func (s *Store) RegisterAll(batch ...entity.Entity) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching any index.
	staged := make(map[entity.Type]map[string]entity.Entity, len(batch))
	for _, e := range batch {
		if err := s.validate(e, staged); err != nil {
			s.recordFailure(e, err)
			return err
		}
		if staged[e.EntityType()] == nil {
			staged[e.EntityType()] = make(map[string]entity.Entity)
		}
		staged[e.EntityType()][e.EntityID()] = e
	}

	for _, e := range batch {
		s.insert(e)
	}
	return nil
}

// validate checks one entity against the store plus the staged batch members.
func (s *Store) validate(e entity.Entity, staged map[entity.Type]map[string]entity.Entity) error {
	t, id := e.EntityType(), e.EntityID()

	if _, exists := s.entities[t][id]; exists {
		return &DuplicateEntityError{EntityType: t, EntityID: id}
	}
	if _, exists := staged[t][id]; exists {
		return &DuplicateEntityError{EntityType: t, EntityID: id}
	}

	for _, fk := range e.ForeignKeys() {
		ref, ok := s.entities[fk.RefType][fk.RefID]
		if !ok {
			ref, ok = staged[fk.RefType][fk.RefID]
		}
		if !ok {
			return &DanglingReferenceError{
				EntityType: t,
				EntityID:   id,
				Field:      fk.Field,
				RefType:    fk.RefType,
				RefID:      fk.RefID,
			}
		}
		if fk.RequireSubtype != "" && ref.Subtype() != fk.RequireSubtype {
			return &SubtypeMismatchError{
				EntityType: t,
				EntityID:   id,
				Field:      fk.Field,
				RefID:      fk.RefID,
				Expected:   fk.RequireSubtype,
				Actual:     ref.Subtype(),
			}
		}
	}
	return nil
}

// insert adds a validated entity to the primary and reverse indices.
// Caller holds the write lock.
func (s *Store) insert(e entity.Entity) {
	t, id := e.EntityType(), e.EntityID()

	if s.entities[t] == nil {
		s.entities[t] = make(map[string]entity.Entity)
	}
	s.entities[t][id] = e

	for _, fk := range e.ForeignKeys() {
		if s.children[fk.RefType] == nil {
			s.children[fk.RefType] = make(map[string][]childRef)
		}
		s.children[fk.RefType][fk.RefID] = append(s.children[fk.RefType][fk.RefID],
			childRef{childType: t, childID: id, field: fk.Field})
	}

	if s.metrics != nil {
		s.metrics.RecordEntityRegistered(string(t))
	}
}

func (s *Store) recordFailure(e entity.Entity, err error) {
	if s.metrics == nil {
		return
	}
	reason := "invalid"
	switch err.(type) {
	case *DuplicateEntityError:
		reason = "duplicate"
	case *DanglingReferenceError:
		reason = "dangling_reference"
	case *SubtypeMismatchError:
		reason = "subtype_mismatch"
	}
	s.metrics.RecordRegistrationFailure(string(e.EntityType()), reason)
}

// Get returns the registered entity with the given type and ID.
func (s *Store) Get(t entity.Type, id string) (entity.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[t][id]
	return e, ok
}

// ChildrenOf returns every entity referencing the given parent through the
// named field. An empty field matches all inbound references.
func (s *Store) ChildrenOf(t entity.Type, id, viaField string) []entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := s.children[t][id]
	result := make([]entity.Entity, 0, len(refs))
	for _, ref := range refs {
		if viaField != "" && ref.field != viaField {
			continue
		}
		if child, ok := s.entities[ref.childType][ref.childID]; ok {
			result = append(result, child)
		}
	}
	return result
}

// IDs returns the identifiers of every registered entity of the given type.
// Order is unspecified.
func (s *Store) IDs(t entity.Type) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entities[t]))
	for id := range s.entities[t] {
		ids = append(ids, id)
	}
	return ids
}

// All returns every registered entity of the given type. Order is unspecified.
func (s *Store) All(t entity.Type) []entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.Entity, 0, len(s.entities[t]))
	for _, e := range s.entities[t] {
		result = append(result, e)
	}
	return result
}

// Count returns the number of registered entities of the given type.
func (s *Store) Count(t entity.Type) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities[t])
}

// Counts returns registration counts for every entity type seen so far.
func (s *Store) Counts() map[entity.Type]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entity.Type]int, len(s.entities))
	for t, m := range s.entities {
		counts[t] = len(m)
	}
	return counts
}
