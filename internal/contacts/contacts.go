// Package contacts manages the trusted-contacts list persisted under the
// nirbhaya_contacts record.
package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
)

// TrustedContact is someone to notify on SOS
type TrustedContact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	IsEmergency  bool   `json:"isEmergency"`
}

// NewContact is the input to Add
type NewContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	IsEmergency  bool   `json:"isEmergency"`
}

func (n NewContact) validate() error {
	var missing []string
	if strings.TrimSpace(n.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(n.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(n.Relationship) == "" {
		missing = append(missing, "relationship")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", apperrors.ErrInvalidContact, strings.Join(missing, ", "))
	}
	return nil
}

// Patch carries the fields to change; nil fields are left alone
type Patch struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
	IsEmergency  *bool   `json:"isEmergency,omitempty"`
}

func (p Patch) apply(c *TrustedContact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Relationship != nil {
		c.Relationship = *p.Relationship
	}
	if p.IsEmergency != nil {
		c.IsEmergency = *p.IsEmergency
	}
}

// Store is the contacts store. Every mutation persists the whole list
// before returning. All methods are safe for concurrent use.
type Store struct {
	kv     storage.KV
	logger *zap.Logger
	now    func() time.Time

	mu     sync.RWMutex
	list   []TrustedContact
	lastID int64
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the id clock
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store over kv; call Load to read persisted data
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Load replaces the in-memory list with the persisted one. An unreadable
// record is deleted and the list starts empty.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, storage.ContactsKey)
	if errors.Is(err, apperrors.ErrKeyNotFound) {
		s.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}

	var list []TrustedContact
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Warn("Discarding unreadable contacts record", zap.Error(err))
		s.replace(nil)
		if delErr := s.kv.Delete(ctx, storage.ContactsKey); delErr != nil {
			return fmt.Errorf("discard contacts: %w", delErr)
		}
		return nil
	}

	s.replace(list)
	return nil
}

func (s *Store) replace(list []TrustedContact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = list
	s.lastID = 0
	for _, c := range list {
		if n, err := strconv.ParseInt(c.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
}

// List returns a copy of all contacts in insertion order
func (s *Store) List() []TrustedContact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TrustedContact(nil), s.list...)
}

// Get returns one contact by id
func (s *Store) Get(id string) (TrustedContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.list {
		if c.ID == id {
			return c, nil
		}
	}
	return TrustedContact{}, apperrors.ErrContactNotFound
}

// EmergencyOnly returns the contacts flagged for SOS. It is derived on
// every call and never stored.
func (s *Store) EmergencyOnly() []TrustedContact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []TrustedContact
	for _, c := range s.list {
		if c.IsEmergency {
			out = append(out, c)
		}
	}
	return out
}

// nextID returns the creation time in milliseconds, bumped past the last
// issued id so ids stay unique within the list. Caller holds mu.
func (s *Store) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Add appends a contact with a fresh id and persists the list
func (s *Store) Add(ctx context.Context, in NewContact) (TrustedContact, error) {
	if err := in.validate(); err != nil {
		return TrustedContact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := TrustedContact{
		ID:           s.nextID(),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Relationship: strings.TrimSpace(in.Relationship),
		IsEmergency:  in.IsEmergency,
	}
	s.list = append(s.list, c)

	if err := s.persistLocked(ctx); err != nil {
		return c, err
	}
	s.logger.Debug("Contact added", zap.String("id", c.ID), zap.Bool("emergency", c.IsEmergency))
	return c, nil
}

// Update merges patch into the contact with id. The id never changes.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (TrustedContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.list {
		if s.list[i].ID != id {
			continue
		}
		patch.apply(&s.list[i])
		updated := s.list[i]
		if err := s.persistLocked(ctx); err != nil {
			return updated, err
		}
		return updated, nil
	}
	return TrustedContact{}, apperrors.ErrContactNotFound
}

// Delete removes the contact with id
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.list {
		if s.list[i].ID == id {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			return s.persistLocked(ctx)
		}
	}
	return apperrors.ErrContactNotFound
}

// Clear empties the list and removes the persisted record. It is the
// session logout hook.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.list = nil
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, storage.ContactsKey); err != nil {
		return fmt.Errorf("delete contacts: %w", err)
	}
	return nil
}

// persistLocked writes the full list. The in-memory list keeps the change
// even when the write fails. Caller holds mu.
func (s *Store) persistLocked(ctx context.Context) error {
	list := s.list
	if list == nil {
		list = []TrustedContact{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.ContactsKey, data); err != nil {
		s.logger.Warn("Failed to persist contacts", zap.Error(err))
		return fmt.Errorf("save contacts: %w", err)
	}
	return nil
}
