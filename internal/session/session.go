// Package session holds the signed-in user profile and persists it under
// the nirbhaya_user record.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
)

// UserProfile is the signed-in user
type UserProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	BloodGroup   string `json:"bloodGroup"`
	DateOfBirth  string `json:"dateOfBirth"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ProfilePatch carries the fields to change; nil fields are left alone
type ProfilePatch struct {
	Email        *string `json:"email,omitempty"`
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	BloodGroup   *string `json:"bloodGroup,omitempty"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

func (p ProfilePatch) apply(u *UserProfile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Email, p.Email)
	set(&u.Name, p.Name)
	set(&u.Phone, p.Phone)
	set(&u.BloodGroup, p.BloodGroup)
	set(&u.DateOfBirth, p.DateOfBirth)
	set(&u.ProfileImage, p.ProfileImage)
}

// Wiper erases data tied to the signed-in user on logout
type Wiper interface {
	Clear(ctx context.Context) error
}

// Store is the session store. All methods are safe for concurrent use.
type Store struct {
	kv     storage.KV
	wipers []Wiper
	logger *zap.Logger

	mu   sync.RWMutex
	user *UserProfile
}

// NewStore creates a session store. Wipers run on Logout, in order.
func NewStore(kv storage.KV, logger *zap.Logger, wipers ...Wiper) *Store {
	return &Store{
		kv:     kv,
		wipers: wipers,
		logger: logging.OrNop(logger),
	}
}

// Load restores the persisted user. A record that does not parse is
// deleted and the session starts signed out.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, storage.UserKey)
	if errors.Is(err, apperrors.ErrKeyNotFound) {
		s.setUser(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	var u UserProfile
	if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
		s.logger.Warn("Discarding unreadable session record", zap.Error(err))
		s.setUser(nil)
		if delErr := s.kv.Delete(ctx, storage.UserKey); delErr != nil {
			return fmt.Errorf("discard session: %w", delErr)
		}
		return nil
	}

	s.setUser(&u)
	return nil
}

func (s *Store) setUser(u *UserProfile) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// CurrentUser returns a copy of the signed-in user
func (s *Store) CurrentUser() (UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return UserProfile{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// Login stores user as the signed-in profile. An empty id is filled with a
// fresh UUID.
func (s *Store) Login(ctx context.Context, user UserProfile) (UserProfile, error) {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return UserProfile{}, fmt.Errorf("%w: name is required", apperrors.ErrInvalidProfile)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	if err := s.persist(ctx, user); err != nil {
		return UserProfile{}, err
	}
	s.setUser(&user)
	s.logger.Info("Signed in", zap.String("user", user.ID))
	return user, nil
}

// UpdateProfile merges patch into the signed-in user and persists it
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) (UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return UserProfile{}, apperrors.ErrNotAuthenticated
	}

	updated := *s.user
	patch.apply(&updated)
	if strings.TrimSpace(updated.Name) == "" {
		return UserProfile{}, fmt.Errorf("%w: name is required", apperrors.ErrInvalidProfile)
	}

	if err := s.persist(ctx, updated); err != nil {
		return UserProfile{}, err
	}
	s.user = &updated
	return updated, nil
}

// Logout clears the session record and every registered wiper. The
// in-memory state is cleared even when a persistence step fails; the
// first failure is returned.
func (s *Store) Logout(ctx context.Context) error {
	s.setUser(nil)

	var errs []error
	if err := s.kv.Delete(ctx, storage.UserKey); err != nil {
		errs = append(errs, fmt.Errorf("delete session: %w", err))
	}
	for _, w := range s.wipers {
		if err := w.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("Signed out")
	return errors.Join(errs...)
}

func (s *Store) persist(ctx context.Context, u UserProfile) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.UserKey, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
