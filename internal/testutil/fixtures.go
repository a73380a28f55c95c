package testutil

import (
	"context"
	"errors"
	"fmt"
	mrand "math/rand"
	"sync"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
)

// ErrInjected is returned by FaultyKV when a failure is armed
var ErrInjected = errors.New("injected storage failure")

// Profile returns a complete user profile
func Profile() session.UserProfile {
	return session.UserProfile{
		ID:          "user-1",
		Email:       "asha@example.com",
		Name:        "Asha Rao",
		Phone:       "+91 98765 43210",
		BloodGroup:  "O+",
		DateOfBirth: "1994-03-18",
	}
}

// Contact returns a new-contact input with a numbered name and phone
func Contact(i int, emergency bool) contacts.NewContact {
	return contacts.NewContact{
		Name:         fmt.Sprintf("Contact %d", i),
		Phone:        fmt.Sprintf("+91 90000 %05d", i),
		Relationship: "Friend",
		IsEmergency:  emergency,
	}
}

// RandomContacts returns n contacts with a random emergency flag each
func RandomContacts(r *mrand.Rand, n int) []contacts.NewContact {
	out := make([]contacts.NewContact, n)
	for i := range out {
		out[i] = Contact(i, r.Intn(2) == 0)
	}
	return out
}

// FaultyKV wraps a MemoryKV and fails operations on demand
type FaultyKV struct {
	*storage.MemoryKV

	mu         sync.Mutex
	failGet    bool
	failSet    bool
	failDelete bool
	sets       int
}

// NewFaultyKV creates a working store; arm failures with the Fail* methods
func NewFaultyKV() *FaultyKV {
	return &FaultyKV{MemoryKV: storage.NewMemoryKV()}
}

func (f *FaultyKV) FailGet(on bool) { f.mu.Lock(); f.failGet = on; f.mu.Unlock() }
func (f *FaultyKV) FailSet(on bool) { f.mu.Lock(); f.failSet = on; f.mu.Unlock() }
func (f *FaultyKV) FailDelete(on bool) { f.mu.Lock(); f.failDelete = on; f.mu.Unlock() }

// Sets returns the number of Set calls seen
func (f *FaultyKV) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *FaultyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *FaultyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.sets++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *FaultyKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.MemoryKV.Delete(ctx, key)
}
