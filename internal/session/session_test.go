package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
	"github.com/lcrostarosa/nirbhaya/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestLoginPersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()

	s := session.NewStore(kv, nil)
	require.NoError(t, s.Load(ctx))
	assert.False(t, s.IsAuthenticated())

	user, err := s.Login(ctx, testutil.Profile())
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	reloaded := session.NewStore(kv, nil)
	require.NoError(t, reloaded.Load(ctx))
	got, ok := reloaded.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, testutil.Profile(), got)
}

func TestLoginAssignsIDAndRequiresName(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(storage.NewMemoryKV(), nil)

	user, err := s.Login(ctx, session.UserProfile{Name: "  Meera  "})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Meera", user.Name)

	_, err = s.Login(ctx, session.UserProfile{Email: "x@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidProfile)
}

func TestUpdateProfileMerges(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := session.NewStore(kv, nil)

	_, err := s.UpdateProfile(ctx, session.ProfilePatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	_, err = s.Login(ctx, testutil.Profile())
	require.NoError(t, err)

	updated, err := s.UpdateProfile(ctx, session.ProfilePatch{
		BloodGroup: strPtr("AB-"),
		Phone:      strPtr("+91 90000 11111"),
	})
	require.NoError(t, err)
	assert.Equal(t, "AB-", updated.BloodGroup)
	assert.Equal(t, "+91 90000 11111", updated.Phone)
	assert.Equal(t, "Asha Rao", updated.Name, "untouched fields survive")

	reloaded := session.NewStore(kv, nil)
	require.NoError(t, reloaded.Load(ctx))
	got, _ := reloaded.CurrentUser()
	assert.Equal(t, updated, got)

	_, err = s.UpdateProfile(ctx, session.ProfilePatch{Name: strPtr(" ")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidProfile)
}

func TestLoadDiscardsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, storage.UserKey, []byte(`{"id": 12`)))

	s := session.NewStore(kv, nil)
	require.NoError(t, s.Load(ctx))
	assert.False(t, s.IsAuthenticated())

	_, err := kv.Get(ctx, storage.UserKey)
	assert.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestLoadSurfacesBackendFailure(t *testing.T) {
	kv := testutil.NewFaultyKV()
	kv.FailGet(true)
	s := session.NewStore(kv, nil)
	assert.ErrorIs(t, s.Load(context.Background()), testutil.ErrInjected)
}

func TestLogoutWipesContacts(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	book := contacts.NewStore(kv)
	s := session.NewStore(kv, nil, book)

	_, err := s.Login(ctx, testutil.Profile())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := book.Add(ctx, testutil.Contact(i, i%2 == 0))
		require.NoError(t, err)
	}

	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, book.List())

	_, err = kv.Get(ctx, storage.UserKey)
	assert.ErrorIs(t, err, apperrors.ErrKeyNotFound)
	_, err = kv.Get(ctx, storage.ContactsKey)
	assert.ErrorIs(t, err, apperrors.ErrKeyNotFound)

	// A fresh process sees nothing either.
	freshBook := contacts.NewStore(kv)
	require.NoError(t, freshBook.Load(ctx))
	assert.Empty(t, freshBook.List())

	freshSession := session.NewStore(kv, nil)
	require.NoError(t, freshSession.Load(ctx))
	assert.False(t, freshSession.IsAuthenticated())
	_, ok := freshSession.CurrentUser()
	assert.False(t, ok)
}

func TestLogoutClearsMemoryEvenWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFaultyKV()
	s := session.NewStore(kv, nil)
	_, err := s.Login(ctx, testutil.Profile())
	require.NoError(t, err)

	kv.FailDelete(true)
	err = s.Logout(ctx)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.False(t, s.IsAuthenticated())
}
