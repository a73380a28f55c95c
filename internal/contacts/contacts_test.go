package contacts_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
	"github.com/lcrostarosa/nirbhaya/internal/testutil"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestAddAssignsTimestampIDs(t *testing.T) {
	ctx := context.Background()
	s := contacts.NewStore(storage.NewMemoryKV(), contacts.WithClock(fixedClock(1700000000000)))

	a, err := s.Add(ctx, testutil.Contact(1, true))
	require.NoError(t, err)
	b, err := s.Add(ctx, testutil.Contact(2, false))
	require.NoError(t, err)

	assert.Equal(t, "1700000000000", a.ID)
	assert.Equal(t, "1700000000001", b.ID, "ids stay unique within the same millisecond")
	assert.Equal(t, []contacts.TrustedContact{a, b}, s.List())
}

func TestIDsUniqueUnderConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := contacts.NewStore(storage.NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Add(ctx, testutil.Contact(i, false))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, c := range s.List() {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
	assert.Len(t, seen, 50)
}

func TestAddValidation(t *testing.T) {
	s := contacts.NewStore(storage.NewMemoryKV())
	_, err := s.Add(context.Background(), contacts.NewContact{Name: "Only Name"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidContact)
	assert.ErrorContains(t, err, "phone, relationship")
	assert.Empty(t, s.List())
}

func TestRoundTripPersistence(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := contacts.NewStore(kv)

	a, err := s.Add(ctx, testutil.Contact(1, true))
	require.NoError(t, err)
	b, err := s.Add(ctx, testutil.Contact(2, false))
	require.NoError(t, err)
	c, err := s.Add(ctx, testutil.Contact(3, true))
	require.NoError(t, err)

	name := "Renamed"
	flag := true
	_, err = s.Update(ctx, b.ID, contacts.Patch{Name: &name, IsEmergency: &flag})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, a.ID))

	reloaded := contacts.NewStore(kv)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, s.List(), reloaded.List())

	got, err := reloaded.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.IsEmergency)
	assert.Equal(t, b.Phone, got.Phone, "patch leaves other fields alone")

	assert.Equal(t, []string{b.ID, c.ID}, ids(reloaded.List()))
}

func TestUpdateAndDeleteUnknownID(t *testing.T) {
	ctx := context.Background()
	s := contacts.NewStore(storage.NewMemoryKV())

	_, err := s.Update(ctx, "nope", contacts.Patch{})
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nope"), apperrors.ErrContactNotFound)
}

func TestEmergencyOnlyMatchesFilter(t *testing.T) {
	ctx := context.Background()
	r := testutil.NewRand(t)

	for round := 0; round < 20; round++ {
		s := contacts.NewStore(storage.NewMemoryKV())

		// Model kept apart from the store: insertion order and flags.
		var order []string
		flags := map[string]bool{}
		names := map[string]string{}

		for step := 0; step < 40; step++ {
			switch op := r.Intn(3); {
			case op == 0 || len(order) == 0:
				in := testutil.RandomContacts(r, 1)[0]
				c, err := s.Add(ctx, in)
				require.NoError(t, err)
				order = append(order, c.ID)
				flags[c.ID] = in.IsEmergency
				names[c.ID] = in.Name
			case op == 1:
				id := order[r.Intn(len(order))]
				flag := r.Intn(2) == 0
				patch := contacts.Patch{IsEmergency: &flag}
				if r.Intn(2) == 0 {
					name := fmt.Sprintf("Renamed %d", step)
					patch.Name = &name
					names[id] = name
				}
				_, err := s.Update(ctx, id, patch)
				require.NoError(t, err)
				flags[id] = flag
			default:
				i := r.Intn(len(order))
				require.NoError(t, s.Delete(ctx, order[i]))
				delete(flags, order[i])
				delete(names, order[i])
				order = append(order[:i], order[i+1:]...)
			}

			var wantIDs, wantNames []string
			for _, id := range order {
				if flags[id] {
					wantIDs = append(wantIDs, id)
					wantNames = append(wantNames, names[id])
				}
			}
			var gotIDs, gotNames []string
			for _, c := range s.EmergencyOnly() {
				assert.True(t, c.IsEmergency)
				gotIDs = append(gotIDs, c.ID)
				gotNames = append(gotNames, c.Name)
			}
			require.Equal(t, wantIDs, gotIDs, "round %d step %d", round, step)
			require.Equal(t, wantNames, gotNames, "round %d step %d", round, step)
			require.Len(t, s.List(), len(order))
		}
	}
}

func TestLoadDiscardsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, storage.ContactsKey, []byte(`{"not":"a list"}`)))

	s := contacts.NewStore(kv)
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.List())

	_, err := kv.Get(ctx, storage.ContactsKey)
	assert.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestLoadContinuesIDsAfterReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	clock := fixedClock(1000)

	first := contacts.NewStore(kv, contacts.WithClock(clock))
	_, err := first.Add(ctx, testutil.Contact(1, false))
	require.NoError(t, err)
	_, err = first.Add(ctx, testutil.Contact(2, false))
	require.NoError(t, err)

	second := contacts.NewStore(kv, contacts.WithClock(clock))
	require.NoError(t, second.Load(ctx))
	c, err := second.Add(ctx, testutil.Contact(3, false))
	require.NoError(t, err)
	assert.Equal(t, "1002", c.ID)
}

func TestPersistFailureIsReported(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFaultyKV()
	s := contacts.NewStore(kv)

	kv.FailSet(true)
	c, err := s.Add(ctx, testutil.Contact(1, true))
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Equal(t, []contacts.TrustedContact{c}, s.List(), "memory keeps the last write")

	kv.FailSet(false)
	_, err = s.Add(ctx, testutil.Contact(2, true))
	require.NoError(t, err)

	reloaded := contacts.NewStore(kv)
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.List(), 2, "next successful write persists the whole list")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := contacts.NewStore(kv)
	_, err := s.Add(ctx, testutil.Contact(1, true))
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.List())
	assert.Empty(t, s.EmergencyOnly())
	_, err = kv.Get(ctx, storage.ContactsKey)
	assert.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func ids(list []contacts.TrustedContact) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}
