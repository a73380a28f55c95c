package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestSeedFromEnv(t *testing.T) {
	t.Setenv("NIRBHAYA_TEST_SEED", "42")
	assert.Equal(t, int64(42), GetTestSeed(t))
}

func TestRandomContactsDeterministic(t *testing.T) {
	t.Setenv("NIRBHAYA_TEST_SEED", "7")
	a := RandomContacts(NewRand(t), 20)
	b := RandomContacts(NewRand(t), 20)
	assert.Equal(t, a, b)
}

func TestFaultyKV(t *testing.T) {
	ctx := context.Background()
	kv := NewFaultyKV()

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	kv.FailSet(true)
	assert.ErrorIs(t, kv.Set(ctx, "k", []byte("w")), ErrInjected)
	assert.Equal(t, 2, kv.Sets())

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	kv.FailGet(true)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrInjected)

	kv.FailDelete(true)
	assert.ErrorIs(t, kv.Delete(ctx, "k"), ErrInjected)
}
