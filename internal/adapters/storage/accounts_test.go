package storage_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/mirrorbot/internal/adapters/storage"
	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts_NoMasterConfigured(t *testing.T) {
	store := newStore(t)

	_, err := store.GetMasterBroker(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoMasterBroker)
}

func TestAccounts_MasterAndFollowers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	masterID, err := store.UpsertBroker(ctx, domain.BrokerAccount{
		Name:        "master",
		Credentials: domain.Credentials{APIKey: "mk", APISecret: "ms"},
		IsActive:    true,
	})
	require.NoError(t, err)

	master, err := store.GetMasterBroker(ctx)
	require.NoError(t, err)
	assert.Equal(t, masterID, master.ID)
	assert.Equal(t, "mk", master.APIKey)
	assert.True(t, master.IsActive)

	_, err = store.UpsertFollower(ctx, masterID, domain.Follower{
		Name:        "ana",
		Credentials: domain.Credentials{APIKey: "fk1", APISecret: "fs1"},
		CopyMode:    domain.ModeMultiplier,
		Multiplier:  0.5,
	})
	require.NoError(t, err)

	_, err = store.UpsertFollower(ctx, masterID, domain.Follower{
		Name:        "beto",
		Credentials: domain.Credentials{APIKey: "fk2", APISecret: "fs2"},
		CopyMode:    domain.ModeFixedLot,
		FixedLot:    2,
		Status:      domain.StatusInactive,
	})
	require.NoError(t, err)

	followers, err := store.ListActiveFollowers(ctx, masterID)
	require.NoError(t, err)
	require.Len(t, followers, 1, "inactive followers must not mirror")
	assert.Equal(t, "ana", followers[0].Name)
	assert.Equal(t, domain.ModeMultiplier, followers[0].CopyMode)
	assert.InDelta(t, 0.5, followers[0].Multiplier, 0.001)
}

func TestAccounts_InactiveMasterIgnored(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.UpsertBroker(ctx, domain.BrokerAccount{
		Name:        "paused",
		Credentials: domain.Credentials{APIKey: "k", APISecret: "s"},
		IsActive:    false,
	})
	require.NoError(t, err)

	_, err = store.GetMasterBroker(ctx)
	assert.ErrorIs(t, err, storage.ErrNoMasterBroker)
}
