package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/punchamoorthee/rageshop/internal/config"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/punchamoorthee/rageshop/internal/fulfillment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *MemoryStore {
	m := NewMemoryStore()
	m.PutAccount(domain.Account{Login: "ana", Email: "ana@example.com", Redbucks: 10, CharacterID: "c1", Banned: true, Warnings: 1})
	m.PutAccount(domain.Account{Login: "bob", Email: "bob@example.com"})
	m.PutHouse(domain.House{ID: "2", Name: "B"})
	m.PutHouse(domain.House{ID: "1", Name: "A"})
	return m
}

func TestMemory_InTxRollsBackEveryWrite(t *testing.T) {
	m := seeded()
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.InTx(ctx, func(tx fulfillment.Tx) error {
		fresh, err := tx.TestAndSet(ctx, "cs_1")
		require.NoError(t, err)
		require.True(t, fresh)
		require.NoError(t, tx.IncrementBalance(ctx, "ana", 5))
		require.NoError(t, tx.ClearBan(ctx, "ana"))
		require.NoError(t, tx.DecrementWarnings(ctx, "ana"))
		ok, err := tx.SetHouseOwnerIfUnset(ctx, "1", "c1")
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	acc, err := m.GetAccountByLogin(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(10), acc.Redbucks)
	assert.True(t, acc.Banned)
	assert.Equal(t, 1, acc.Warnings)
	assert.False(t, m.Processed("cs_1"))

	h, err := m.GetHouse(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, h.Owner)
}

func TestMemory_TestAndSet(t *testing.T) {
	m := seeded()
	ctx := context.Background()

	for i, want := range []bool{true, false} {
		var got bool
		err := m.InTx(ctx, func(tx fulfillment.Tx) error {
			var err error
			got, err = tx.TestAndSet(ctx, "cs_1")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, got, "call %d", i)
	}
}

func TestMemory_ConcurrentTestAndSet(t *testing.T) {
	m := seeded()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.InTx(ctx, func(tx fulfillment.Tx) error {
				fresh, err := tx.TestAndSet(ctx, "cs_race")
				if err != nil || !fresh {
					return err
				}
				if err := tx.IncrementBalance(ctx, "bob", 1); err != nil {
					return err
				}
				mu.Lock()
				winners++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.True(t, m.Processed("cs_race"))
	acc, err := m.GetAccountByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Redbucks)
}

func TestMemory_Accounts(t *testing.T) {
	m := seeded()
	ctx := context.Background()

	acc, err := m.GetAccountByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", acc.Login)

	_, err = m.GetAccountByLogin(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)

	taken := "ana@example.com"
	err = m.UpdateColumns(ctx, "bob", domain.AccountUpdate{Email: &taken})
	require.ErrorIs(t, err, domain.ErrConflict)

	hash := "$2a$10$hash"
	require.NoError(t, m.UpdateColumns(ctx, "bob", domain.AccountUpdate{PasswordHash: &hash}))
	acc, err = m.GetAccountByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, hash, acc.PasswordHash)

	require.ErrorIs(t, m.IncrementBalance(ctx, "nobody", 1), domain.ErrNotFound)
}

func TestMemory_ProfileAndHouses(t *testing.T) {
	m := seeded()
	m.PutCharacter(domain.Character{UUID: "c1", FirstName: "Ana"})
	ctx := context.Background()

	p, err := m.Profile(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, p.Character)
	assert.Equal(t, "Ana", p.Character.FirstName)

	p, err = m.Profile(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, p.Character)

	houses, err := m.ListHouses(ctx)
	require.NoError(t, err)
	require.Len(t, houses, 2)
	assert.Equal(t, "1", houses[0].ID)

	ok, err := m.SetHouseOwnerIfUnset(ctx, "1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.SetHouseOwnerIfUnset(ctx, "1", "c2")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = m.SetHouseOwnerIfUnset(ctx, "99", "c2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Events(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, e := range DefaultEvents() {
		require.NoError(t, m.PutEvent(ctx, e))
		require.NoError(t, m.PutEvent(ctx, e))
	}

	n, err := m.JoinEvent(ctx, "truffade", "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = m.JoinEvent(ctx, "truffade", "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "joining twice counts once")
	n, err = m.JoinEvent(ctx, "truffade", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := m.ListEvents(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Joined)
	assert.Equal(t, 2, events[0].Count)

	n, err = m.LeaveEvent(ctx, "truffade", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.JoinEvent(ctx, "nope", "bob")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildQueries_QuotesIdentifiers(t *testing.T) {
	s := config.DefaultSchema()
	s.AccountsTable = `odd"name`
	q := buildQueries(s)

	assert.Contains(t, q.clearBan, `"IsBannedMP" = 0`)
	assert.Contains(t, q.incrementBalance, `UPDATE "odd""name" SET "redbucks" = COALESCE("redbucks", 0) + $1`)
	assert.Contains(t, q.decrementWarns, `GREATEST(COALESCE("Warns", 0) - 1, 0)`)
	assert.Contains(t, q.setHouseOwner, `COALESCE(CAST("owner" AS text), '') = ''`)
}
