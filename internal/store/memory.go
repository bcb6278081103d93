package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/punchamoorthee/rageshop/internal/fulfillment"
)

// MemoryStore is a process-local ledger for tests and local development. One
// mutex covers all state, so InTx runs transactions strictly one after another.
type MemoryStore struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	characters map[string]*domain.Character
	houses     map[string]*domain.House
	processed  map[string]struct{}
	events     []*memEvent

	// failNext makes the next ledger write fail; tests use it to exercise rollback.
	failNext error
}

type memEvent struct {
	event        domain.Event
	participants map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[string]*domain.Account),
		characters: make(map[string]*domain.Character),
		houses:     make(map[string]*domain.House),
		processed:  make(map[string]struct{}),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) PutAccount(a domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Login] = &a
}

func (m *MemoryStore) PutCharacter(c domain.Character) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[c.UUID] = &c
}

func (m *MemoryStore) PutHouse(h domain.House) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.houses[h.ID] = &h
}

func (m *MemoryStore) PutEvent(_ context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.event.ID == e.ID {
			return nil
		}
	}
	m.events = append(m.events, &memEvent{event: e, participants: make(map[string]struct{})})
	return nil
}

// FailNextWrite makes the next ledger mutation return err.
func (m *MemoryStore) FailNextWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Processed reports whether sessionID is in the guard.
func (m *MemoryStore) Processed(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.processed[sessionID]
	return ok
}

// InTx holds the store lock for the whole of fn and undoes its writes if fn fails.
func (m *MemoryStore) InTx(_ context.Context, fn func(tx fulfillment.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// locked runs fn as a one-statement transaction.
func (m *MemoryStore) locked(fn func(tx *memTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memTx{m: m})
}

func (m *MemoryStore) GetAccountByLogin(_ context.Context, login string) (*domain.Account, error) {
	var out *domain.Account
	err := m.locked(func(tx *memTx) error {
		a, ok := m.accounts[login]
		if !ok {
			return domain.ErrNotFound
		}
		cp := *a
		out = &cp
		return nil
	})
	return out, err
}

func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	var out *domain.Account
	err := m.locked(func(tx *memTx) error {
		for _, a := range m.accounts {
			if a.Email == email {
				cp := *a
				out = &cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (m *MemoryStore) UpdateColumns(_ context.Context, login string, u domain.AccountUpdate) error {
	return m.locked(func(tx *memTx) error {
		a, ok := m.accounts[login]
		if !ok {
			return domain.ErrNotFound
		}
		if u.Email != nil {
			for _, other := range m.accounts {
				if other.Login != login && other.Email == *u.Email {
					return fmt.Errorf("email already in use: %w", domain.ErrConflict)
				}
			}
			a.Email = *u.Email
		}
		if u.PasswordHash != nil {
			a.PasswordHash = *u.PasswordHash
		}
		return nil
	})
}

func (m *MemoryStore) Profile(_ context.Context, login string) (*domain.Profile, error) {
	var out *domain.Profile
	err := m.locked(func(tx *memTx) error {
		a, ok := m.accounts[login]
		if !ok {
			return domain.ErrNotFound
		}
		out = &domain.Profile{Account: *a}
		if c, ok := m.characters[a.CharacterID]; ok && a.CharacterID != "" {
			cp := *c
			out.Character = &cp
		}
		return nil
	})
	return out, err
}

func (m *MemoryStore) GetHouse(_ context.Context, id string) (*domain.House, error) {
	var out *domain.House
	err := m.locked(func(tx *memTx) error {
		h, ok := m.houses[id]
		if !ok {
			return domain.ErrNotFound
		}
		cp := *h
		out = &cp
		return nil
	})
	return out, err
}

func (m *MemoryStore) ListHouses(context.Context) ([]domain.House, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	houses := make([]domain.House, 0, len(m.houses))
	for _, h := range m.houses {
		houses = append(houses, *h)
	}
	sort.Slice(houses, func(i, j int) bool { return houses[i].ID < houses[j].ID })
	return houses, nil
}

func (m *MemoryStore) IncrementBalance(ctx context.Context, login string, amount int64) error {
	return m.locked(func(tx *memTx) error { return tx.IncrementBalance(ctx, login, amount) })
}

func (m *MemoryStore) CharacterUUID(ctx context.Context, login string) (string, error) {
	var uuid string
	err := m.locked(func(tx *memTx) error {
		var err error
		uuid, err = tx.CharacterUUID(ctx, login)
		return err
	})
	return uuid, err
}

func (m *MemoryStore) SetHouseOwnerIfUnset(ctx context.Context, houseID, ownerID string) (bool, error) {
	var ok bool
	err := m.locked(func(tx *memTx) error {
		var err error
		ok, err = tx.SetHouseOwnerIfUnset(ctx, houseID, ownerID)
		return err
	})
	return ok, err
}

func (m *MemoryStore) ClearBan(ctx context.Context, login string) error {
	return m.locked(func(tx *memTx) error { return tx.ClearBan(ctx, login) })
}

func (m *MemoryStore) DecrementWarnings(ctx context.Context, login string) error {
	return m.locked(func(tx *memTx) error { return tx.DecrementWarnings(ctx, login) })
}

func (m *MemoryStore) ListEvents(_ context.Context, login string) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]domain.Event, 0, len(m.events))
	for _, ev := range m.events {
		e := ev.event
		e.Count = len(ev.participants)
		_, e.Joined = ev.participants[login]
		events = append(events, e)
	}
	return events, nil
}

func (m *MemoryStore) JoinEvent(_ context.Context, eventID, login string) (int, error) {
	return m.participation(eventID, func(p map[string]struct{}) { p[login] = struct{}{} })
}

func (m *MemoryStore) LeaveEvent(_ context.Context, eventID, login string) (int, error) {
	return m.participation(eventID, func(p map[string]struct{}) { delete(p, login) })
}

func (m *MemoryStore) participation(eventID string, change func(map[string]struct{})) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.event.ID == eventID {
			change(ev.participants)
			return len(ev.participants), nil
		}
	}
	return 0, domain.ErrNotFound
}

// memTx implements fulfillment.Tx with the store lock already held.
type memTx struct {
	m    *MemoryStore
	undo []func()
}

func (tx *memTx) checkFail() error {
	if err := tx.m.failNext; err != nil {
		tx.m.failNext = nil
		return err
	}
	return nil
}

func (tx *memTx) TestAndSet(_ context.Context, sessionID string) (bool, error) {
	if _, ok := tx.m.processed[sessionID]; ok {
		return false, nil
	}
	tx.m.processed[sessionID] = struct{}{}
	tx.undo = append(tx.undo, func() { delete(tx.m.processed, sessionID) })
	return true, nil
}

func (tx *memTx) IncrementBalance(_ context.Context, login string, amount int64) error {
	if err := tx.checkFail(); err != nil {
		return err
	}
	a, ok := tx.m.accounts[login]
	if !ok {
		return fmt.Errorf("account %q: %w", login, domain.ErrNotFound)
	}
	a.Redbucks += amount
	tx.undo = append(tx.undo, func() { a.Redbucks -= amount })
	return nil
}

func (tx *memTx) CharacterUUID(_ context.Context, login string) (string, error) {
	a, ok := tx.m.accounts[login]
	if !ok {
		return "", fmt.Errorf("account %q: %w", login, domain.ErrNotFound)
	}
	return a.CharacterID, nil
}

func (tx *memTx) SetHouseOwnerIfUnset(_ context.Context, houseID, ownerID string) (bool, error) {
	if err := tx.checkFail(); err != nil {
		return false, err
	}
	h, ok := tx.m.houses[houseID]
	if !ok || h.Owner != "" {
		return false, nil
	}
	h.Owner = ownerID
	tx.undo = append(tx.undo, func() { h.Owner = "" })
	return true, nil
}

func (tx *memTx) ClearBan(_ context.Context, login string) error {
	if err := tx.checkFail(); err != nil {
		return err
	}
	if a, ok := tx.m.accounts[login]; ok {
		prev := a.Banned
		a.Banned = false
		tx.undo = append(tx.undo, func() { a.Banned = prev })
	}
	return nil
}

func (tx *memTx) DecrementWarnings(_ context.Context, login string) error {
	if err := tx.checkFail(); err != nil {
		return err
	}
	if a, ok := tx.m.accounts[login]; ok && a.Warnings > 0 {
		a.Warnings--
		tx.undo = append(tx.undo, func() { a.Warnings++ })
	}
	return nil
}
