package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/rageshop/internal/domain"
)

// ledger runs the account, house and guard statements against either the pool
// or a transaction.
type ledger struct {
	db dbtx
	q  *queries
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var banned int
	err := row.Scan(&a.Login, &a.Email, &a.PasswordHash, &a.Redbucks, &a.VIPLevel, &a.VIPDate,
		&a.CharacterID, &a.AvatarURL, &banned, &a.Warnings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Banned = banned != 0
	return &a, nil
}

func (l *ledger) GetAccountByLogin(ctx context.Context, login string) (*domain.Account, error) {
	return scanAccount(l.db.QueryRow(ctx, l.q.accountByLogin, login))
}

func (l *ledger) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(l.db.QueryRow(ctx, l.q.accountByEmail, email))
}

// UpdateColumns sets the non-nil fields of u.
func (l *ledger) UpdateColumns(ctx context.Context, login string, u domain.AccountUpdate) error {
	if u.Email != nil {
		tag, err := l.db.Exec(ctx, l.q.updateEmail, *u.Email, login)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("email already in use: %w", domain.ErrConflict)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}
	if u.PasswordHash != nil {
		tag, err := l.db.Exec(ctx, l.q.updatePassword, *u.PasswordHash, login)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (l *ledger) GetCharacter(ctx context.Context, uuid string) (*domain.Character, error) {
	var c domain.Character
	err := l.db.QueryRow(ctx, l.q.characterByUUID, uuid).Scan(&c.UUID, &c.FirstName, &c.LastName,
		&c.Gender, &c.Level, &c.Money, &c.Bank, &c.Faction, &c.FactionLevel, &c.AdminLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Profile loads the account and, when it has one, its active character.
func (l *ledger) Profile(ctx context.Context, login string) (*domain.Profile, error) {
	acc, err := l.GetAccountByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	p := &domain.Profile{Account: *acc}
	if acc.CharacterID == "" {
		return p, nil
	}
	chr, err := l.GetCharacter(ctx, acc.CharacterID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		p.Character = chr
	}
	return p, nil
}

func (l *ledger) IncrementBalance(ctx context.Context, login string, amount int64) error {
	tag, err := l.db.Exec(ctx, l.q.incrementBalance, amount, login)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %q: %w", login, domain.ErrNotFound)
	}
	return nil
}

// CharacterUUID returns the account's active character, empty if it has none.
func (l *ledger) CharacterUUID(ctx context.Context, login string) (string, error) {
	var uuid string
	err := l.db.QueryRow(ctx, l.q.characterUUID, login).Scan(&uuid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("account %q: %w", login, domain.ErrNotFound)
		}
		return "", err
	}
	return uuid, nil
}

// SetHouseOwnerIfUnset assigns the house only while it has no owner.
func (l *ledger) SetHouseOwnerIfUnset(ctx context.Context, houseID, ownerID string) (bool, error) {
	tag, err := l.db.Exec(ctx, l.q.setHouseOwner, ownerID, houseID)
	if err != nil {
		return false, fmt.Errorf("set house owner: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (l *ledger) ClearBan(ctx context.Context, login string) error {
	if _, err := l.db.Exec(ctx, l.q.clearBan, login); err != nil {
		return fmt.Errorf("clear ban: %w", err)
	}
	return nil
}

func (l *ledger) DecrementWarnings(ctx context.Context, login string) error {
	if _, err := l.db.Exec(ctx, l.q.decrementWarns, login); err != nil {
		return fmt.Errorf("decrement warnings: %w", err)
	}
	return nil
}

func scanHouse(row pgx.Row) (*domain.House, error) {
	var h domain.House
	if err := row.Scan(&h.ID, &h.Name, &h.PriceCents, &h.Owner); err != nil {
		return nil, err
	}
	return &h, nil
}

func (l *ledger) GetHouse(ctx context.Context, id string) (*domain.House, error) {
	h, err := scanHouse(l.db.QueryRow(ctx, l.q.houseByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return h, err
}

func (l *ledger) ListHouses(ctx context.Context) ([]domain.House, error) {
	rows, err := l.db.Query(ctx, l.q.listHouses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	houses := []domain.House{}
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, err
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}

// TestAndSet records sessionID in processed_sessions. A concurrent insert of the
// same id blocks until the other transaction ends, then sees the conflict.
func (l *ledger) TestAndSet(ctx context.Context, sessionID string) (bool, error) {
	tag, err := l.db.Exec(ctx,
		"INSERT INTO processed_sessions (session_id) VALUES ($1) ON CONFLICT (session_id) DO NOTHING",
		sessionID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
