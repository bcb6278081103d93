package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/rageshop/internal/config"
	"github.com/punchamoorthee/rageshop/internal/domain"
)

// CreateGameTables creates the account, character and house tables the game
// server normally owns. Only local development and integration tests use it.
func (s *Store) CreateGameTables(ctx context.Context, sc config.Schema) error {
	for _, stmt := range gameTablesDDL(sc) {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create game tables: %w", err)
		}
	}
	return nil
}

func gameTablesDDL(sc config.Schema) []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS " + ident(sc.AccountsTable) + ` (
			` + ident(sc.IDCol) + ` TEXT PRIMARY KEY,
			` + ident(sc.EmailCol) + ` TEXT UNIQUE,
			` + ident(sc.PasswordCol) + ` TEXT,
			` + ident(sc.RedbucksCol) + ` BIGINT NOT NULL DEFAULT 0,
			` + ident(sc.VIPLevelCol) + ` INTEGER NOT NULL DEFAULT 0,
			` + ident(sc.VIPDateCol) + ` TIMESTAMPTZ,
			` + ident(sc.CharacterCol) + ` TEXT,
			` + ident(sc.AvatarCol) + ` TEXT,
			` + ident(sc.BanCol) + ` INTEGER NOT NULL DEFAULT 0,
			` + ident(sc.WarnsCol) + ` INTEGER NOT NULL DEFAULT 0
		)`,
		"CREATE TABLE IF NOT EXISTS " + ident(sc.CharTable) + ` (
			` + ident(sc.CharUUIDCol) + ` TEXT PRIMARY KEY,
			` + ident(sc.CharFirstCol) + ` TEXT,
			` + ident(sc.CharLastCol) + ` TEXT,
			` + ident(sc.CharGenderCol) + ` INTEGER,
			` + ident(sc.CharLevelCol) + ` INTEGER,
			` + ident(sc.CharMoneyCol) + ` BIGINT,
			` + ident(sc.CharBankCol) + ` BIGINT,
			` + ident(sc.CharFactionCol) + ` INTEGER,
			` + ident(sc.CharFactionLvlCol) + ` INTEGER,
			` + ident(sc.CharAdminLvlCol) + ` INTEGER
		)`,
		"CREATE TABLE IF NOT EXISTS " + ident(sc.HousesTable) + ` (
			` + ident(sc.HouseIDCol) + ` INTEGER PRIMARY KEY,
			` + ident(sc.HouseNameCol) + ` TEXT,
			` + ident(sc.HousePriceCol) + ` BIGINT NOT NULL DEFAULT 0,
			` + ident(sc.HouseOwnerCol) + ` TEXT
		)`,
	}
}

// CopyAccounts bulk-loads accounts with COPY. Password hashes must already be set.
func (s *Store) CopyAccounts(ctx context.Context, sc config.Schema, accounts []domain.Account) (int64, error) {
	rows := make([][]any, 0, len(accounts))
	for _, a := range accounts {
		var char any
		if a.CharacterID != "" {
			char = a.CharacterID
		}
		ban := 0
		if a.Banned {
			ban = 1
		}
		rows = append(rows, []any{a.Login, a.Email, a.PasswordHash, a.Redbucks, char, ban, a.Warnings})
	}
	return s.db.CopyFrom(ctx,
		pgx.Identifier{sc.AccountsTable},
		[]string{sc.IDCol, sc.EmailCol, sc.PasswordCol, sc.RedbucksCol, sc.CharacterCol, sc.BanCol, sc.WarnsCol},
		pgx.CopyFromRows(rows),
	)
}

func (s *Store) CopyCharacters(ctx context.Context, sc config.Schema, chars []domain.Character) (int64, error) {
	rows := make([][]any, 0, len(chars))
	for _, c := range chars {
		rows = append(rows, []any{c.UUID, c.FirstName, c.LastName, int32(c.Level), c.Money, c.Bank})
	}
	return s.db.CopyFrom(ctx,
		pgx.Identifier{sc.CharTable},
		[]string{sc.CharUUIDCol, sc.CharFirstCol, sc.CharLastCol, sc.CharLevelCol, sc.CharMoneyCol, sc.CharBankCol},
		pgx.CopyFromRows(rows),
	)
}

func (s *Store) CopyHouses(ctx context.Context, sc config.Schema, houses []domain.House) (int64, error) {
	rows := make([][]any, 0, len(houses))
	for _, h := range houses {
		var id int32
		if _, err := fmt.Sscanf(h.ID, "%d", &id); err != nil {
			return 0, fmt.Errorf("house id %q is not numeric", h.ID)
		}
		var owner any
		if h.Owner != "" {
			owner = h.Owner
		}
		rows = append(rows, []any{id, h.Name, h.PriceCents, owner})
	}
	return s.db.CopyFrom(ctx,
		pgx.Identifier{sc.HousesTable},
		[]string{sc.HouseIDCol, sc.HouseNameCol, sc.HousePriceCol, sc.HouseOwnerCol},
		pgx.CopyFromRows(rows),
	)
}

// CountAccounts reports how many rows the accounts table holds.
func (s *Store) CountAccounts(ctx context.Context, sc config.Schema) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+ident(sc.AccountsTable)).Scan(&n)
	return n, err
}
