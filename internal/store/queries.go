package store

import (
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/rageshop/internal/config"
)

// queries holds SQL rendered once from the configured schema.
type queries struct {
	accountByLogin   string
	accountByEmail   string
	incrementBalance string
	characterUUID    string
	clearBan         string
	decrementWarns   string
	updateEmail      string
	updatePassword   string

	characterByUUID string

	houseByID     string
	listHouses    string
	setHouseOwner string
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func coalesce(col, def string) string {
	return "COALESCE(" + col + ", " + def + ")"
}

func asText(col string) string {
	return "COALESCE(CAST(" + col + " AS text), '')"
}

func buildQueries(s config.Schema) *queries {
	acc, id := ident(s.AccountsTable), ident(s.IDCol)
	accountCols := strings.Join([]string{
		asText(id),
		coalesce(ident(s.EmailCol), "''"),
		coalesce(ident(s.PasswordCol), "''"),
		coalesce(ident(s.RedbucksCol), "0"),
		coalesce(ident(s.VIPLevelCol), "0"),
		ident(s.VIPDateCol),
		asText(ident(s.CharacterCol)),
		coalesce(ident(s.AvatarCol), "''"),
		coalesce(ident(s.BanCol), "0"),
		coalesce(ident(s.WarnsCol), "0"),
	}, ", ")

	chr := ident(s.CharTable)
	charCols := strings.Join([]string{
		asText(ident(s.CharUUIDCol)),
		coalesce(ident(s.CharFirstCol), "''"),
		coalesce(ident(s.CharLastCol), "''"),
		coalesce(ident(s.CharGenderCol), "0"),
		coalesce(ident(s.CharLevelCol), "0"),
		coalesce(ident(s.CharMoneyCol), "0"),
		coalesce(ident(s.CharBankCol), "0"),
		coalesce(ident(s.CharFactionCol), "0"),
		coalesce(ident(s.CharFactionLvlCol), "0"),
		coalesce(ident(s.CharAdminLvlCol), "0"),
	}, ", ")

	houses, houseID, owner := ident(s.HousesTable), ident(s.HouseIDCol), ident(s.HouseOwnerCol)
	houseCols := strings.Join([]string{
		asText(houseID),
		coalesce(ident(s.HouseNameCol), "''"),
		coalesce(ident(s.HousePriceCol), "0"),
		asText(owner),
	}, ", ")

	redbucks, warns := ident(s.RedbucksCol), ident(s.WarnsCol)

	return &queries{
		accountByLogin:   "SELECT " + accountCols + " FROM " + acc + " WHERE " + id + " = $1 LIMIT 1",
		accountByEmail:   "SELECT " + accountCols + " FROM " + acc + " WHERE " + ident(s.EmailCol) + " = $1 LIMIT 1",
		incrementBalance: "UPDATE " + acc + " SET " + redbucks + " = " + coalesce(redbucks, "0") + " + $1 WHERE " + id + " = $2",
		characterUUID:    "SELECT " + asText(ident(s.CharacterCol)) + " FROM " + acc + " WHERE " + id + " = $1 LIMIT 1",
		clearBan:         "UPDATE " + acc + " SET " + ident(s.BanCol) + " = 0 WHERE " + id + " = $1",
		decrementWarns:   "UPDATE " + acc + " SET " + warns + " = GREATEST(" + coalesce(warns, "0") + " - 1, 0) WHERE " + id + " = $1",
		updateEmail:      "UPDATE " + acc + " SET " + ident(s.EmailCol) + " = $1 WHERE " + id + " = $2",
		updatePassword:   "UPDATE " + acc + " SET " + ident(s.PasswordCol) + " = $1 WHERE " + id + " = $2",

		characterByUUID: "SELECT " + charCols + " FROM " + chr + " WHERE CAST(" + ident(s.CharUUIDCol) + " AS text) = $1 LIMIT 1",

		houseByID:  "SELECT " + houseCols + " FROM " + houses + " WHERE CAST(" + houseID + " AS text) = $1 LIMIT 1",
		listHouses: "SELECT " + houseCols + " FROM " + houses + " ORDER BY " + houseID + " ASC",
		setHouseOwner: "UPDATE " + houses + " SET " + owner + " = $1 WHERE CAST(" + houseID + " AS text) = $2" +
			" AND " + asText(owner) + " = ''",
	}
}
