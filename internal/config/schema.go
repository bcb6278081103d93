package config

// Schema maps logical ledger fields onto the game server's physical tables and
// columns. It is resolved once at startup; queries never read the environment.
type Schema struct {
	AccountsTable string
	IDCol         string
	EmailCol      string
	PasswordCol   string
	RedbucksCol   string
	VIPLevelCol   string
	VIPDateCol    string
	CharacterCol  string
	AvatarCol     string
	BanCol        string
	WarnsCol      string

	CharTable         string
	CharUUIDCol       string
	CharFirstCol      string
	CharLastCol       string
	CharGenderCol     string
	CharLevelCol      string
	CharMoneyCol      string
	CharBankCol       string
	CharFactionCol    string
	CharFactionLvlCol string
	CharAdminLvlCol   string

	HousesTable   string
	HouseIDCol    string
	HouseNameCol  string
	HousePriceCol string
	HouseOwnerCol string
}

// LoadSchema applies environment overrides to the default game schema.
func LoadSchema() Schema {
	s := DefaultSchema()
	for env, field := range map[string]*string{
		"ACCOUNTS_TABLE":          &s.AccountsTable,
		"ACCOUNTS_ID_COL":         &s.IDCol,
		"ACCOUNTS_EMAIL_COL":      &s.EmailCol,
		"ACCOUNTS_PASSWORD_COL":   &s.PasswordCol,
		"ACCOUNTS_REDBUCKS_COL":   &s.RedbucksCol,
		"ACCOUNTS_VIPLVL_COL":     &s.VIPLevelCol,
		"ACCOUNTS_VIPDATE_COL":    &s.VIPDateCol,
		"ACCOUNTS_CHARACTER1_COL": &s.CharacterCol,
		"ACCOUNTS_AVATAR_COL":     &s.AvatarCol,
		"CHARACTERS_BAN_COL":      &s.BanCol,
		"CHARACTERS_WARNS_COL":    &s.WarnsCol,
		"CHAR_TABLE":              &s.CharTable,
		"CHAR_UUID_COL":           &s.CharUUIDCol,
		"CHAR_FIRST_COL":          &s.CharFirstCol,
		"CHAR_LAST_COL":           &s.CharLastCol,
		"CHAR_GENDER_COL":         &s.CharGenderCol,
		"CHAR_LEVEL_COL":          &s.CharLevelCol,
		"CHAR_MONEY_COL":          &s.CharMoneyCol,
		"CHAR_BANK_COL":           &s.CharBankCol,
		"CHAR_FACTION_COL":        &s.CharFactionCol,
		"CHAR_FACTIONLVL_COL":     &s.CharFactionLvlCol,
		"CHAR_ADMINLVL_COL":       &s.CharAdminLvlCol,
		"HOUSES_TABLE":            &s.HousesTable,
		"HOUSES_ID_COL":           &s.HouseIDCol,
		"HOUSES_NAME_COL":         &s.HouseNameCol,
		"HOUSES_PRICE_COL":        &s.HousePriceCol,
		"HOUSES_OWNER_COL":        &s.HouseOwnerCol,
	} {
		*field = getenv(env, *field)
	}
	return s
}

func DefaultSchema() Schema {
	return Schema{
		AccountsTable: "accounts",
		IDCol:         "login",
		EmailCol:      "email",
		PasswordCol:   "password",
		RedbucksCol:   "redbucks",
		VIPLevelCol:   "viplvl",
		VIPDateCol:    "vipdate",
		CharacterCol:  "character1",
		AvatarCol:     "avatar_url",
		BanCol:        "IsBannedMP",
		WarnsCol:      "Warns",

		CharTable:         "characters",
		CharUUIDCol:       "uuid",
		CharFirstCol:      "firstname",
		CharLastCol:       "lastname",
		CharGenderCol:     "gender",
		CharLevelCol:      "lvl",
		CharMoneyCol:      "money",
		CharBankCol:       "bank",
		CharFactionCol:    "fraction",
		CharFactionLvlCol: "fractionlvl",
		CharAdminLvlCol:   "adminlvl",

		HousesTable:   "houses",
		HouseIDCol:    "id",
		HouseNameCol:  "name",
		HousePriceCol: "price",
		HouseOwnerCol: "owner",
	}
}
