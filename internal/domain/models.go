package domain

import "time"

// Account is a game account row keyed by its login.
type Account struct {
	Login        string     `json:"login"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Redbucks     int64      `json:"redbucks"`
	VIPLevel     int        `json:"viplvl"`
	VIPDate      *time.Time `json:"vipdate"`
	CharacterID  string     `json:"character_uuid,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Banned       bool       `json:"banned"`
	Warnings     int        `json:"warns"`
}

// Character is the account's active in-game character.
type Character struct {
	UUID         string `json:"uuid"`
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname"`
	Gender       int    `json:"gender"`
	Level        int    `json:"lvl"`
	Money        int64  `json:"money"`
	Bank         int64  `json:"bank"`
	Faction      int    `json:"fraction"`
	FactionLevel int    `json:"fractionlvl"`
	AdminLevel   int    `json:"adminlvl"`
}

// Profile is what the profile page renders for the signed-in user.
type Profile struct {
	Account
	Character *Character `json:"character"`
}

// AccountUpdate carries the columns a user may change. Nil fields are left untouched.
type AccountUpdate struct {
	Email        *string
	PasswordHash *string
}

// House is a purchasable property. Owner holds a character uuid, empty when unowned.
type House struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price"`
	Owner      string `json:"owner"`
}

// Package is a catalog entry from SHOP_PACKAGES.
type Package struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Redbucks   int64  `json:"redbucks"`
}

// Event is a giveaway listing. Count and Joined are computed per viewer.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	When        string `json:"when"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Joined      bool   `json:"joined"`
}

// User is the session-bound identity.
type User struct {
	Login string `json:"login"`
	Email string `json:"email"`
}
