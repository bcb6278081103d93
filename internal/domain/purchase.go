package domain

import (
	"fmt"
	"strconv"
)

// Kind identifies what a checkout buys. The values travel in session metadata
// and must stay stable across deployments.
type Kind string

const (
	KindPackage  Kind = "package"
	KindCustom   Kind = "custom"
	KindHouse    Kind = "house"
	KindDonation Kind = "donation"
	KindSanction Kind = "sanction"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPackage, KindCustom, KindHouse, KindDonation, KindSanction:
		return true
	}
	return false
}

// SanctionAction is the sanction a buyer pays to lift.
type SanctionAction string

const (
	ActionUnban        SanctionAction = "unban"
	ActionTimedUnban   SanctionAction = "unban30"
	ActionUnwarn       SanctionAction = "unwarn"
	ActionDiscordUnban SanctionAction = "discord_unban"
)

// Session metadata keys.
const (
	MetaLogin    = "login"
	MetaType     = "type"
	MetaRedbucks = "rb"
	MetaHouseID  = "houseId"
	MetaAction   = "action"
)

// MaxMetadataValue is the longest value the provider accepts per metadata key.
const MaxMetadataValue = 500

// PurchaseIntent is built once per checkout request and is immutable after the
// payment session exists. Only the fields returned by Metadata survive the round trip.
type PurchaseIntent struct {
	Kind        Kind
	AmountMinor int64
	Currency    string
	BuyerLogin  string
	BuyerEmail  string
	ProductName string
	Redbucks    int64
	HouseID     string
	Action      SanctionAction
}

// Metadata encodes the intent as provider metadata.
func (p PurchaseIntent) Metadata() map[string]string {
	m := map[string]string{
		MetaLogin: p.BuyerLogin,
		MetaType:  string(p.Kind),
	}
	switch p.Kind {
	case KindPackage:
		m[MetaRedbucks] = strconv.FormatInt(p.Redbucks, 10)
	case KindHouse:
		m[MetaHouseID] = p.HouseID
	case KindSanction:
		m[MetaAction] = string(p.Action)
	}
	return m
}

// IntentFromMetadata restores the fields Metadata wrote. Amounts are not part
// of metadata; fulfillment takes them from the completion event.
func IntentFromMetadata(m map[string]string) (PurchaseIntent, error) {
	login := m[MetaLogin]
	if login == "" {
		return PurchaseIntent{}, fmt.Errorf("%w: metadata has no login", ErrInvalidRequest)
	}
	kind := Kind(m[MetaType])
	if !kind.Valid() {
		return PurchaseIntent{}, fmt.Errorf("%w: unknown purchase type %q", ErrInvalidRequest, m[MetaType])
	}

	intent := PurchaseIntent{Kind: kind, BuyerLogin: login}
	switch kind {
	case KindPackage:
		if raw := m[MetaRedbucks]; raw != "" {
			rb, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || rb < 0 || rb > MaxPackageRedbucks {
				return PurchaseIntent{}, fmt.Errorf("%w: bad redbucks quantity %q", ErrInvalidRequest, raw)
			}
			intent.Redbucks = rb
		}
	case KindHouse:
		intent.HouseID = m[MetaHouseID]
		if intent.HouseID == "" {
			return PurchaseIntent{}, fmt.Errorf("%w: metadata has no house id", ErrInvalidRequest)
		}
	case KindSanction:
		intent.Action = SanctionAction(m[MetaAction])
	}
	return intent, nil
}

// CheckoutRequest is the body of POST /api/create-checkout-session. It accepts
// both the typed shape and the older {category, id} shape.
type CheckoutRequest struct {
	Type      string     `json:"type"`
	Category  string     `json:"category"`
	ID        FlexString `json:"id"`
	Euros     FlexFloat  `json:"euros"`
	RB        FlexFloat  `json:"rb"`
	PackageID FlexString `json:"packageId"`
	HouseID   FlexString `json:"houseId"`
	Action    string     `json:"action"`
}

// Normalize maps the category shape onto Type and the kind-specific fields.
func (r *CheckoutRequest) Normalize() {
	if r.Type != "" || r.Category == "" {
		return
	}
	switch r.Category {
	case "rbpack":
		r.Type = string(KindPackage)
	case "redbucks-custom":
		r.Type = string(KindCustom)
	case "case":
		r.Type = string(KindHouse)
		r.HouseID = r.ID
	case "sanctiuni":
		r.Type = string(KindSanction)
		r.Action = string(r.ID)
	}
}

// CheckoutSession is returned to the browser to start the redirect.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
