package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBonusPct_TierBoundaries(t *testing.T) {
	tests := map[int64]float64{
		1: 0, 9: 0,
		10: 0.05, 19: 0.05,
		20: 0.10, 49: 0.10,
		50: 0.15, 99: 0.15,
		100: 0.20, 199: 0.20,
		200: 0.25, 999: 0.25,
	}
	for euros, want := range tests {
		assert.Equal(t, want, BonusPct(euros), "euros=%d", euros)
	}
}

func TestClampEuros(t *testing.T) {
	assert.Equal(t, int64(1), ClampEuros(0))
	assert.Equal(t, int64(1), ClampEuros(-40))
	assert.Equal(t, int64(1), ClampEuros(math.NaN()))
	assert.Equal(t, int64(12), ClampEuros(12.99))
	assert.Equal(t, int64(999), ClampEuros(1000))
	assert.Equal(t, int64(999), ClampEuros(math.Inf(1)))
}

func TestCustomRedbucks(t *testing.T) {
	assert.Equal(t, int64(1), CustomRedbucks(-5))
	assert.Equal(t, int64(1), CustomRedbucks(150))
	assert.Equal(t, int64(16), CustomRedbucks(1500))
	assert.Equal(t, int64(1249), CustomRedbucks(99900))
}

func TestSanctionPricing(t *testing.T) {
	assert.Equal(t, int64(25), SanctionPriceEuros(ActionUnban))
	assert.Equal(t, int64(15), SanctionPriceEuros(ActionTimedUnban))
	assert.Equal(t, int64(10), SanctionPriceEuros(ActionUnwarn))
	assert.Equal(t, int64(10), SanctionPriceEuros(ActionDiscordUnban))
	assert.Equal(t, int64(10), SanctionPriceEuros("mute"))
	assert.Equal(t, "Sanction removal", SanctionLabel("mute"))
}

func TestIntentMetadataRoundTrip(t *testing.T) {
	intents := []PurchaseIntent{
		{Kind: KindPackage, BuyerLogin: "ana", Redbucks: 500},
		{Kind: KindCustom, BuyerLogin: "ana"},
		{Kind: KindHouse, BuyerLogin: "ana", HouseID: "12"},
		{Kind: KindSanction, BuyerLogin: "ana", Action: ActionUnban},
		{Kind: KindDonation, BuyerLogin: "ana"},
	}
	for _, in := range intents {
		out, err := IntentFromMetadata(in.Metadata())
		require.NoError(t, err, in.Kind)
		assert.Equal(t, in, out)
	}
}

func TestIntentFromMetadata_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"nil":          nil,
		"no login":     {MetaType: "custom"},
		"no type":      {MetaLogin: "ana"},
		"unknown type": {MetaLogin: "ana", MetaType: "crate"},
		"bad rb":       {MetaLogin: "ana", MetaType: "package", MetaRedbucks: "1.5"},
		"rb above cap": {MetaLogin: "ana", MetaType: "package", MetaRedbucks: "4611686018427388928"},
		"negative rb":  {MetaLogin: "ana", MetaType: "package", MetaRedbucks: "-5"},
		"house no id":  {MetaLogin: "ana", MetaType: "house"},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := IntentFromMetadata(m)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestCheckoutRequest_LegacyShape(t *testing.T) {
	var req CheckoutRequest
	require.NoError(t, json.Unmarshal([]byte(`{"category":"case","id":42}`), &req))
	req.Normalize()
	assert.Equal(t, "house", req.Type)
	assert.Equal(t, FlexString("42"), req.HouseID)

	req = CheckoutRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"category":"rbpack","rb":"250"}`), &req))
	req.Normalize()
	assert.Equal(t, "package", req.Type)
	assert.Equal(t, FlexFloat(250), req.RB)

	req = CheckoutRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"category":"redbucks-custom","euros":"abc"}`), &req))
	req.Normalize()
	assert.Equal(t, "custom", req.Type)
	assert.Zero(t, req.Euros)

	req = CheckoutRequest{Type: "donation", Category: "case"}
	req.Normalize()
	assert.Equal(t, "donation", req.Type, "explicit type wins")
}

func TestCompletionEventFromSession(t *testing.T) {
	s := PaymentSession{ID: "cs_1", PaymentStatus: PaymentStatusPaid, AmountTotal: 700, Metadata: map[string]string{"login": "ana"}}
	ev := s.CompletionEvent(ChannelPoll)
	assert.Equal(t, CompletionEvent{
		SessionID:       "cs_1",
		PaymentStatus:   PaymentStatusPaid,
		AmountPaidMinor: 700,
		Metadata:        map[string]string{"login": "ana"},
		Channel:         ChannelPoll,
	}, ev)
}
