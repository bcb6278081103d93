package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakeProvider struct {
	calls []domain.SessionRequest
	err   error
}

func (f *fakeProvider) CreateSession(_ context.Context, req domain.SessionRequest) (*domain.PaymentSession, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PaymentSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

type fakeHouses map[string]domain.House

func (f fakeHouses) GetHouse(_ context.Context, id string) (*domain.House, error) {
	h, ok := f[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &h, nil
}

var buyer = domain.User{Login: "ana", Email: "ana@example.com"}

func newInitiator(p *fakeProvider) *Initiator {
	houses := fakeHouses{
		"7": {ID: "7", Name: "Vinewood", PriceCents: 50000},
		"8": {ID: "8", PriceCents: 20},
		"9": {ID: "9", PriceCents: 9000, Owner: "char-1"},
	}
	packs := []domain.Package{
		{ID: "starter", Name: "Starter", PriceCents: 499, Redbucks: 500},
		{ID: "broken", PriceCents: 0, Redbucks: 10},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewInitiator(p, houses, packs, "eur", "https://shop.example/", logger)
}

func TestCreateCheckout_Pricing(t *testing.T) {
	tests := []struct {
		name   string
		req    domain.CheckoutRequest
		amount int64
		meta   map[string]string
	}{
		{"package by rb", domain.CheckoutRequest{Type: "package", RB: 250.7}, 25000,
			map[string]string{"login": "ana", "type": "package", "rb": "250"}},
		{"package at rb cap", domain.CheckoutRequest{Type: "package", RB: domain.MaxPackageRedbucks}, 99999900,
			map[string]string{"login": "ana", "type": "package", "rb": "999999"}},
		{"package by catalog id", domain.CheckoutRequest{Type: "package", PackageID: "starter"}, 499,
			map[string]string{"login": "ana", "type": "package", "rb": "500"}},
		{"custom clamps high", domain.CheckoutRequest{Type: "custom", Euros: 5000}, 99900,
			map[string]string{"login": "ana", "type": "custom"}},
		{"custom clamps low", domain.CheckoutRequest{Type: "custom", Euros: 0.4}, 100,
			map[string]string{"login": "ana", "type": "custom"}},
		{"donation floors", domain.CheckoutRequest{Type: "donation", Euros: 12.99}, 1200,
			map[string]string{"login": "ana", "type": "donation"}},
		{"house", domain.CheckoutRequest{Type: "house", HouseID: "7"}, 50000,
			map[string]string{"login": "ana", "type": "house", "houseId": "7"}},
		{"house minimum charge", domain.CheckoutRequest{Type: "house", HouseID: "8"}, 100,
			map[string]string{"login": "ana", "type": "house", "houseId": "8"}},
		{"sanction unban", domain.CheckoutRequest{Type: "sanction", Action: "unban"}, 2500,
			map[string]string{"login": "ana", "type": "sanction", "action": "unban"}},
		{"sanction timed unban", domain.CheckoutRequest{Type: "sanction", Action: "unban30"}, 1500,
			map[string]string{"login": "ana", "type": "sanction", "action": "unban30"}},
		{"sanction unknown action", domain.CheckoutRequest{Type: "sanction", Action: "mute"}, 1000,
			map[string]string{"login": "ana", "type": "sanction", "action": "mute"}},
		{"legacy category case", domain.CheckoutRequest{Category: "case", ID: "7"}, 50000,
			map[string]string{"login": "ana", "type": "house", "houseId": "7"}},
		{"legacy category sanctiuni", domain.CheckoutRequest{Category: "sanctiuni", ID: "unwarn"}, 1000,
			map[string]string{"login": "ana", "type": "sanction", "action": "unwarn"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{}
			sess, err := newInitiator(p).CreateCheckout(context.Background(), buyer, tc.req)
			require.NoError(t, err)
			assert.Equal(t, "cs_test", sess.ID)
			assert.Equal(t, "https://checkout.example/cs_test", sess.URL)

			require.Len(t, p.calls, 1)
			call := p.calls[0]
			assert.Equal(t, tc.amount, call.AmountMinor)
			assert.Equal(t, tc.meta, call.Metadata)
			assert.Equal(t, "eur", call.Currency)
			assert.Equal(t, "ana@example.com", call.CustomerEmail)
			assert.Equal(t, "https://shop.example/success.html?sid={CHECKOUT_SESSION_ID}", call.SuccessURL)
			assert.Equal(t, "https://shop.example/index.html", call.CancelURL)
		})
	}
}

func TestCreateCheckout_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  domain.CheckoutRequest
		want error
	}{
		{"package without rb or id", domain.CheckoutRequest{Type: "package"}, domain.ErrInvalidRequest},
		{"package rb below one", domain.CheckoutRequest{Type: "package", RB: 0.5}, domain.ErrInvalidRequest},
		{"package rb above cap", domain.CheckoutRequest{Type: "package", RB: domain.MaxPackageRedbucks + 1}, domain.ErrInvalidRequest},
		{"package rb wrapping cents", domain.CheckoutRequest{Type: "package", RB: 4611686018427388928}, domain.ErrInvalidRequest},
		{"package rb 1e17", domain.CheckoutRequest{Type: "package", RB: 1e17}, domain.ErrInvalidRequest},
		{"package rb 1e19", domain.CheckoutRequest{Type: "package", RB: 1e19}, domain.ErrInvalidRequest},
		{"package rb 1e300", domain.CheckoutRequest{Type: "package", RB: 1e300}, domain.ErrInvalidRequest},
		{"unknown package", domain.CheckoutRequest{Type: "package", PackageID: "nope"}, domain.ErrInvalidRequest},
		{"misconfigured package", domain.CheckoutRequest{Type: "package", PackageID: "broken"}, domain.ErrInvalidRequest},
		{"missing house", domain.CheckoutRequest{Type: "house", HouseID: "404"}, domain.ErrNotFound},
		{"owned house", domain.CheckoutRequest{Type: "house", HouseID: "9"}, domain.ErrConflict},
		{"house without id", domain.CheckoutRequest{Type: "house"}, domain.ErrInvalidRequest},
		{"unknown type", domain.CheckoutRequest{Type: "lootbox"}, domain.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{}
			_, err := newInitiator(p).CreateCheckout(context.Background(), buyer, tc.req)
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, p.calls, "no provider call on rejection")
		})
	}
}

func TestCreateCheckout_ProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errors.Join(domain.ErrProvider, errors.New("stripe down"))}
	_, err := newInitiator(p).CreateCheckout(context.Background(), buyer, domain.CheckoutRequest{Type: "custom", Euros: 10})
	require.ErrorIs(t, err, domain.ErrProvider)
	assert.Len(t, p.calls, 1)
}

func TestCreateCheckout_RequiresBuyer(t *testing.T) {
	p := &fakeProvider{}
	_, err := newInitiator(p).CreateCheckout(context.Background(), domain.User{}, domain.CheckoutRequest{Type: "custom", Euros: 10})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, p.calls)
}

func TestCreateCheckout_MetadataTooLong(t *testing.T) {
	p := &fakeProvider{}
	long := make([]byte, domain.MaxMetadataValue+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := newInitiator(p).CreateCheckout(context.Background(), buyer,
		domain.CheckoutRequest{Type: "sanction", Action: string(long)})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, p.calls)
}

func TestCreateCheckout_HugeRBFromJSON(t *testing.T) {
	for _, raw := range []string{"4611686018427388928", "1e19", "1e300"} {
		t.Run(raw, func(t *testing.T) {
			var req domain.CheckoutRequest
			require.NoError(t, json.Unmarshal([]byte(`{"type":"package","rb":`+raw+`}`), &req))

			p := &fakeProvider{}
			_, err := newInitiator(p).CreateCheckout(context.Background(), buyer, req)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Empty(t, p.calls)
		})
	}
}
