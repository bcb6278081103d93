package checkout

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"golang.org/x/exp/slog"
)

var sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shop_checkout_sessions_total",
	Help: "Checkout sessions requested from the payment provider, labeled by kind and result",
}, []string{"kind", "result"})

// Provider creates payment sessions.
type Provider interface {
	CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.PaymentSession, error)
}

// Houses looks up houses for pricing and availability.
type Houses interface {
	GetHouse(ctx context.Context, id string) (*domain.House, error)
}

// Initiator turns checkout requests into provider sessions. It never writes to
// the ledger.
type Initiator struct {
	provider Provider
	houses   Houses
	catalog  map[string]domain.Package
	currency string
	baseURL  string
	logger   *slog.Logger
}

func NewInitiator(provider Provider, houses Houses, packages []domain.Package, currency, baseURL string, logger *slog.Logger) *Initiator {
	catalog := make(map[string]domain.Package, len(packages))
	for _, p := range packages {
		catalog[p.ID] = p
	}
	return &Initiator{
		provider: provider,
		houses:   houses,
		catalog:  catalog,
		currency: currency,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With(slog.String("component", "checkout")),
	}
}

// CreateCheckout prices the request, encodes it as session metadata and asks
// the provider for a session.
func (in *Initiator) CreateCheckout(ctx context.Context, buyer domain.User, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if buyer.Login == "" {
		return nil, domain.ErrUnauthorized
	}
	req.Normalize()

	intent, err := in.intent(ctx, buyer, req)
	if err != nil {
		sessionsCreated.WithLabelValues(req.Type, "rejected").Inc()
		return nil, err
	}

	meta := intent.Metadata()
	for k, v := range meta {
		if len(v) > domain.MaxMetadataValue {
			sessionsCreated.WithLabelValues(string(intent.Kind), "rejected").Inc()
			return nil, fmt.Errorf("%w: metadata %s too long", domain.ErrInvalidRequest, k)
		}
	}

	sess, err := in.provider.CreateSession(ctx, domain.SessionRequest{
		CustomerEmail: intent.BuyerEmail,
		Currency:      intent.Currency,
		ProductName:   intent.ProductName,
		AmountMinor:   intent.AmountMinor,
		Metadata:      meta,
		SuccessURL:    in.baseURL + "/success.html?sid={CHECKOUT_SESSION_ID}",
		CancelURL:     in.baseURL + "/index.html",
	})
	if err != nil {
		sessionsCreated.WithLabelValues(string(intent.Kind), "provider_error").Inc()
		in.logger.Error("checkout session failed", slog.String("login", buyer.Login), slog.String("kind", string(intent.Kind)), slog.Any("err", err))
		return nil, err
	}

	sessionsCreated.WithLabelValues(string(intent.Kind), "created").Inc()
	in.logger.Info("checkout session created",
		slog.String("session_id", sess.ID),
		slog.String("login", buyer.Login),
		slog.String("kind", string(intent.Kind)),
		slog.Int64("amount", intent.AmountMinor),
	)
	return &domain.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (in *Initiator) intent(ctx context.Context, buyer domain.User, req domain.CheckoutRequest) (domain.PurchaseIntent, error) {
	intent := domain.PurchaseIntent{
		Kind:       domain.Kind(req.Type),
		Currency:   in.currency,
		BuyerLogin: buyer.Login,
		BuyerEmail: buyer.Email,
	}

	switch intent.Kind {
	case domain.KindPackage:
		rb := math.Floor(float64(req.RB))
		if rb > domain.MaxPackageRedbucks {
			return intent, fmt.Errorf("%w: at most %d redbucks per purchase", domain.ErrInvalidRequest, domain.MaxPackageRedbucks)
		}
		if rb >= 1 {
			intent.Redbucks = int64(rb)
			intent.AmountMinor = intent.Redbucks * 100
			intent.ProductName = strconv.FormatInt(intent.Redbucks, 10) + " Redbucks"
			break
		}
		pack, ok := in.catalog[string(req.PackageID)]
		if req.PackageID == "" || !ok {
			return intent, fmt.Errorf("%w: invalid package", domain.ErrInvalidRequest)
		}
		if pack.PriceCents <= 0 || pack.Redbucks <= 0 {
			return intent, fmt.Errorf("%w: package %s is misconfigured", domain.ErrInvalidRequest, pack.ID)
		}
		intent.Redbucks = pack.Redbucks
		intent.AmountMinor = pack.PriceCents
		intent.ProductName = pack.Name
		if intent.ProductName == "" {
			intent.ProductName = strconv.FormatInt(pack.Redbucks, 10) + " Redbucks"
		}

	case domain.KindCustom:
		euros := domain.ClampEuros(float64(req.Euros))
		intent.AmountMinor = euros * 100
		intent.ProductName = fmt.Sprintf("Redbucks (%d EUR)", euros)

	case domain.KindDonation:
		euros := domain.ClampEuros(float64(req.Euros))
		intent.AmountMinor = euros * 100
		intent.ProductName = fmt.Sprintf("Donation (%d EUR)", euros)

	case domain.KindHouse:
		if req.HouseID == "" {
			return intent, fmt.Errorf("%w: missing house id", domain.ErrInvalidRequest)
		}
		house, err := in.houses.GetHouse(ctx, string(req.HouseID))
		if err != nil {
			return intent, fmt.Errorf("house %s: %w", req.HouseID, err)
		}
		if house.Owner != "" {
			return intent, fmt.Errorf("house %s already has an owner: %w", house.ID, domain.ErrConflict)
		}
		intent.HouseID = house.ID
		intent.AmountMinor = max(domain.MinChargeCents, house.PriceCents)
		intent.ProductName = "House #" + house.ID
		if house.Name != "" {
			intent.ProductName += " " + house.Name
		}

	case domain.KindSanction:
		intent.Action = domain.SanctionAction(req.Action)
		intent.AmountMinor = domain.SanctionPriceEuros(intent.Action) * 100
		intent.ProductName = domain.SanctionLabel(intent.Action)

	default:
		return intent, fmt.Errorf("%w: unknown checkout type %q", domain.ErrInvalidRequest, req.Type)
	}
	return intent, nil
}
