package domain

// PaymentStatus mirrors the provider's checkout payment status.
type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

// Channel is the path a completion signal arrived on.
type Channel string

const (
	ChannelWebhook Channel = "webhook"
	ChannelPoll    Channel = "poll"
)

// SessionRequest is what the checkout initiator asks the provider to create.
type SessionRequest struct {
	CustomerEmail string
	Currency      string
	ProductName   string
	AmountMinor   int64
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// PaymentSession is the provider's view of a checkout session.
type PaymentSession struct {
	ID            string
	URL           string
	PaymentStatus PaymentStatus
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// CompletionEvent is a payment completion as seen by fulfillment.
type CompletionEvent struct {
	SessionID       string
	PaymentStatus   PaymentStatus
	AmountPaidMinor int64
	Metadata        map[string]string
	Channel         Channel
}

// CompletionEvent converts the session for the given channel.
func (s PaymentSession) CompletionEvent(ch Channel) CompletionEvent {
	return CompletionEvent{
		SessionID:       s.ID,
		PaymentStatus:   s.PaymentStatus,
		AmountPaidMinor: s.AmountTotal,
		Metadata:        s.Metadata,
		Channel:         ch,
	}
}

// Benefit is what a fulfilled purchase granted.
type Benefit struct {
	Kind          Kind           `json:"kind"`
	Redbucks      int64          `json:"redbucks,omitempty"`
	HouseID       string         `json:"houseId,omitempty"`
	HouseAssigned bool           `json:"houseAssigned,omitempty"`
	Action        SanctionAction `json:"action,omitempty"`
}

// FulfillmentResult is returned to both completion channels.
type FulfillmentResult struct {
	OK       bool          `json:"ok"`
	Credited bool          `json:"credited"`
	Status   PaymentStatus `json:"status,omitempty"`
	Login    string        `json:"login,omitempty"`
	Redbucks int64         `json:"redbucks,omitempty"`
	Benefit  *Benefit      `json:"benefit,omitempty"`
}
