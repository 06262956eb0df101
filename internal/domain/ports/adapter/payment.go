package adapter

import "context"

// CheckoutResponse is the provider-agnostic result of creating a checkout.
// Raw carries the full decoded body for webhook mirroring.
type CheckoutResponse struct {
	ID          string
	Status      string
	StatusURL   string
	CheckoutURL string
	Raw         map[string]any
}

// PaymentGateway is the hex port for the checkout provider. All methods fail
// with domain.GatewayError on network failure, non-2xx responses, or
// unparseable bodies; timeout handling is the implementation's concern.
type PaymentGateway interface {
	Name() string

	// CreateCheckout initiates a checkout from merged request parameters.
	CreateCheckout(ctx context.Context, params map[string]string) (*CheckoutResponse, error)
	// FetchStatus retrieves the current raw status document for a session.
	FetchStatus(ctx context.Context, statusURL string) (map[string]any, error)
	// PostWebhook delivers an event payload to an arbitrary callback URL.
	// Callers must treat failure as non-fatal.
	PostWebhook(ctx context.Context, url string, payload map[string]any) error
}
