// Package mail sends storefront e-mail through a template based provider,
// rate limited per rolling hour.
package mail

import "context"

// Dispatcher is the e-mail provider capability: render templateID with params
// and deliver it. The recipient travels in params["to_email"].
type Dispatcher interface {
	Send(ctx context.Context, serviceID, templateID string, params map[string]any) (Receipt, error)
}

type Receipt struct {
	StatusCode int    `json:"status"`
	MessageID  string `json:"messageId,omitempty"`
}
