package mail

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid delivers dynamic-template mail. The service id is attached as a
// category so provider statistics can be split per storefront.
type SendGrid struct {
	apiKey string
	from   *sgmail.Email
	client *sendgrid.Client
}

func NewSendGrid(apiKey, fromName, fromAddress string) *SendGrid {
	return &SendGrid{
		apiKey: apiKey,
		from:   sgmail.NewEmail(fromName, fromAddress),
		client: sendgrid.NewSendClient(apiKey),
	}
}

// NewDispatcher returns the SendGrid dispatcher, or nil when no API key is
// configured so the service reports itself as not initialized.
func NewDispatcher(apiKey, fromName, fromAddress string) Dispatcher {
	if apiKey == "" {
		return nil
	}
	return NewSendGrid(apiKey, fromName, fromAddress)
}

func (c *SendGrid) Send(ctx context.Context, serviceID, templateID string, params map[string]any) (Receipt, error) {
	if c.apiKey == "" {
		return Receipt{}, fmt.Errorf("sendgrid api key is empty")
	}
	if c.from.Address == "" {
		return Receipt{}, fmt.Errorf("from address is empty")
	}
	to, _ := params["to_email"].(string)
	if to == "" {
		return Receipt{}, fmt.Errorf("to address is empty")
	}

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail("", to))
	for k, v := range params {
		p.SetDynamicTemplateData(k, v)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(c.from)
	m.SetTemplateID(templateID)
	m.AddPersonalizations(p)
	if serviceID != "" {
		m.AddCategories(serviceID)
	}

	response, err := c.client.SendWithContext(ctx, m)
	if err != nil {
		return Receipt{}, fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d, body=%s", response.StatusCode, response.Body)
		return Receipt{StatusCode: response.StatusCode}, fmt.Errorf(
			"sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	r := Receipt{StatusCode: response.StatusCode}
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		r.MessageID = ids[0]
	}
	log.Printf("[sendgrid] mail sent: status=%d to=%s template=%s", response.StatusCode, to, templateID)
	return r, nil
}
