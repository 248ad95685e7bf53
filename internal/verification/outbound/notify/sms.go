package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// SMSGateway posts codes to a Twilio-style messaging API: basic auth plus an
// application/x-www-form-urlencoded body.
type SMSGateway struct {
	client     *resty.Client
	url        string
	accountSID string
	authToken  string
	from       string
}

func NewSMSGateway(url, accountSID, authToken, from string) *SMSGateway {
	return &SMSGateway{
		client:     resty.New(),
		url:        url,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

func (g *SMSGateway) Name() string { return "sms_gateway" }

func (g *SMSGateway) Send(ctx context.Context, _, destination, code string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(g.accountSID, g.authToken).
		SetFormData(map[string]string{
			"To":   destination,
			"From": g.from,
			"Body": fmt.Sprintf("Your verification code is %s", code),
		}).
		Post(g.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway responded with status %d", resp.StatusCode())
	}

	return nil
}
