package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Hook posts the code to a managed delivery endpoint. The hook owns the
// actual channel mechanics (templating, provider selection) on its side.
type Hook struct {
	client  *resty.Client
	url     string
	apiKey  string
	channel string
}

func NewHook(url, apiKey, channel string) *Hook {
	return &Hook{
		client:  resty.New(),
		url:     url,
		apiKey:  apiKey,
		channel: channel,
	}
}

func (h *Hook) Name() string { return "hook" }

func (h *Hook) Send(ctx context.Context, userID, destination, code string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+h.apiKey).
		SetBody(map[string]string{
			"user_id":     userID,
			"destination": destination,
			"channel":     h.channel,
			"code":        code,
		}).
		Post(h.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("hook responded with status %d", resp.StatusCode())
	}

	return nil
}
