// Package telegram delivers notification messages through the Telegram Bot
// API. It implements notify.Sender.
package telegram

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DefaultAPIBase is the production Bot API endpoint. Tests point the client
// at a local server instead.
const DefaultAPIBase = "https://api.telegram.org"

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 1 << 16

// Client sends messages via the Bot API sendMessage method.
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIBase overrides the Bot API base URL.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = base }
}

// NewClient creates a Client authenticated with the given bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		apiBase:    DefaultAPIBase,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts text to the chat identified by chatID with HTML formatting.
// Success requires both an HTTP 2xx status and the provider-level ok flag;
// anything else is a delivery error. One call is one attempt: the client
// never retries.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	payload := encodeSendMessage(chatID, text)

	url := c.apiBase + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	ok, desc, err := decodeResult(body)
	if err != nil {
		return errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !ok {
		if desc == "" {
			desc = "request rejected"
		}
		return errors.Errorf("telegram: %s (status %d)", desc, resp.StatusCode)
	}
	return nil
}

func encodeSendMessage(chatID, text string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("chat_id", func(e *jx.Encoder) { e.Str(chatID) })
		e.Field("text", func(e *jx.Encoder) { e.Str(text) })
		e.Field("parse_mode", func(e *jx.Encoder) { e.Str("HTML") })
	})
	return e.Bytes()
}

// decodeResult extracts the ok flag and optional description from a Bot API
// response envelope.
func decodeResult(body []byte) (ok bool, desc string, err error) {
	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "ok":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "ok")
			}
			ok = v
		case "description":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "description")
			}
			desc = v
		default:
			return d.Skip()
		}
		return nil
	})
	return ok, desc, err
}
