// Package rest is a small client for the Discord REST endpoints the bot
// needs: looking up the gateway URL and posting channel messages.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jasperbot/jasper/model"
)

// DefaultBaseURL is Discord's API root.
const DefaultBaseURL = "https://discordapp.com/api"

// Error is returned when an endpoint answers with a non-2xx status or
// cannot be reached at all.
type Error struct {
	// Endpoint is the request path relative to the base URL.
	Endpoint string
	// ChannelID is set for channel message requests.
	ChannelID string
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.ChannelID != "":
		return fmt.Sprintf("jasper/rest: failed to send a message to channel %s: response code %d",
			e.ChannelID, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("jasper/rest: %s returned response code %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("jasper/rest: %s: %s", e.Endpoint, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Client calls the Discord REST API. It is safe for concurrent use.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Token   string
}

// New creates a client authenticating with the bot token. A nil httpClient
// gets a client with a ten second timeout.
func New(token, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{HTTP: httpClient, BaseURL: baseURL, Token: token}
}

// Gateway returns the websocket URL to connect to.
func (c *Client) Gateway(ctx context.Context) (string, error) {
	data := &model.GatewayResponse{}
	if err := c.do(ctx, http.MethodGet, "/gateway", "", nil, data); err != nil {
		return "", err
	}
	if data.URL == "" {
		return "", &Error{Endpoint: "/gateway", Err: fmt.Errorf("response has no url")}
	}

	return data.URL, nil
}

// PostMessage posts a plain text message to the channel and returns the
// created message.
func (c *Client) PostMessage(ctx context.Context, channelID, content string) (*model.Message, error) {
	return c.SendMessage(ctx, channelID, &model.OutgoingMessage{Content: content})
}

// SendMessage posts msg to the channel and returns the created message.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg *model.OutgoingMessage) (*model.Message, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	created := &model.Message{}
	path := "/channels/" + channelID + "/messages"
	if err := c.do(ctx, http.MethodPost, path, channelID, body, created); err != nil {
		return nil, err
	}

	return created, nil
}

func (c *Client) do(ctx context.Context, method, path, channelID string, body []byte, out interface{}) error {
	fail := func(status int, err error) error {
		return &Error{Endpoint: path, ChannelID: channelID, StatusCode: status, Err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fail(0, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bot "+c.Token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return fail(0, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fail(res.StatusCode, fmt.Errorf("%s", http.StatusText(res.StatusCode)))
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fail(0, err)
	}

	return nil
}
