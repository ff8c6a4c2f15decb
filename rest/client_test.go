package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayReadsGood(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gateway", r.URL.Path)
		assert.Equal(t, "Bot tooken", r.Header.Get("Authorization"))
		fmt.Fprintln(w, `{"url":"wss://gateway.discord.gg"}`)
	}))
	defer ts.Close()

	gw, err := New("tooken", ts.URL, http.DefaultClient).Gateway(context.Background())

	assert.Nil(t, err)
	assert.Equal(t, "wss://gateway.discord.gg", gw)
}

func TestGatewayErrorsOnBadPacket(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"url":"wss://ga`)
	}))
	defer ts.Close()

	_, err := New("tooken", ts.URL, http.DefaultClient).Gateway(context.Background())

	assert.NotNil(t, err)
}

func TestGatewayErrorsOnServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New("tooken", ts.URL, http.DefaultClient).Gateway(context.Background())

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusInternalServerError, rerr.StatusCode)
	assert.Equal(t, "/gateway", rerr.Endpoint)
}

func TestGatewayPropogateHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		fmt.Fprintln(w, `{"url":"wss://gateway.discord.gg"}`)
	}))
	defer ts.Close()

	_, err := New("tooken", ts.URL, &http.Client{Timeout: time.Nanosecond}).Gateway(context.Background())

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Zero(t, rerr.StatusCode)
}

func TestPostMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/channels/100/messages", r.URL.Path)
		assert.Equal(t, "Bot tooken", r.Header.Get("Authorization"))

		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{
			"content":        "my message content",
			"text_to_speech": false,
		}, body)

		fmt.Fprint(w, `{"id":"1","channel_id":"100","content":"my message content"}`)
	}))
	defer ts.Close()

	msg, err := New("tooken", ts.URL, nil).PostMessage(context.Background(), "100", "my message content")

	require.NoError(t, err)
	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, "100", msg.ChannelID)
}

func TestPostMessageAcceptsAny2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"2"}`)
	}))
	defer ts.Close()

	msg, err := New("tooken", ts.URL, nil).PostMessage(context.Background(), "100", "hi")

	require.NoError(t, err)
	assert.Equal(t, "2", msg.ID)
}

func TestPostMessageBadRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"hello":"world"}`)
	}))
	defer ts.Close()

	_, err := New("tooken", ts.URL, nil).PostMessage(context.Background(), "100", "my bad message content")

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "100", rerr.ChannelID)
	assert.Equal(t, http.StatusBadRequest, rerr.StatusCode)
	assert.Contains(t, err.Error(), "channel 100")
}
