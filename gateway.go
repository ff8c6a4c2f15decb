package jasper

import (
	"context"
	"net/url"
	"strconv"
)

// DefaultVersion is the gateway protocol version jasper speaks.
const DefaultVersion = 6

// GatewayRetriever calls the Discord API and returns the socket URL to
// connect to. *rest.Client implements it.
type GatewayRetriever interface {
	// Gateway returns the gateway URL to connect to.
	Gateway(ctx context.Context) (url string, err error)
}

// GatewayFunc adapts a function to a GatewayRetriever.
type GatewayFunc func(ctx context.Context) (string, error)

// Gateway implements GatewayRetriever.Gateway
func (f GatewayFunc) Gateway(ctx context.Context) (string, error) { return f(ctx) }

// gatewayURL adds the protocol version and encoding negotiation to the
// URL returned by the API, keeping any query it already has.
func gatewayURL(gateway string, version int) (string, error) {
	u, err := url.Parse(gateway)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("v", strconv.Itoa(version))
	q.Set("encoding", "json")
	u.RawQuery = q.Encode()

	return u.String(), nil
}
