package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoRedirectURI indicates the authorization exchange succeeded at the
// transport level but did not return a usable websocket URL.
var ErrNoRedirectURI = errors.New("authorize response missing authorizedRedirectUri")

type feedAuthorizeResponse struct {
	Status string `json:"status"`
	Data   struct {
		AuthorizedRedirectURI string `json:"authorizedRedirectUri"`
	} `json:"data"`
}

// AuthorizeFeed performs the market-data feed authorization exchange and
// returns the one-time websocket redirect URL.
func (c *Client) AuthorizeFeed(ctx context.Context) (string, error) {
	var resp feedAuthorizeResponse
	if err := c.get(ctx, "/feed/market-data-feed/authorize", nil, &resp); err != nil {
		return "", fmt.Errorf("authorize feed: %w", err)
	}

	if resp.Data.AuthorizedRedirectURI == "" {
		return "", ErrNoRedirectURI
	}

	return resp.Data.AuthorizedRedirectURI, nil
}
