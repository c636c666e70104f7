package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrQuoteMissing indicates the LTP response did not contain the requested
// instrument.
var ErrQuoteMissing = errors.New("quote response missing instrument")

type ltpResponse struct {
	Status string `json:"status"`
	Data   map[string]struct {
		LastPrice       float64 `json:"last_price"`
		InstrumentToken string  `json:"instrument_token"`
	} `json:"data"`
}

// GetLTP fetches the last traded price for a single instrument key.
// The response map addresses instruments with ':' where the request key
// uses '|' (e.g. "NSE_INDEX|Nifty 50" comes back as "NSE_INDEX:Nifty 50").
func (c *Client) GetLTP(ctx context.Context, instrumentKey string) (float64, error) {
	query := url.Values{}
	query.Set("instrument_key", instrumentKey)

	var resp ltpResponse
	if err := c.get(ctx, "/market-quote/ltp", query, &resp); err != nil {
		return 0, fmt.Errorf("get ltp %s: %w", instrumentKey, err)
	}

	responseKey := strings.ReplaceAll(instrumentKey, "|", ":")
	entry, ok := resp.Data[responseKey]
	if !ok {
		return 0, fmt.Errorf("get ltp %s: %w", instrumentKey, ErrQuoteMissing)
	}

	return entry.LastPrice, nil
}
