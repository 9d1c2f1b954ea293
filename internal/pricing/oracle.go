// Package pricing resolves the current gold price in INR per gram from a
// public spot-price feed. The feed quotes troy ounces; the oracle converts
// and rounds, and substitutes a configured fallback price whenever the feed
// is unreachable or returns something unusable.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// gramsPerTroyOunce converts the feed's XAU-per-ounce quote to per-gram.
const gramsPerTroyOunce = 31.1034768

// maxFeedBody bounds how much of a feed response is read.
const maxFeedBody = 1 << 20

// Oracle fetches the spot price of gold. Zero-value Oracle is not usable;
// construct with New.
type Oracle struct {
	httpClient *http.Client
	feedURL    string
	fallback   float64
}

// New builds an oracle against feedURL. fallback is returned by PricePerGram
// whenever the feed cannot produce a positive price.
func New(feedURL string, fallback float64, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Oracle{
		httpClient: &http.Client{Timeout: timeout},
		feedURL:    feedURL,
		fallback:   fallback,
	}
}

// feedResponse mirrors the slice of the goldprice.org payload we read.
type feedResponse struct {
	Items []struct {
		XAUPrice float64 `json:"xauPrice"`
	} `json:"items"`
}

// PricePerGram returns the current INR price of one gram of gold, rounded to
// two decimals. It never returns an error: every failure mode logs a warning
// and yields the fallback price so a purchase can still complete.
func (o *Oracle) PricePerGram(ctx context.Context) float64 {
	price, err := o.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Float64("fallback", o.fallback).Msg("gold price feed unavailable")
		return o.fallback
	}
	return price
}

func (o *Oracle) fetch(ctx context.Context) (float64, error) {
	if o.feedURL == "" {
		return 0, fmt.Errorf("pricing: no feed URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.feedURL, nil)
	if err != nil {
		return 0, fmt.Errorf("pricing: build feed request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("pricing: feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxFeedBody))
		return 0, fmt.Errorf("pricing: feed returned %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBody)).Decode(&payload); err != nil {
		return 0, fmt.Errorf("pricing: decode feed response: %w", err)
	}
	if len(payload.Items) == 0 {
		return 0, fmt.Errorf("pricing: feed returned no items")
	}

	perOunce := payload.Items[0].XAUPrice
	if perOunce <= 0 {
		return 0, fmt.Errorf("pricing: feed returned non-positive price %v", perOunce)
	}

	return math.Round(perOunce/gramsPerTroyOunce*100) / 100, nil
}
