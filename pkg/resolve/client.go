// Package resolve is the client for the instrument mapping service:
// CUSIP to ticker, ticker to industry sector. Enrichment is best
// effort; a failed lookup leaves the fields empty rather than failing
// the filing.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/holdings-cli/internal/model"
)

// Options configures the resolver client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS caps lookup throughput; the mapping service is rate limited.
	RPS   float64
	Burst int
}

// Resolution is the mapping service's answer for one CUSIP.
type Resolution struct {
	Ticker string `json:"ticker"`
	Sector string `json:"sector"`
}

// Client calls the mapping service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a resolver client.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RPS == 0 {
		opts.RPS = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
	}
}

// Lookup resolves one CUSIP. A 404 is a definitive miss, returned as
// (nil, nil).
func (c *Client) Lookup(ctx context.Context, cusip string) (*Resolution, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "resolve: rate limiter wait")
	}

	url := fmt.Sprintf("%s/v1/cusip/%s", c.baseURL, cusip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: create request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: lookup %s", cusip)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("resolve: http %d for cusip %s", resp.StatusCode, cusip)
	}

	var r Resolution
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, eris.Wrapf(err, "resolve: decode response for %s", cusip)
	}
	return &r, nil
}

// Enrich fills ticker and sector on each holding that resolves.
// Lookup failures are logged and skipped; the batch never fails here.
func (c *Client) Enrich(ctx context.Context, holdings []model.RawHolding) {
	cache := make(map[string]*Resolution)

	for i := range holdings {
		if ctx.Err() != nil {
			return
		}
		cusip := holdings[i].CUSIP

		r, ok := cache[cusip]
		if !ok {
			var err error
			r, err = c.Lookup(ctx, cusip)
			if err != nil {
				zap.L().Debug("resolve: lookup failed",
					zap.String("cusip", cusip),
					zap.Error(err),
				)
				r = nil
			}
			cache[cusip] = r
		}
		if r == nil {
			continue
		}
		holdings[i].Ticker = r.Ticker
		holdings[i].Sector = r.Sector
	}
}
