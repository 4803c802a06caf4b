package pyth

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	httpClient "github.com/rebased/rebased-api/internal/client/http"
)

const (
	defaultBaseURL = "https://hermes.pyth.network"
	defaultTimeout = 5 * time.Second
)

// Client queries the Pyth Hermes price service, the oracle's free low-latency
// off-chain tier.
type Client struct {
	httpClient *httpClient.HTTPClient
}

// NewClient creates a new Hermes client. baseURL may be empty to use the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient.NewHTTPClient(
			httpClient.WithBaseURL(baseURL),
			httpClient.WithTimeout(defaultTimeout),
		),
	}
}

// --- Hermes response structs ---

type priceData struct {
	Price       string `json:"price"` // integer mantissa as string
	Conf        string `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"` // unix seconds
}

type parsedFeed struct {
	ID    string    `json:"id"`
	Price priceData `json:"price"`
}

type latestPriceResponse struct {
	Parsed []parsedFeed `json:"parsed"`
}

// Quote is a decoded USD price with its freshness and confidence metadata.
type Quote struct {
	FeedID      string
	PriceUSD    float64
	Confidence  float64 // confidence interval in USD
	PublishTime time.Time
}

// Age returns how old the quote's publish time is.
func (q Quote) Age() time.Duration {
	return time.Since(q.PublishTime)
}

// GetLatestPrice fetches the latest quote for a single feed id.
func (c *Client) GetLatestPrice(ctx context.Context, feedID string) (*Quote, error) {
	quotes, err := c.GetLatestPrices(ctx, []string{feedID})
	if err != nil {
		return nil, err
	}
	quote, ok := quotes[feedID]
	if !ok {
		return nil, fmt.Errorf("feed %s missing from price service response", feedID)
	}
	return &quote, nil
}

// GetLatestPrices fetches the latest quotes for a set of feed ids in one call.
// The result map is keyed by feed id; feeds absent from the response are
// simply absent from the map.
func (c *Client) GetLatestPrices(ctx context.Context, feedIDs []string) (map[string]Quote, error) {
	if len(feedIDs) == 0 {
		return map[string]Quote{}, nil
	}

	options := make([]httpClient.RequestOption, 0, len(feedIDs))
	for _, id := range feedIDs {
		options = append(options, httpClient.WithQueryParam("ids[]", id))
	}

	var resp latestPriceResponse
	if err := c.httpClient.GetJSON(ctx, "/v2/updates/price/latest", &resp, options...); err != nil {
		return nil, fmt.Errorf("price service request failed: %w", err)
	}

	quotes := make(map[string]Quote, len(resp.Parsed))
	for _, feed := range resp.Parsed {
		quote, err := decodeQuote(feed)
		if err != nil {
			return nil, err
		}
		quotes[feed.ID] = quote
	}
	return quotes, nil
}

// decodeQuote converts Pyth's fixed-point representation (mantissa × 10^expo)
// into a float USD price.
func decodeQuote(feed parsedFeed) (Quote, error) {
	mantissa, err := strconv.ParseInt(feed.Price.Price, 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid price mantissa %q for feed %s: %w", feed.Price.Price, feed.ID, err)
	}
	conf, err := strconv.ParseUint(feed.Price.Conf, 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid confidence %q for feed %s: %w", feed.Price.Conf, feed.ID, err)
	}

	scale := math.Pow10(int(feed.Price.Expo))
	return Quote{
		FeedID:      feed.ID,
		PriceUSD:    float64(mantissa) * scale,
		Confidence:  float64(conf) * scale,
		PublishTime: time.Unix(feed.Price.PublishTime, 0),
	}, nil
}
