// Package bags is a typed client for the Bags.fm public REST API.
//
// Every call is read-only or returns an unsigned transaction; nothing is ever
// signed or submitted on chain.
package bags

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://public-api-v2.bags.fm/api/v1"

const maxResponseBytes = 4 << 20

// RequestObserver is notified after every API call.
type RequestObserver func(op string, err error, elapsed time.Duration)

// Client calls the Bags.fm API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	observer   RequestObserver
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outbound requests with a token bucket. Calls wait for a token.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 || burst <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache keeps successful read-only responses for ttl. Zero disables caching.
func WithCache(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// WithObserver registers a RequestObserver.
func WithObserver(observer RequestObserver) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a Client for baseURL authenticated with apiKey.
func NewClient(baseURL string, apiKey string, options ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
}

func (e *envelope) payload() json.RawMessage {
	if len(e.Response) > 0 && string(e.Response) != "null" {
		return e.Response
	}
	return e.Data
}

// get performs a cached read.
func (c *Client) get(ctx context.Context, op string, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, c.cache != nil, out)
}

// getFresh performs a read that always reaches the API.
func (c *Client) getFresh(ctx context.Context, op string, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, false, out)
}

func (c *Client) post(ctx context.Context, op string, path string, body any, out any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, false, out)
}

func (c *Client) do(ctx context.Context, op string, method string, path string, query url.Values, body any, cacheable bool, out any) (err error) {
	started := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer(op, err, time.Since(started))
		}
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if cacheable {
		if cached, ok := c.cache.Get(endpoint); ok {
			return decodePayload(op, cached.(json.RawMessage), out)
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: err.Error(), Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Op: op, Message: err.Error(), Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Error
		if decodeErr != nil || message == "" {
			message = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return &Error{Op: op, Status: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "malformed response", Err: decodeErr}
	}

	if !env.Success {
		message := env.Error
		if message == "" {
			message = "Unknown error"
		}
		return &Error{Op: op, Status: resp.StatusCode, Message: message}
	}

	payload := env.payload()
	if err := decodePayload(op, payload, out); err != nil {
		return err
	}

	if cacheable {
		c.cache.SetDefault(endpoint, payload)
	}
	return nil
}

func decodePayload(op string, payload json.RawMessage, out any) error {
	if out == nil || len(payload) == 0 || string(payload) == "null" {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Op: op, Message: "malformed response", Err: err}
	}
	return nil
}

// LifetimeFees returns the total fees a token has generated, in lamports.
func (c *Client) LifetimeFees(ctx context.Context, tokenMint string) (Lamports, error) {
	var fees Lamports
	err := c.get(ctx, "fetch token fees", "/token-launch/lifetime-fees", url.Values{"tokenMint": {tokenMint}}, &fees)
	return fees, err
}

// ClaimStats returns per-claimer statistics for a token.
func (c *Client) ClaimStats(ctx context.Context, tokenMint string) ([]ClaimStat, error) {
	var stats []ClaimStat
	err := c.get(ctx, "fetch claim stats", "/token-launch/claim-stats", url.Values{"tokenMint": {tokenMint}}, &stats)
	return stats, err
}

// ClaimEvents returns the claim history of a token.
func (c *Client) ClaimEvents(ctx context.Context, tokenMint string, opts ClaimEventsOptions) ([]ClaimEvent, error) {
	if opts.Mode == "" {
		opts.Mode = "offset"
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	query := url.Values{
		"tokenMint": {tokenMint},
		"mode":      {opts.Mode},
		"limit":     {strconv.Itoa(opts.Limit)},
		"offset":    {strconv.Itoa(opts.Offset)},
	}

	var events []ClaimEvent
	err := c.get(ctx, "fetch claim events", "/fee-share/token/claim-events", query, &events)
	return events, err
}

// LaunchCreators returns the creators of a token launch.
func (c *Client) LaunchCreators(ctx context.Context, tokenMint string) ([]Creator, error) {
	var creators []Creator
	err := c.get(ctx, "fetch token creators", "/token-launch/creator/v3", url.Values{"tokenMint": {tokenMint}}, &creators)
	return creators, err
}

// TradeQuote returns a swap preview.
func (c *Client) TradeQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.SlippageBps <= 0 {
		req.SlippageBps = 100
	}

	query := url.Values{
		"inputMint":    {req.InputMint},
		"outputMint":   {req.OutputMint},
		"amount":       {strconv.FormatInt(req.Amount, 10)},
		"slippageMode": {"manual"},
		"slippageBps":  {strconv.Itoa(req.SlippageBps)},
	}

	// Quotes go stale quickly, so they bypass the cache.
	quote := &Quote{}
	if err := c.getFresh(ctx, "get trade quote", "/trade/quote", query, quote); err != nil {
		return nil, err
	}
	if len(quote.Raw) == 0 {
		return nil, &Error{Op: "get trade quote", Message: "empty quote"}
	}
	return quote, nil
}

// SwapTransaction builds an unsigned swap transaction for a previously fetched quote.
func (c *Client) SwapTransaction(ctx context.Context, quote *Quote, userPublicKey string) (string, error) {
	body := struct {
		QuoteResponse json.RawMessage `json:"quoteResponse"`
		UserPublicKey string          `json:"userPublicKey"`
	}{
		QuoteResponse: quote.Raw,
		UserPublicKey: userPublicKey,
	}

	var tx transaction
	if err := c.post(ctx, "create swap transaction", "/trade/swap", body, &tx); err != nil {
		return "", err
	}
	if tx == "" {
		return "", &Error{Op: "create swap transaction", Message: "no transaction returned"}
	}
	return string(tx), nil
}

// CreateTokenInfo uploads token metadata and reserves a mint.
func (c *Client) CreateTokenInfo(ctx context.Context, req TokenInfoRequest) (*TokenInfo, error) {
	info := &TokenInfo{}
	if err := c.post(ctx, "create token info", "/token-launch/create-token-info", req, info); err != nil {
		return nil, err
	}
	if info.TokenMint == "" {
		return nil, &Error{Op: "create token info", Message: "no token mint returned"}
	}
	return info, nil
}

// CreateFeeShareConfig registers how trading fees of a token are split.
func (c *Client) CreateFeeShareConfig(ctx context.Context, req FeeShareConfigRequest) (*FeeShareConfig, error) {
	config := &FeeShareConfig{}
	if err := c.post(ctx, "create fee share config", "/fee-share/config", req, config); err != nil {
		return nil, err
	}
	return config, nil
}

// LaunchTransaction builds an unsigned token launch transaction.
func (c *Client) LaunchTransaction(ctx context.Context, req LaunchTransactionRequest) (string, error) {
	var tx transaction
	if err := c.post(ctx, "create launch transaction", "/token-launch/create-launch-transaction", req, &tx); err != nil {
		return "", err
	}
	if tx == "" {
		return "", &Error{Op: "create launch transaction", Message: "no transaction returned"}
	}
	return string(tx), nil
}

// ClaimablePositions lists the fee positions wallet can claim.
// Claimable amounts change as fees accrue, so the result is never cached.
func (c *Client) ClaimablePositions(ctx context.Context, wallet string) ([]ClaimablePosition, error) {
	var positions []ClaimablePosition
	err := c.getFresh(ctx, "fetch claimable positions", "/token-launch/claimable-positions", url.Values{"wallet": {wallet}}, &positions)
	return positions, err
}

// ClaimTransactions builds the unsigned transactions claiming fees of one token.
func (c *Client) ClaimTransactions(ctx context.Context, req ClaimRequest) ([]string, error) {
	var txs transactions
	if err := c.post(ctx, "create claim transactions", "/token-launch/claim-txs/v2", req, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
