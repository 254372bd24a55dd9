package delta

// client.go — signed HTTP client for the derivatives exchange.
//
// Every authenticated request carries three headers:
//   api-key:   the account's API key
//   timestamp: epoch seconds as string
//   signature: lowercase hex HMAC-SHA256 of the canonical message
//
// The canonical message order is fixed: method + timestamp + path + query +
// body. Changing that order invalidates every signature. An empty body
// serializes to "", never to "null".

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.india.delta.exchange"

	requestTimeout = 10 * time.Second

	// Forward skew on the signed timestamp tolerates small clock drift —
	// the exchange rejects timestamps outside its acceptance window.
	timestampSkew = 1 * time.Second

	// Conservative limits well under the documented per-account quotas.
	authedRatePerSec = 8
	publicRatePerSec = 4
)

// apiResponse is the exchange's uniform envelope. Result stays raw so each
// endpoint decodes its own payload.
type apiResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *apiErrorBody   `json:"error"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client is the signed HTTP client. It holds no per-account state: the
// credentials arrive with every call, so one client serves the master and
// every follower.
type Client struct {
	http          *http.Client
	baseURL       string
	authedLimiter *rate.Limiter
	publicLimiter *rate.Limiter
	now           func() time.Time // injectable for signature tests
}

// NewClient creates a client for the given base URL. An empty baseURL uses
// the production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:          &http.Client{Timeout: requestTimeout},
		baseURL:       baseURL,
		authedLimiter: rate.NewLimiter(authedRatePerSec, 4),
		publicLimiter: rate.NewLimiter(publicRatePerSec, 2),
		now:           time.Now,
	}
}

// Sign computes the request signature over the canonical message.
func Sign(secret, method, timestamp, path, query, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + timestamp + path + query + body))
	return hex.EncodeToString(mac.Sum(nil))
}

// Do executes a signed request. reqBody may be nil; out may be nil for
// endpoints whose result the caller ignores. The timestamp and signature are
// computed fresh on every call, so retrying through Do always resubmits with
// a new signature.
func (c *Client) Do(ctx context.Context, method, path, query string, reqBody any, creds domain.Credentials, out any) error {
	var bodyStr string
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("delta.Do: marshal body: %w", err)
		}
		bodyStr = string(b)
	}

	if err := c.authedLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("delta.Do: rate limiter: %w", err)
	}

	ts := strconv.FormatInt(c.now().Add(timestampSkew).Unix(), 10)
	sig := Sign(creds.APISecret, method, ts, path, query, bodyStr)

	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}

	var bodyReader io.Reader
	if bodyStr != "" {
		bodyReader = bytes.NewReader([]byte(bodyStr))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("delta.Do: new request: %w", err)
	}
	req.Header.Set("api-key", creds.APIKey)
	req.Header.Set("timestamp", ts)
	req.Header.Set("signature", sig)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

// Public executes an unsigned GET against a public endpoint.
func (c *Client) Public(ctx context.Context, path, query string, out any) error {
	if err := c.publicLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("delta.Public: rate limiter: %w", err)
	}

	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("delta.Public: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

// send executes the request and maps the outcome onto the error taxonomy.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		// Network failures and client timeouts are retryable.
		return &APIError{Kind: domain.KindTransient, Message: err.Error()}
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return &APIError{Kind: domain.KindTransient, HTTPStatus: resp.StatusCode, Message: "read body: " + err.Error()}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &APIError{Kind: domain.KindTransient, HTTPStatus: resp.StatusCode, Message: string(respBody)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return classify(resp.StatusCode, "", string(respBody))
		}
		return fmt.Errorf("delta: decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		code, msg := "", string(respBody)
		if envelope.Error != nil {
			code, msg = envelope.Error.Code, envelope.Error.Message
		}
		return classify(resp.StatusCode, code, msg)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("delta: decode result: %w", err)
		}
	}
	return nil
}

// classify builds the APIError for a rejected request. The body code wins;
// a 401/403 without a recognizable code still maps to Unauthorized.
func classify(status int, code, message string) *APIError {
	kind := codeKind(code)
	if kind == domain.KindUnknown && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
		kind = domain.KindUnauthorized
	}
	return &APIError{Kind: kind, Code: code, HTTPStatus: status, Message: message}
}
