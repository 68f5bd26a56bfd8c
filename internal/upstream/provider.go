// Package upstream fetches transaction history from a client's middleware.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/ajharbinger/scoring-api/internal/scoring"
)

const maxErrorBody = 64 << 10

// Provider fetches a customer's transactions using a client's credentials
type Provider interface {
	Fetch(ctx context.Context, customerNumber string, client clients.ClientConfig) ([]scoring.Transaction, error)
}

// StatusError is returned when the middleware answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "Middleware error: " + e.Body
}

// HTTPProvider calls GET {client.url}/api/v1/transactions/{customerNumber}
// with HTTP basic auth
type HTTPProvider struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPProvider creates a provider. The default client has no overall
// timeout: deadlines come only from the caller's context.
func NewHTTPProvider(httpClient *http.Client) *HTTPProvider {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		}
	}
	return &HTTPProvider{
		httpClient: httpClient,
		userAgent:  "Scoring-API/1.0",
	}
}

type transactionsResponse struct {
	Transactions []scoring.Transaction `json:"transactions"`
}

// Fetch returns the customer's transactions. A body without a transactions
// key yields an empty history.
func (p *HTTPProvider) Fetch(ctx context.Context, customerNumber string, client clients.ClientConfig) ([]scoring.Transaction, error) {
	endpoint := TransactionsURL(client.URL, customerNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(client.Username, client.Password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp),
		}
	}

	var body transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return body.Transactions, nil
}

// TransactionsURL builds the middleware endpoint for a customer
func TransactionsURL(baseURL, customerNumber string) string {
	return strings.TrimRight(baseURL, "/") + "/api/v1/transactions/" + url.PathEscape(customerNumber)
}

// IsTimeout reports whether err came from a deadline or network timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readErrorBody returns the body as text; HTML error pages are reduced to
// their visible text.
func readErrorBody(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil && len(raw) == 0 {
		return fmt.Sprintf("status %d (unreadable body: %v)", resp.StatusCode, err)
	}

	text := string(raw)
	if isHTML(resp.Header.Get("Content-Type"), text) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			doc.Find("script, style").Remove()
			text = doc.Find("body").Text()
			if strings.TrimSpace(text) == "" {
				text = doc.Text()
			}
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return text
}

func isHTML(contentType, body string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType == "text/html" || mediaType == "application/xhtml+xml"
	}
	trimmed := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(trimmed, "<!doctype html") || strings.HasPrefix(trimmed, "<html")
}
