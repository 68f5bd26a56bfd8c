package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientFor(srv *httptest.Server) clients.ClientConfig {
	return clients.ClientConfig{
		ID:       1,
		Name:     "test-mw",
		URL:      srv.URL,
		Username: "mw-user",
		Password: "mw-pass",
		Token:    "client-token",
	}
}

func TestHTTPProvider_FetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/123", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "mw-user", user)
		assert.Equal(t, "mw-pass", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[
			{"transactionValue":1000,"reference":"a"},
			{"transactionValue":3000},
			{"transactionValue":5000}]}`))
	}))
	defer srv.Close()

	txs, err := NewHTTPProvider(nil).Fetch(context.Background(), "123", clientFor(srv))
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, 5000.0, txs[2].TransactionValue)
}

func TestHTTPProvider_MissingTransactionsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"customer":"123"}`))
	}))
	defer srv.Close()

	txs, err := NewHTTPProvider(nil).Fetch(context.Background(), "123", clientFor(srv))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestHTTPProvider_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		expected    string
	}{
		{
			name:        "plain text body kept",
			contentType: "text/plain",
			body:        "database unavailable\n",
			expected:    "Middleware error: database unavailable",
		},
		{
			name:        "html page reduced to text",
			contentType: "text/html; charset=utf-8",
			body:        "<html><head><style>p{}</style></head><body><h1>Internal Server Error</h1>\n<p>Try again later</p><script>x()</script></body></html>",
			expected:    "Middleware error: Internal Server Error Try again later",
		},
		{
			name:     "empty body falls back to status",
			body:     "",
			expected: "Middleware error: status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPProvider(nil).Fetch(context.Background(), "123", clientFor(srv))
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestHTTPProvider_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactions": [`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(nil).Fetch(context.Background(), "123", clientFor(srv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode transactions")
}

func TestHTTPProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPProvider(nil).Fetch(ctx, "123", clientFor(srv))
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestNewHTTPProvider_DefaultClientLeavesDeadlineToContext(t *testing.T) {
	p := NewHTTPProvider(nil)
	assert.Zero(t, p.httpClient.Timeout)
}

func TestHTTPProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := clientFor(srv)
	srv.Close()

	_, err := NewHTTPProvider(nil).Fetch(context.Background(), "123", client)
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
}

func TestTransactionsURL(t *testing.T) {
	assert.Equal(t, "http://mw/api/v1/transactions/123", TransactionsURL("http://mw/", "123"))
	assert.Equal(t, "http://mw/api/v1/transactions/a%2Fb", TransactionsURL("http://mw", "a/b"))
}
