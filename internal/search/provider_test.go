package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_SimulationMode(t *testing.T) {
	p := NewProvider(Config{SimResultCount: 3}, nil)

	results, err := p.Search(context.Background(), "cloud, ai")
	require.NoError(t, err, "simulation mode never fails")
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Equal(t, SourceSimulation, r.Source)
		assert.NotEmpty(t, r.Title)
		assert.Contains(t, r.URL, "https://example.com/mock-result-")
		assert.False(t, r.SearchDate.IsZero())
	}
	// Keyword cycling: titles alternate between the comma-split keywords.
	assert.Contains(t, results[0].Title, `"ai"`)
	assert.Contains(t, results[1].Title, `"cloud"`)
}

func TestProvider_SimulationMode_EmptyQuery(t *testing.T) {
	p := NewProvider(Config{}, nil)

	results, err := p.Search(context.Background(), "  ,  ")
	require.NoError(t, err)
	require.Len(t, results, 5, "default simulation count")
}

func TestProvider_RealMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.URL.Query().Get("key"))
		assert.Equal(t, "cx-1", r.URL.Query().Get("cx"))
		assert.Equal(t, "market trends", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"title":"Hit one","snippet":"first","link":"https://one"},
			{"title":"Hit two","snippet":"second","link":"https://two"}
		]}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "key-1", CX: "cx-1", Endpoint: srv.URL}, nil)

	results, err := p.Search(context.Background(), "market trends")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Hit one", results[0].Title)
	assert.Equal(t, "first", results[0].Summary)
	assert.Equal(t, "https://one", results[0].URL)
	assert.Equal(t, SourceGoogle, results[0].Source)
}

func TestProvider_QuotaExceeded_Fail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "k", CX: "c", Endpoint: srv.URL, QuotaPolicy: QuotaPolicyFail}, nil)

	_, err := p.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestProvider_QuotaExceeded_Degrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "k", CX: "c", Endpoint: srv.URL, QuotaPolicy: QuotaPolicyDegrade, SimResultCount: 4}, nil)

	results, err := p.Search(context.Background(), "anything")
	require.NoError(t, err, "degrade policy substitutes simulated results")
	require.Len(t, results, 4)
	assert.Equal(t, SourceSimulation, results[0].Source)
}

func TestProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Degrade policy only covers 403; any other failure is hard.
	p := NewProvider(Config{APIKey: "k", CX: "c", Endpoint: srv.URL, QuotaPolicy: QuotaPolicyDegrade}, nil)

	_, err := p.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestProvider_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [`))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "k", CX: "c", Endpoint: srv.URL}, nil)

	_, err := p.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}
