package urlrank

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainRank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getPageRank", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("API-OPR"))
		assert.Equal(t, "example.com", r.URL.Query().Get("domains[]"))
		fmt.Fprint(w, `{"response":[{"domain":"example.com","page_rank_decimal":5.4,"rank":"10543","status_code":200}]}`)
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))

	rank, err := client.DomainRank(context.Background(), "example.com")
	require.NoError(t, err)
	assert.InDelta(t, 5.4, rank.PageRank, 0.001)
	assert.InDelta(t, 54.0, rank.DomainAuthority, 0.001)
}

func TestDomainRank_UnrankedDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":[{"domain":"never-seen.example","status_code":404}]}`)
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))

	rank, err := client.DomainRank(context.Background(), "never-seen.example")
	require.NoError(t, err)
	assert.Zero(t, rank.PageRank)
	assert.Zero(t, rank.DomainAuthority)
}
