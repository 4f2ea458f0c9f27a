package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.NotEmpty(t, r.Header.Get("X-Goog-FieldMask"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Acme Springfield IL", req["textQuery"])

		json.NewEncoder(w).Encode(TextSearchResponse{
			Places: []Place{
				{
					DisplayName:      DisplayName{Text: "Acme Inc"},
					FormattedAddress: "123 Main St, Springfield, IL",
					Rating:           4.6,
					UserRatingCount:  31,
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.TextSearch(context.Background(), "Acme Springfield IL")
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "Acme Inc", resp.Places[0].DisplayName.Text)
	assert.Equal(t, 31, resp.Places[0].UserRatingCount)
}

func TestTextSearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.TextSearch(context.Background(), "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
