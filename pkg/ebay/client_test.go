package ebay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenHandler(t *testing.T, tokens *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*tokens++
		require.Equal(t, "client_credentials", r.FormValue("grant_type"))
		require.NotEmpty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"expires_in":   3600,
		})
	}
}

func TestSearchItems(t *testing.T) {
	tokens := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &tokens))
	mux.HandleFunc("/item_summary/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		assert.Equal(t, "watch untested", r.URL.Query().Get("q"))
		assert.Equal(t, "31387", r.URL.Query().Get("category_ids"))
		assert.Equal(t, "newlyListed", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`{"total":1,"itemSummaries":[{"itemId":"v1|1|0","title":"Seiko untested"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("id", "secret", "EBAY_US",
		WithAuthURL(srv.URL+"/token"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	resp, err := c.SearchItems(context.Background(), SearchRequest{
		Query:       "watch untested",
		CategoryIDs: "31387",
		Limit:       50,
		Sort:        "newlyListed",
	})
	require.NoError(t, err)
	require.Len(t, resp.ItemSummaries, 1)
	assert.Equal(t, "v1|1|0", resp.ItemSummaries[0].ItemID)
}

func TestGetItem_ReusesCachedToken(t *testing.T) {
	tokens := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &tokens))
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"itemId":"v1|2|0","title":"Omega for parts","price":{"value":"120.00","currency":"USD"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("id", "secret", "EBAY_US",
		WithAuthURL(srv.URL+"/token"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	ctx := context.Background()
	l, err := c.GetItem(ctx, "v1|2|0")
	require.NoError(t, err)
	assert.Equal(t, "Omega for parts", l.Title)

	_, err = c.GetItem(ctx, "v1|2|0")
	require.NoError(t, err)
	assert.Equal(t, 1, tokens, "second call should reuse the cached token")
}

func TestGetItem_RetainsRawPayload(t *testing.T) {
	tokens := 0
	body := `{"itemId":"v1|2|0","title":"Omega for parts","localizedAspects":[{"name":"Movement","value":"Quartz"}]}`
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &tokens))
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("id", "secret", "EBAY_US",
		WithAuthURL(srv.URL+"/token"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	l, err := c.GetItem(context.Background(), "v1|2|0")
	require.NoError(t, err)

	// the verbatim wire payload survives, including fields Listing
	// does not model
	assert.Equal(t, body, string(l.Raw))
	assert.Contains(t, string(l.Raw), "localizedAspects")
}

func TestAppToken_InvalidClientHint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"client authentication failed"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("bad", "creds", "EBAY_US",
		WithAuthURL(srv.URL+"/token"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := c.SearchItems(context.Background(), SearchRequest{Query: "watch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
	assert.Contains(t, err.Error(), "production credentials")
}

func TestSearchItems_RetriesOn429(t *testing.T) {
	tokens := 0
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &tokens))
	mux.HandleFunc("/item_summary/search", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"total":0,"itemSummaries":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("id", "secret", "EBAY_US",
		WithAuthURL(srv.URL+"/token"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	resp, err := c.SearchItems(context.Background(), SearchRequest{Query: "watch"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, resp.ItemSummaries)
}

func TestSearchFilter(t *testing.T) {
	f := SearchFilter(300)
	assert.Equal(t, "conditionIds:{7000},buyingOptions:{FIXED_PRICE|BEST_OFFER},deliveryCountry:US,price:[..300]", f)
}
