package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-3-flash-preview:generateContent", r.URL.Path)
		assert.Equal(t, "gk-test", r.URL.Query().Get("key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Contains(t, req, "contents")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"analyses\":[]}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("gk-test", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	resp, err := c.GenerateContent(context.Background(), "analyze everything")

	require.NoError(t, err)
	assert.Equal(t, `{"analyses":[]}`, resp.Text())
}

func TestGenerateResponse_Text(t *testing.T) {
	tests := []struct {
		name string
		resp GenerateResponse
		want string
	}{
		{
			name: "joins first candidate parts",
			resp: GenerateResponse{Candidates: []Candidate{
				{Content: Content{Parts: []Part{{Text: "one"}, {Text: "two"}}}},
				{Content: Content{Parts: []Part{{Text: "ignored"}}}},
			}},
			want: "one\ntwo",
		},
		{
			name: "no candidates",
			resp: GenerateResponse{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.Text())
		})
	}
}

func TestGenerateContent_CustomModelInPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient("gk-test", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithModel("gemini-test"))
	_, err := c.GenerateContent(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
}
