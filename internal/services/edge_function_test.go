package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

func TestEdgeFunctionGenerator_Generate(t *testing.T) {
	var got models.GenerationRequest
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content": "Dear Hiring Manager"}`))
	}))
	defer srv.Close()

	gen := NewEdgeFunctionGenerator(srv.URL+"/", "anon", "generate-cover-letter", "gemini-2.5-flash", time.Second)

	var last int
	content, err := gen.Generate(context.Background(), sampleRequest("da-DK"), func(p int) { last = p })
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager", content)
	assert.Equal(t, 100, last)

	assert.Equal(t, "/functions/v1/generate-cover-letter", path)
	assert.Equal(t, "Bearer anon", auth)
	assert.Equal(t, "Backend Developer", got.JobInfo.Title)
	assert.Equal(t, "Ann", got.JobInfo.ContactPerson)
	assert.Equal(t, "da-DK", got.Locale)
	assert.Equal(t, "gemini-2.5-flash", got.Model)
}

func TestEdgeFunctionGenerator_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"error payload", http.StatusTooManyRequests, `{"error": "rate limited"}`, "rate limited"},
		{"plain status", http.StatusBadGateway, `upstream down`, "generation function returned status 502: upstream down"},
		{"empty content", http.StatusOK, `{"content": "  "}`, "no content received from the generation function"},
		{"missing content", http.StatusOK, `{}`, "no content received from the generation function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen := NewEdgeFunctionGenerator(srv.URL, "k", "fn", "", time.Second)
			_, err := gen.Generate(context.Background(), sampleRequest("en"), nil)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestEdgeFunctionGenerator_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": "` + strings.Repeat("a", 4096) + `"}`))
	}))
	defer srv.Close()

	gen := NewEdgeFunctionGenerator(srv.URL, "k", "fn", "", time.Second)
	gen.maxBody = 1024
	_, err := gen.Generate(context.Background(), sampleRequest("en"), nil)
	assert.EqualError(t, err, "generation function response exceeds 1024 bytes")

	gen.maxBody = maxEdgeResponse
	content, err := gen.Generate(context.Background(), sampleRequest("en"), nil)
	require.NoError(t, err)
	assert.Len(t, content, 4096)
}
