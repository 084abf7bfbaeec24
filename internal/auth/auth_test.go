package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

var jane = models.User{ID: "7c1f0c9e-user", Email: "jane@example.com", Name: "Jane Doe"}

func TestJWTProvider_RoundTrip(t *testing.T) {
	t.Parallel()
	secret := "super-secret"

	tok, err := GenerateToken(jane, []byte(secret), time.Hour)
	require.NoError(t, err)

	got, err := NewJWTProvider(secret).Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, jane, *got)
}

func TestJWTProvider_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := GenerateToken(jane, []byte("s"), -time.Second)
	require.NoError(t, err)
	wrongSecret, err := GenerateToken(jane, []byte("other"), time.Hour)
	require.NoError(t, err)
	noSubject, err := GenerateToken(models.User{Email: "x@y.z"}, []byte("s"), time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}).SignedString([]byte("s"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"no subject":   noSubject,
		"wrong alg":    hs512,
		"garbage":      "not-a-jwt",
	}
	p := NewJWTProvider("s")
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Resolve(context.Background(), tok)
			assert.ErrorIs(t, err, common.ErrUnauthorized)
		})
	}
}

func TestSupabaseProvider_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u-1","email":"jane@example.com","user_metadata":{"name":"Jane"}}`))
	}))
	defer srv.Close()

	p := NewSupabaseProvider(srv.URL, "anon")

	u, err := p.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "Jane", u.Name)

	_, err = p.Resolve(context.Background(), "bad")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := "s"
	tok, err := GenerateToken(jane, []byte(secret), time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(NewJWTProvider(secret), logging.Discard()))
	r.GET("/me", func(c *gin.Context) {
		u, ok := UserFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer header", "Bearer " + tok, "", http.StatusOK},
		{"lowercase scheme", "bearer " + tok, "", http.StatusOK},
		{"query token", "", "?access_token=" + tok, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"basic auth", "Basic abc", "", http.StatusUnauthorized},
		{"invalid", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
