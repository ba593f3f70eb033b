package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, WithHTTPClient(server.Client()))
}

func TestListGuilds(t *testing.T) {
	t.Run("returns guilds on success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/@me/guilds", r.URL.Path)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":"734595073920204940","name":"support"},{"id":"111","name":"other"}]`))
		})

		guilds, err := client.ListGuilds(context.Background(), "token-1")
		require.NoError(t, err)
		require.Len(t, guilds, 2)
		assert.Equal(t, "734595073920204940", guilds[0].ID)
		assert.Equal(t, "support", guilds[0].Name)
	})

	t.Run("maps 401 to ErrUnauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.ListGuilds(context.Background(), "bad-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.False(t, IsTransient(err))
	})

	t.Run("maps 403 to ErrForbidden", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := client.ListGuilds(context.Background(), "token-1")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.True(t, IsTransient(err))
	})

	t.Run("maps 429 to RateLimitError with retry-after", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1.5")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.ListGuilds(context.Background(), "token-1")
		var rateLimitErr *RateLimitError
		require.ErrorAs(t, err, &rateLimitErr)
		assert.Equal(t, 1500*time.Millisecond, rateLimitErr.RetryAfter)
		assert.True(t, IsTransient(err))
	})

	t.Run("maps 500 to StatusError", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.ListGuilds(context.Background(), "token-1")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
		assert.True(t, IsTransient(err))
	})

	t.Run("maps undecodable body to MalformedResponseError", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"an array"`))
		})

		_, err := client.ListGuilds(context.Background(), "token-1")
		var malformedErr *MalformedResponseError
		require.ErrorAs(t, err, &malformedErr)
		assert.True(t, IsTransient(err))
	})

	t.Run("maps connection failure to NetworkError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()
		client := NewClient(server.URL)

		_, err := client.ListGuilds(context.Background(), "token-1")
		var networkErr *NetworkError
		require.ErrorAs(t, err, &networkErr)
		assert.True(t, IsTransient(err))
	})
}

func TestGetGuildMember(t *testing.T) {
	t.Run("returns member roles", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/@me/guilds/734595073920204940/member", r.URL.Path)
			w.Write([]byte(`{"roles":["1114379479381442650","999"]}`))
		})

		member, err := client.GetGuildMember(context.Background(), "token-1", "734595073920204940")
		require.NoError(t, err)
		assert.Equal(t, []string{"1114379479381442650", "999"}, member.Roles)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.GetGuildMember(ctx, "token-1", "123")
		var networkErr *NetworkError
		require.ErrorAs(t, err, &networkErr)
	})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unauthorized", err: ErrUnauthorized, want: false},
		{name: "forbidden", err: ErrForbidden, want: true},
		{name: "rate limited", err: &RateLimitError{}, want: true},
		{name: "network", err: &NetworkError{Err: errors.New("dial")}, want: true},
		{name: "malformed", err: &MalformedResponseError{Err: errors.New("eof")}, want: true},
		{name: "status", err: &StatusError{Status: 502}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
