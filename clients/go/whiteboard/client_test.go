package whiteboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.ConfigDir = t.TempDir()
	c.Token = "test-token"
	c.Email = "alice@example.com"
	c.Name = "Alice"
	return c
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Whiteboard{ID: "Ab3dE-kx1a2b"})
	})

	_, err := c.GetWhiteboard("Ab3dE-kx1a2b")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuth},
		{"forbidden", http.StatusForbidden, ErrAuth},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unavailable", http.StatusServiceUnavailable, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": tt.name})
			})

			_, err := c.GetWhiteboard("Ab3dE-kx1a2b")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_RegisterCachesProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(User{ID: req["userId"], Name: req["name"], Email: req["email"]})
	})

	u, err := c.Register("kc-1", "Alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "kc-1", u.ID)

	// A fresh client pointed at the same config dir picks the token up.
	c2 := &Client{BaseURL: c.BaseURL, ConfigDir: c.ConfigDir, HTTPClient: c.HTTPClient}
	require.NoError(t, c2.LoadProfile())
	assert.Equal(t, "test-token", c2.Token)
	assert.Equal(t, "alice@example.com", c2.Email)
}

func TestClient_JoinWhiteboard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/whiteboards/Ab3dE-kx1a2b", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":    "user added to whiteboard",
			"whiteboard": Whiteboard{ID: "Ab3dE-kx1a2b", Members: []string{"owner@example.com", "alice@example.com"}},
		})
	})

	wb, err := c.JoinWhiteboard("Ab3dE-kx1a2b")
	require.NoError(t, err)
	assert.Contains(t, wb.Members, "alice@example.com")
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{5}-[0-9a-z]+$`)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	require.Regexp(t, sessionIDPattern, id)

	// The suffix is the mint time in base-36 milliseconds.
	ms, err := strconv.ParseInt(id[6:], 36, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), ms, 5000)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		require.Regexp(t, sessionIDPattern, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 95, "ids minted in a tight loop should still be distinct")
}
