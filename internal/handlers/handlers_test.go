package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HIMANSHU6001/whiteboard/internal/api/middleware"
	"github.com/HIMANSHU6001/whiteboard/internal/models"
	"github.com/HIMANSHU6001/whiteboard/internal/relay"
)

// fakeStore is an in-memory DataStore for handler tests.
type fakeStore struct {
	users       map[string]*models.User // keyed by email
	whiteboards map[string]*models.Whiteboard
	failAll     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]*models.User{},
		whiteboards: map[string]*models.Whiteboard{},
	}
}

var errFake = errors.New("store unavailable")

func (f *fakeStore) Close() {}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.failAll {
		return errFake
	}
	return nil
}

func (f *fakeStore) CreateUser(ctx context.Context, id, name, email string) (*models.User, error) {
	if f.failAll {
		return nil, errFake
	}
	u := &models.User{ID: id, Name: name, Email: email}
	f.users[email] = u
	return u, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.failAll {
		return nil, errFake
	}
	return f.users[email], nil
}

func (f *fakeStore) CountUsers(ctx context.Context) (int64, error) {
	if f.failAll {
		return 0, errFake
	}
	return int64(len(f.users)), nil
}

func (f *fakeStore) CreateWhiteboard(ctx context.Context, id, title, ownerEmail string) (*models.Whiteboard, error) {
	if f.failAll {
		return nil, errFake
	}
	wb := &models.Whiteboard{ID: id, Title: title, OwnerEmail: ownerEmail, Members: []string{ownerEmail}}
	f.whiteboards[id] = wb
	return wb, nil
}

func (f *fakeStore) GetWhiteboard(ctx context.Context, id string) (*models.Whiteboard, error) {
	if f.failAll {
		return nil, errFake
	}
	return f.whiteboards[id], nil
}

func (f *fakeStore) DeleteWhiteboard(ctx context.Context, id string) error {
	if f.failAll {
		return errFake
	}
	delete(f.whiteboards, id)
	return nil
}

func (f *fakeStore) AddMember(ctx context.Context, whiteboardID, email string) error {
	if f.failAll {
		return errFake
	}
	wb := f.whiteboards[whiteboardID]
	for _, m := range wb.Members {
		if m == email {
			return nil
		}
	}
	wb.Members = append(wb.Members, email)
	return nil
}

func (f *fakeStore) RemoveMember(ctx context.Context, whiteboardID, email string) error {
	if f.failAll {
		return errFake
	}
	wb := f.whiteboards[whiteboardID]
	kept := wb.Members[:0]
	for _, m := range wb.Members {
		if m != email {
			kept = append(kept, m)
		}
	}
	wb.Members = kept
	return nil
}

func (f *fakeStore) CountWhiteboards(ctx context.Context) (int64, error) {
	if f.failAll {
		return 0, errFake
	}
	return int64(len(f.whiteboards)), nil
}

// withIdentity injects a verified caller, standing in for RequireAuth.
func withIdentity(email string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := &middleware.Identity{Subject: "sub-" + email, Email: email, Name: "Tester"}
		ctx := context.WithValue(r.Context(), middleware.IdentityContextKey, identity)
		next(w, r.WithContext(ctx))
	}
}

func newTestRouter(db *fakeStore) (*chi.Mux, *Handler) {
	registry := relay.NewRegistry(zerolog.Nop())
	h := NewHandler(db, nil, registry)

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Post("/users", withIdentity("alice@example.com", h.CreateUser))
	r.Post("/whiteboards", withIdentity("alice@example.com", h.CreateWhiteboard))
	r.Get("/whiteboards/{id}", h.GetWhiteboard)
	r.Delete("/whiteboards/{id}", withIdentity("alice@example.com", h.DeleteWhiteboard))
	r.Put("/whiteboards/{id}", withIdentity("bob@example.com", h.JoinWhiteboard))
	r.Put("/whiteboards/leave/{id}", withIdentity("bob@example.com", h.LeaveWhiteboard))
	r.Post("/whiteboards/ishost", withIdentity("alice@example.com", h.IsHost))
	return r, h
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const testBoardID = "Ab3dE-kx1a2b"

func TestCreateUser_Idempotent(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	body := map[string]string{"name": "Alice", "email": "alice@example.com", "userId": "kc-123"}

	rec := doJSON(t, router, http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Same email again returns the stored record, not a duplicate.
	rec = doJSON(t, router, http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "kc-123", u.ID)
	assert.Len(t, db.users, 1)
}

func TestCreateUser_Validation(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"name": "Alice", "userId": "kc-123"}},
		{"missing name", map[string]string{"email": "a@b.com", "userId": "kc-123"}},
		{"missing id", map[string]string{"name": "Alice", "email": "a@b.com"}},
		{"bad email", map[string]string{"name": "Alice", "email": "not-an-email", "userId": "kc-123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, db.users)
}

func TestCreateWhiteboard(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	body := map[string]string{"title": "Sprint planning", "email": "alice@example.com", "whiteBoardId": testBoardID}
	rec := doJSON(t, router, http.MethodPost, "/whiteboards", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var wb models.Whiteboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wb))
	assert.Equal(t, testBoardID, wb.ID)
	assert.Equal(t, "alice@example.com", wb.OwnerEmail)
	assert.Contains(t, wb.Members, "alice@example.com")

	// Reusing the id is a conflict.
	rec = doJSON(t, router, http.MethodPost, "/whiteboards", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateWhiteboard_RejectsBadID(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	body := map[string]string{"title": "T", "email": "alice@example.com", "whiteBoardId": "not a valid id!"}
	rec := doJSON(t, router, http.MethodPost, "/whiteboards", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, db.whiteboards)
}

func TestGetWhiteboard_NotFound(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	rec := doJSON(t, router, http.MethodGet, "/whiteboards/Zz9Zz-abc123", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinAndLeaveWhiteboard(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	_, err := db.CreateWhiteboard(context.Background(), testBoardID, "T", "alice@example.com")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPut, "/whiteboards/"+testBoardID, map[string]string{"email": "bob@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, db.whiteboards[testBoardID].Members, "bob@example.com")

	// Joining twice does not duplicate the membership row.
	rec = doJSON(t, router, http.MethodPut, "/whiteboards/"+testBoardID, map[string]string{"email": "bob@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, db.whiteboards[testBoardID].Members, 2)

	rec = doJSON(t, router, http.MethodPut, "/whiteboards/leave/"+testBoardID, map[string]string{"email": "bob@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, db.whiteboards[testBoardID].Members, "bob@example.com")
}

func TestDeleteWhiteboard(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	_, err := db.CreateWhiteboard(context.Background(), testBoardID, "T", "alice@example.com")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodDelete, "/whiteboards/"+testBoardID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, db.whiteboards)

	// Deleting again reports not found.
	rec = doJSON(t, router, http.MethodDelete, "/whiteboards/"+testBoardID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIsHost(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	_, err := db.CreateWhiteboard(context.Background(), testBoardID, "T", "alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		boardID  string
		wantCode int
		wantHost bool
	}{
		{"owner", "alice@example.com", testBoardID, http.StatusOK, true},
		{"member", "bob@example.com", testBoardID, http.StatusOK, false},
		{"unknown board", "alice@example.com", "Qq1Qq-zzz999", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/whiteboards/ishost", map[string]string{
				"whiteboardId": tt.boardID,
				"email":        tt.email,
			})
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var resp IsHostResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantHost, resp.IsHost)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	db := newFakeStore()
	router, _ := newTestRouter(db)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.Checks["redis"])

	db.failAll = true
	rec = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	db := newFakeStore()
	router, h := newTestRouter(db)

	_, err := db.CreateUser(context.Background(), "kc-1", "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = db.CreateWhiteboard(context.Background(), testBoardID, "T", "alice@example.com")
	require.NoError(t, err)
	h.registry.Join(newStubConn("c1"), testBoardID, "alice")

	rec := doJSON(t, router, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Users)
	assert.Equal(t, int64(1), resp.Whiteboards)
	assert.Equal(t, 1, resp.LiveRooms)
	assert.Equal(t, 1, resp.LiveClients)
}

// stubConn satisfies relay.Connection for registry seeding.
type stubConn struct{ id string }

func newStubConn(id string) *stubConn { return &stubConn{id: id} }

func (s *stubConn) ID() string             { return s.id }
func (s *stubConn) Send(data []byte) error { return nil }
func (s *stubConn) Close() error           { return nil }
