// Package whiteboard provides a client for the collaborative
// whiteboard server: an HTTP facade for session management and a
// websocket layer for the realtime relay.
package whiteboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Sentinel errors for the failure modes callers branch on.
var (
	ErrAuth        = errors.New("authentication required or token rejected")
	ErrNotFound    = errors.New("whiteboard not found")
	ErrUnavailable = errors.New("server unavailable")
)

// Client is a whiteboard API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	Token      string
	Email      string
	Name       string
	HTTPClient *http.Client
}

// Profile holds the cached local identity.
type Profile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// NewClient creates a new whiteboard client. Credentials cached by a
// previous Login are loaded from disk if present.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	configDir := os.Getenv("WHITEBOARD_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".whiteboard")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadProfile()
	return c
}

// LoadProfile loads the cached identity and token from disk.
func (c *Client) LoadProfile() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "profile.json"))
	if err != nil {
		return err
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	token, err := os.ReadFile(filepath.Join(c.ConfigDir, "token"))
	if err != nil {
		return err
	}

	c.Email = p.Email
	c.Name = p.Name
	c.Token = string(bytes.TrimSpace(token))
	return nil
}

// SaveProfile caches the identity and token to disk.
func (c *Client) SaveProfile(userID string) error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	p := Profile{UserID: userID, Name: c.Name, Email: c.Email}
	data, _ := json.MarshalIndent(p, "", "  ")
	if err := os.WriteFile(filepath.Join(c.ConfigDir, "profile.json"), data, 0600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.ConfigDir, "token"), []byte(c.Token), 0600)
}

// doRequest performs an HTTP request with the bearer token attached.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrAuth, errResp.Error)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, errResp.Error)
		case http.StatusServiceUnavailable:
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, errResp.Error)
		}
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// User is a registered user record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Whiteboard is a session record.
type Whiteboard struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	OwnerEmail string   `json:"owner_email"`
	Members    []string `json:"members"`
}

// Register ensures the user exists server-side. Registering an
// already-known email returns the stored record unchanged.
func (c *Client) Register(userID, name, email string) (*User, error) {
	body, _ := json.Marshal(map[string]string{
		"userId": userID,
		"name":   name,
		"email":  email,
	})

	respBody, err := c.doRequest("POST", "/users", body)
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(respBody, &u); err != nil {
		return nil, err
	}

	c.Name = u.Name
	c.Email = u.Email
	_ = c.SaveProfile(u.ID)
	return &u, nil
}

// CreateWhiteboard creates a new session under the given id. The id is
// minted client-side with NewSessionID.
func (c *Client) CreateWhiteboard(id, title string) (*Whiteboard, error) {
	body, _ := json.Marshal(map[string]string{
		"whiteBoardId": id,
		"title":        title,
		"email":        c.Email,
	})

	respBody, err := c.doRequest("POST", "/whiteboards", body)
	if err != nil {
		return nil, err
	}

	var wb Whiteboard
	if err := json.Unmarshal(respBody, &wb); err != nil {
		return nil, err
	}
	return &wb, nil
}

// GetWhiteboard fetches session metadata.
func (c *Client) GetWhiteboard(id string) (*Whiteboard, error) {
	respBody, err := c.doRequest("GET", "/whiteboards/"+id, nil)
	if err != nil {
		return nil, err
	}

	var wb Whiteboard
	if err := json.Unmarshal(respBody, &wb); err != nil {
		return nil, err
	}
	return &wb, nil
}

// DeleteWhiteboard removes a session.
func (c *Client) DeleteWhiteboard(id string) error {
	_, err := c.doRequest("DELETE", "/whiteboards/"+id, nil)
	return err
}

// JoinWhiteboard adds the caller to the session member list and
// returns the updated record.
func (c *Client) JoinWhiteboard(id string) (*Whiteboard, error) {
	body, _ := json.Marshal(map[string]string{"email": c.Email})

	respBody, err := c.doRequest("PUT", "/whiteboards/"+id, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Whiteboard Whiteboard `json:"whiteboard"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp.Whiteboard, nil
}

// LeaveWhiteboard removes the caller from the session member list.
func (c *Client) LeaveWhiteboard(id string) error {
	body, _ := json.Marshal(map[string]string{"email": c.Email})
	_, err := c.doRequest("PUT", "/whiteboards/leave/"+id, body)
	return err
}

// IsHost reports whether the caller owns the session.
func (c *Client) IsHost(id string) (bool, *Whiteboard, error) {
	body, _ := json.Marshal(map[string]string{
		"whiteboardId": id,
		"email":        c.Email,
	})

	respBody, err := c.doRequest("POST", "/whiteboards/ishost", body)
	if err != nil {
		return false, nil, err
	}

	var resp struct {
		IsHost     bool       `json:"isHost"`
		Whiteboard Whiteboard `json:"whiteboard"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return false, nil, err
	}
	return resp.IsHost, &resp.Whiteboard, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
