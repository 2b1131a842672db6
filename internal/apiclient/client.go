// Package apiclient is the typed HTTP client for the invitio backend. The
// editor uses it for auth, project sync, and image upload; it satisfies
// persist.Remote so the saver can talk to it directly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/invitio/invitio/backend-go/internal/persist"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and adopts the returned token.
func (c *Client) Register(ctx context.Context, email, password, name string) (User, error) {
	var out authResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password, "name": name}, &out)
	if err != nil {
		return User{}, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

// Login authenticates and adopts the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out authResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return User{}, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

type projectEnvelope struct {
	ID       string          `json:"id"`
	Document json.RawMessage `json:"document"`
}

// SaveProject creates a backend project from a serialized document and
// returns its id.
func (c *Client) SaveProject(ctx context.Context, payload []byte) (string, error) {
	var out projectEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/api/projects",
		projectEnvelope{Document: payload}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateProject overwrites a backend project's document. A 404 maps to
// persist.ErrRemoteNotFound so the saver re-creates the project.
func (c *Client) UpdateProject(ctx context.Context, id string, payload []byte) error {
	return c.doJSON(ctx, http.MethodPut, "/api/projects/"+id,
		projectEnvelope{Document: payload}, nil)
}

// GetProject fetches a project's serialized document.
func (c *Client) GetProject(ctx context.Context, id string) ([]byte, error) {
	var out projectEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Document, nil
}

type UploadedImage struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// UploadImage sends image bytes as the "image" multipart field.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (UploadedImage, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("apiclient: upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadedImage{}, fmt.Errorf("apiclient: upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadedImage{}, fmt.Errorf("apiclient: upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images/upload", &body)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("apiclient: upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("apiclient: upload: %w", err)
	}
	defer resp.Body.Close()

	var out UploadedImage
	if err := decodeResponse(resp, &out); err != nil {
		return UploadedImage{}, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) authorize(req *http.Request) {
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("apiclient: %s: %w", resp.Request.URL.Path, persist.ErrRemoteNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("apiclient: %s: status %d: %s", resp.Request.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}
