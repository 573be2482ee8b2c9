package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

// HTTPClient calls the session endpoints as a programmatic caller, so every
// answer is JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
			// redirects mean the server did not see us as an API caller
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (c *HTTPClient) Register(ctx context.Context, username, email string, password []byte) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": string(password),
	})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": string(password),
	})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/logout", token, nil)
	return err
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, token string) (string, error) {
	resp, err := c.do(ctx, http.MethodDelete, "/account", token, nil)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body any) (*apiResponse, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out apiResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&out)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: out.Message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if out.Status != "" && out.Status != "success" {
		return nil, errors.New(out.Message)
	}
	return &out, nil
}
