// Package client is a REST client for the chatbot backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 90 * time.Second

// Client calls the chatbot REST API
type Client struct {
	baseURL string
	client  *http.Client
	authMgr AuthManager
}

// New creates a client for the backend at baseURL
func New(baseURL string, authMgr AuthManager) *Client {
	if authMgr == nil {
		authMgr = NoAuth{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		authMgr: authMgr,
	}
}

// SetTimeout sets the timeout for the HTTP client
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// Health calls GET /
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends a message for userID and returns the assistant's answer
func (c *Client) Chat(ctx context.Context, userID, message string) (*Reply, error) {
	body, err := json.Marshal(map[string]string{
		"userId":      userID,
		"userMessage": message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var out Reply
	if err := c.do(ctx, http.MethodPost, "/chat", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatWithFile sends a message with an attached file
func (c *Client) ChatWithFile(ctx context.Context, userID, message string, file *Attachment) (*Reply, error) {
	body, contentType, err := multipartBody(userID, message, file)
	if err != nil {
		return nil, err
	}

	var out Reply
	if err := c.do(ctx, http.MethodPost, "/chat-with-file", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns up to limit of the user's most recent turns. limit <= 0
// leaves the page size to the server.
func (c *Client) History(ctx context.Context, userID string, limit int) (*History, error) {
	path := "/history/" + url.PathEscape(userID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out History
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHistory drops the user's conversation and returns how many turns it held
func (c *Client) ClearHistory(ctx context.Context, userID string) (int, error) {
	var out struct {
		DeletedCount int `json:"deletedCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/history/"+url.PathEscape(userID), nil, "", &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

// Me returns the profile of the token's owner
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, "", &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if err := c.authMgr.ApplyAuth(req); err != nil {
		return fmt.Errorf("failed to apply authentication: %w", err)
	}

	logger.Debug("request route", zap.String("method", method), zap.String("path", path))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		apiErr.Details = body.Details
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func multipartBody(userID, message string, file *Attachment) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for field, value := range map[string]string{"userId": userID, "userMessage": message} {
		if err := writer.WriteField(field, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("failed to copy file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
