// Package apiclient is the single HTTP transport for the CMS REST API. It
// joins paths to the configured endpoint, injects the session's bearer token
// and enforces the logout-on-401 rule for every caller.
package apiclient

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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/navigation"
	"github.com/kapu/society-cms-go/internal/session"
	"github.com/kapu/society-cms-go/internal/util"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type Config struct {
	// Endpoint is the API root including the version prefix,
	// e.g. https://host/api/v1.
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    *Breaker
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	session    *session.Session
	navigator  navigation.Navigator
	breaker    *Breaker
	logger     *zap.Logger
}

func NewClient(cfg Config, sess *session.Session, navigator navigation.Navigator, logger *zap.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = constants.APIConfig.DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breaker = NewBreaker(
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		)
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: httpClient,
		session:    sess,
		navigator:  navigator,
		breaker:    breaker,
		logger:     logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, respBody any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, respBody)
}

func (c *Client) Post(ctx context.Context, path string, reqBody, respBody any) error {
	return c.Do(ctx, http.MethodPost, path, nil, reqBody, respBody)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, reqBody, respBody any) error {
	return c.Do(ctx, http.MethodPut, path, query, reqBody, respBody)
}

func (c *Client) Patch(ctx context.Context, path string, reqBody, respBody any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, reqBody, respBody)
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values, respBody any) error {
	return c.Do(ctx, http.MethodDelete, path, query, nil, respBody)
}

// Do sends a JSON request. A nil reqBody sends no body; respBody may be nil,
// a *string for endpoints that answer with a bare string, or any JSON target.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, reqBody, respBody any) error {
	reqURL := c.buildURL(path, query)

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": reqURL,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, respBody)
}

// Upload posts a single file as multipart/form-data under field.
func (c *Client) Upload(ctx context.Context, path, field, filename, contentType string, data []byte, respBody any) error {
	reqURL := c.buildURL(path, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err == nil {
		_, err = part.Write(data)
	}
	if err == nil {
		err = writer.Close()
	}
	if err != nil {
		return errors.NewAPIError("failed to encode upload", 400, map[string]any{
			"url":      reqURL,
			"filename": filename,
		}).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, respBody)
}

func (c *Client) send(req *http.Request, respBody any) error {
	reqURL := req.URL.String()

	if !c.breaker.CanExecute() {
		retryAfter := c.breaker.RetryAfter()
		c.logger.Warn("Circuit breaker is open", zap.Duration("retry_after", retryAfter))
		return errors.NewAPIError("backend temporarily unavailable", http.StatusServiceUnavailable, map[string]any{
			"url":            reqURL,
			"retry_after_ms": retryAfter.Milliseconds(),
		})
	}

	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() == nil {
			c.breaker.RecordFailure()
		}
		return errors.NewAPIError("request failed", 0, map[string]any{
			"url":    reqURL,
			"method": req.Method,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewAPIError("failed to read response", resp.StatusCode, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.breaker.RecordSuccess()
		return c.handleUnauthorized(req, body)
	case resp.StatusCode >= 500:
		c.breaker.RecordFailure()
		return c.statusError(req, resp, body)
	case resp.StatusCode >= 400:
		c.breaker.RecordSuccess()
		return c.statusError(req, resp, body)
	}

	c.breaker.RecordSuccess()
	return decodeBody(reqURL, body, respBody)
}

// handleUnauthorized is the authoritative session enforcement point: any 401
// drops the token and sends the user to the login route.
func (c *Client) handleUnauthorized(req *http.Request, body []byte) error {
	c.logger.Warn("Unauthorized response, clearing session",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Path),
	)

	if err := c.session.Teardown(context.WithoutCancel(req.Context())); err != nil {
		c.logger.Error("Failed to clear session after 401", zap.Error(err))
	}
	if c.navigator != nil {
		c.navigator.Navigate(constants.Routes.AdminLogin)
	}

	return errors.NewAuthError("session expired, please log in again", map[string]any{
		"url":            req.URL.String(),
		"server_message": serverMessage(body),
	})
}

func (c *Client) statusError(req *http.Request, resp *http.Response, body []byte) error {
	msg := serverMessage(body)
	c.logger.Debug("API error response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg),
	)
	return errors.NewAPIError(
		fmt.Sprintf("CMS API error: %s", resp.Status),
		resp.StatusCode,
		map[string]any{
			"url":            req.URL.String(),
			"server_message": msg,
		},
	)
}

func (c *Client) buildURL(path string, query url.Values) string {
	reqURL := c.endpoint + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	return reqURL
}

func decodeBody(reqURL string, body []byte, respBody any) error {
	if respBody == nil {
		return nil
	}

	if s, ok := respBody.(*string); ok {
		*s = decodeString(body)
		return nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return errors.NewAPIError("failed to decode response", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	return nil
}

// decodeString accepts both a bare text body and a JSON string literal.
func decodeString(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// serverMessage pulls a human readable message out of an error body.
func serverMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}
	return util.TruncateString(decodeString(trimmed), 200)
}
