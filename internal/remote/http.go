package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/BloggingApp/feed-client/internal/config"
	"github.com/BloggingApp/feed-client/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/BloggingApp/feed-client/internal/remote"

type HTTPClient struct {
	logger      *zap.Logger
	baseURL     string
	accessToken string
	pageSize    int
	httpClient  *http.Client
	tracer      trace.Tracer
}

func NewHTTPClient(logger *zap.Logger, cfg config.RemoteConfig) *HTTPClient {
	return &HTTPClient{
		logger:      logger,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		pageSize:    cfg.PageSize,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		tracer:      otel.Tracer(tracerName),
	}
}

type feedPageResponse struct {
	Posts      []model.Post    `json:"posts"`
	NextCursor json.RawMessage `json:"nextCursor"`
}

type likeResponse struct {
	AddedLike bool `json:"addedLike"`
}

type followResponse struct {
	AddedFollow bool `json:"addedFollow"`
}

type createPostRequest struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Details string `json:"details"`
}

func (c *HTTPClient) FetchFeedPage(ctx context.Context, key model.ViewKey, cursor string) (*model.FeedPage, error) {
	query := url.Values{}
	if c.pageSize > 0 {
		query.Set("limit", strconv.Itoa(c.pageSize))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var endpoint string
	switch key.Kind {
	case model.ViewGlobal:
		endpoint = "/feed"
	case model.ViewFollowing:
		endpoint = "/feed"
		query.Set("onlyFollowing", "true")
	case model.ViewProfile:
		if key.UserID == "" {
			return nil, ErrInvalidView
		}
		endpoint = "/profiles/" + url.PathEscape(key.UserID) + "/feed"
	default:
		return nil, ErrInvalidView
	}

	var resp feedPageResponse
	if err := c.do(ctx, "fetchFeedPage", http.MethodGet, endpoint, query, nil, &resp); err != nil {
		return nil, err
	}

	next, err := decodeCursor(resp.NextCursor)
	if err != nil {
		c.logger.Sugar().Errorf("remote returned a malformed cursor for view(%s): %s", key.String(), string(resp.NextCursor))
		return nil, err
	}

	return &model.FeedPage{Posts: resp.Posts, NextCursor: next}, nil
}

func (c *HTTPClient) SubmitLike(ctx context.Context, postID string) (bool, error) {
	var resp likeResponse
	if err := c.do(ctx, "submitLike", http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.AddedLike, nil
}

func (c *HTTPClient) SubmitPost(ctx context.Context, content string) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, "submitPost", http.MethodPost, "/posts", nil, createPostRequest{Content: content}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) SubmitFollow(ctx context.Context, userID string) (bool, error) {
	var resp followResponse
	if err := c.do(ctx, "submitFollow", http.MethodPost, "/profiles/"+url.PathEscape(userID)+"/follow", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.AddedFollow, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, "getProfile", http.MethodGet, "/profiles/"+url.PathEscape(userID), nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, endpoint string, query url.Values, body interface{}, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "remote."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", endpoint),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create request to remote(%s): %s", endpoint, err.Error())
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Add("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Errorf("failed to send request to remote(%s): %s", endpoint, err.Error())
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to read response body from remote(%s): %s", endpoint, err.Error())
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody errorResponse
		if err := json.Unmarshal(respBody, &errBody); err != nil || errBody.Details == "" {
			return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, endpoint, resp.StatusCode)
		}
		c.logger.Sugar().Errorf("ERROR from remote endpoint(%s), code(%d), details: %s", endpoint, resp.StatusCode, errBody.Details)
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, endpoint, resp.StatusCode, errBody.Details)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.logger.Sugar().Errorf("failed to decode response body from remote(%s): %s", endpoint, err.Error())
		return err
	}
	return nil
}

// decodeCursor keeps the server's cursor opaque. A string cursor is used as
// is and a structured one is carried as its compact JSON text.
func decodeCursor(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("%w: %s", ErrMalformedCursor, err.Error())
		}
		return s, nil
	case '{':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return "", fmt.Errorf("%w: %s", ErrMalformedCursor, err.Error())
		}
		return compact.String(), nil
	}
	return "", fmt.Errorf("%w: unexpected cursor %s", ErrMalformedCursor, string(trimmed))
}
