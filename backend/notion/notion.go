// Package notion implements backend.ContentAPI against the Notion REST API.
package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"notionat/backend"
	"notionat/internal/ratelimit"
	"notionat/internal/utils"
)

const (
	// DefaultBaseURL is the Notion REST API base URL
	DefaultBaseURL = "https://api.notion.com"

	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	// PageSize is the number of rows fetched per database query.
	PageSize = 100

	// maxPages bounds paginated listing (databases, users).
	maxPages = 10
)

// Config holds Notion connection settings
type Config struct {
	Token      string
	BaseURL    string // Override for testing
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Stats      *ratelimit.Stats
}

// Backend implements backend.ContentAPI using the Notion REST API
type Backend struct {
	client  *ratelimit.Client
	baseURL string
}

var _ backend.ContentAPI = (*Backend)(nil)

// New creates a new Notion backend
func New(cfg Config) (*Backend, error) {
	if cfg.Token == "" {
		return nil, utils.ErrTokenMissing()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)
	header.Set("Notion-Version", APIVersion)
	header.Set("Accept", "application/json")

	return &Backend{
		client: ratelimit.NewClient(ratelimit.Config{
			MaxRetries:   cfg.MaxRetries,
			BaseDelay:    cfg.RetryDelay,
			EnableJitter: true,
			Timeout:      cfg.Timeout,
			Header:       header,
			Stats:        cfg.Stats,
			API:          "notion",
		}),
		baseURL: baseURL,
	}, nil
}

// Close closes the backend
func (b *Backend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// apiError is Notion's error body.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusError is returned for non-2xx responses without a more specific error.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notion: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("notion: unexpected status %d", e.StatusCode)
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into out.
// notFound builds the error returned on 404.
func (b *Backend) doJSON(ctx context.Context, method, path string, body, out any, notFound func() error) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	resp, err := b.client.Do(ctx, method, b.baseURL+path, payload)
	if err != nil {
		var rle *ratelimit.RateLimitError
		if errors.As(err, &rle) || errors.Is(err, context.Canceled) {
			return err
		}
		return utils.ErrBackendOffline("notion", err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	utils.Debugf("notion %s %s: %d", method, path, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return utils.ErrAuthenticationFailed("notion")
	case resp.StatusCode == http.StatusNotFound && notFound != nil:
		return notFound()
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return readStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var ae apiError
	_ = json.Unmarshal(data, &ae)
	return &StatusError{StatusCode: resp.StatusCode, Code: ae.Code, Message: ae.Message}
}

// =============================================================================
// Search
// =============================================================================

type searchRequest struct {
	Query       string         `json:"query,omitempty"`
	Filter      map[string]any `json:"filter"`
	Sort        map[string]any `json:"sort"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

func (b *Backend) search(ctx context.Context, query, object, cursor string) (listResponse, error) {
	req := searchRequest{
		Query:       query,
		Filter:      map[string]any{"property": "object", "value": object},
		Sort:        map[string]any{"direction": "descending", "timestamp": "last_edited_time"},
		StartCursor: cursor,
		PageSize:    PageSize,
	}
	var resp listResponse
	err := b.doJSON(ctx, http.MethodPost, "/v1/search", req, &resp, nil)
	return resp, err
}

// SearchPages returns pages whose title matches query, most recently edited first.
func (b *Backend) SearchPages(ctx context.Context, query string) ([]backend.Page, error) {
	resp, err := b.search(ctx, query, backend.ObjectPage, "")
	if err != nil {
		return nil, err
	}
	return decodePages(resp.Results)
}

// FetchDatabases returns every database shared with the integration.
func (b *Backend) FetchDatabases(ctx context.Context) ([]backend.Page, error) {
	var all []backend.Page
	cursor := ""
	for i := 0; i < maxPages; i++ {
		resp, err := b.search(ctx, "", backend.ObjectDatabase, cursor)
		if err != nil {
			return nil, err
		}
		pages, err := decodePages(resp.Results)
		if err != nil {
			return nil, err
		}
		all = append(all, pages...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}
	return all, nil
}

// =============================================================================
// Databases
// =============================================================================

type queryRequest struct {
	PageSize int                 `json:"page_size"`
	Sorts    []map[string]string `json:"sorts"`
	Filter   backend.QueryFilter `json:"filter,omitempty"`
}

// QueryDatabase returns the most recently edited rows of a database, optionally filtered.
func (b *Backend) QueryDatabase(ctx context.Context, databaseID string, filter backend.QueryFilter) ([]backend.Page, error) {
	req := queryRequest{
		PageSize: PageSize,
		Sorts:    []map[string]string{{"timestamp": "last_edited_time", "direction": "descending"}},
		Filter:   filter,
	}
	var resp listResponse
	err := b.doJSON(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", req, &resp,
		func() error { return utils.ErrDatabaseNotFound(databaseID) })
	if err != nil {
		return nil, err
	}
	return decodePages(resp.Results)
}

// FetchDatabaseProperties returns a database schema, sorted by name. Select
// properties get the synthetic "No Selection" option first.
func (b *Backend) FetchDatabaseProperties(ctx context.Context, databaseID string) ([]backend.DatabaseProperty, error) {
	var db rawDatabase
	err := b.doJSON(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil, &db,
		func() error { return utils.ErrDatabaseNotFound(databaseID) })
	if err != nil {
		return nil, err
	}
	return db.schema(), nil
}

// =============================================================================
// Pages
// =============================================================================

// FetchPageContent renders the page's top-level blocks as markdown.
func (b *Backend) FetchPageContent(ctx context.Context, pageID string) (*backend.PageContent, error) {
	var blocks []rawBlock
	cursor := ""
	for i := 0; i < maxPages; i++ {
		path := "/v1/blocks/" + url.PathEscape(pageID) + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp struct {
			Results    []rawBlock `json:"results"`
			HasMore    bool       `json:"has_more"`
			NextCursor *string    `json:"next_cursor"`
		}
		err := b.doJSON(ctx, http.MethodGet, path, nil, &resp,
			func() error { return utils.ErrPageNotFound(pageID) })
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}
	return &backend.PageContent{Markdown: renderBlocks(blocks)}, nil
}

// PatchPage updates page properties and returns the updated page.
func (b *Backend) PatchPage(ctx context.Context, pageID string, patch backend.PropertyPatch) (*backend.Page, error) {
	var raw json.RawMessage
	err := b.doJSON(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(pageID),
		map[string]any{"properties": patch}, &raw,
		func() error { return utils.ErrPageNotFound(pageID) })
	if err != nil {
		return nil, err
	}
	page, err := decodePage(raw)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// =============================================================================
// Users
// =============================================================================

// FetchUsers returns the workspace members visible to the integration.
func (b *Backend) FetchUsers(ctx context.Context) ([]backend.User, error) {
	var users []backend.User
	cursor := ""
	for i := 0; i < maxPages; i++ {
		path := "/v1/users?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp struct {
			Results    []backend.User `json:"results"`
			HasMore    bool           `json:"has_more"`
			NextCursor *string        `json:"next_cursor"`
		}
		if err := b.doJSON(ctx, http.MethodGet, path, nil, &resp, nil); err != nil {
			return nil, err
		}
		users = append(users, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}
	return users, nil
}
