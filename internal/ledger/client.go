package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

// APIError is a non-2xx response from the ledger service.
type APIError struct {
	Status  int    `json:"-"`
	Detail  string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`

	sentinel error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ledger: %s (status=%d code=%s)", e.Detail, e.Status, e.Code)
	}
	if e.Code != "" {
		return fmt.Sprintf("ledger: %s (status=%d code=%s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("ledger: status=%d: %s", e.Status, e.Message)
}

// Unwrap exposes the matching ledger sentinel, so callers can use errors.Is
// the same way for remote and local ledgers.
func (e *APIError) Unwrap() error {
	return e.sentinel
}

// ErrBusy is returned when ledgerd rejects an upload because every upload
// slot is taken.
var ErrBusy = errors.New("ledger busy")

// Client talks to a ledgerd instance for a single collection.
type Client struct {
	baseURL    *url.URL
	collection uuid.UUID
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the collection at baseURL.
func NewClient(baseURL string, collection uuid.UUID, apiKey string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ledger url: %q", baseURL)
	}
	if collection == uuid.Nil {
		return nil, errors.New("ledger collection id is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    u,
		collection: collection,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ItemExists implements Ledger.
func (c *Client) ItemExists(ctx context.Context, id hash.Hash) (*ExistingItem, error) {
	var item ExistingItem
	status, err := c.do(ctx, http.MethodGet, c.itemPath(id), nil, "", &item)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItems implements Ledger.
func (c *Client) CreateItems(ctx context.Context, items []NewItem) error {
	body, err := json.Marshal(createItemsRequest{Items: items})
	if err != nil {
		return fmt.Errorf("json marshal request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, c.collectionPath()+"/items", bytes.NewReader(body), "application/json", nil)
	return err
}

// UploadFile implements Ledger.
func (c *Client) UploadFile(ctx context.Context, itemID, fileHash hash.Hash, content []byte) error {
	path := c.itemPath(itemID) + "/files/" + fileHash.Hex()
	_, err := c.do(ctx, http.MethodPut, path, bytes.NewReader(content), "application/octet-stream", nil)
	return err
}

func (c *Client) collectionPath() string {
	return "/api/collections/" + c.collection.String()
}

func (c *Client) itemPath(id hash.Hash) string {
	return c.collectionPath() + "/items/" + id.Hex()
}

type createItemsRequest struct {
	Items []NewItem `json:"items"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) (int, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("http read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		apiErr.sentinel = sentinelFor(resp.StatusCode, apiErr.Code, apiErr.Detail)
		return resp.StatusCode, apiErr
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("json unmarshal response: %w", err)
	}
	return resp.StatusCode, nil
}

// sentinelFor maps support codes produced by ledgerd back to sentinels.
func sentinelFor(status int, code, detail string) error {
	switch code {
	case "LED002":
		return ErrItemExists
	case "LED003":
		return ErrAlreadyUploaded
	case "LED004":
		if strings.Contains(detail, ErrFileNotFound.Error()) {
			return ErrFileNotFound
		}
		return ErrItemNotFound
	case "LED005":
		return ErrHashMismatch
	}
	if status == http.StatusConflict {
		return ErrItemExists
	}
	if code == "UPL001" || status == http.StatusServiceUnavailable {
		return ErrBusy
	}
	return nil
}
