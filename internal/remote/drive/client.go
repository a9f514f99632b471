package drive

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

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/services"
)

const (
	// DefaultBaseURL is the Google Drive v3 API endpoint
	DefaultBaseURL = "https://www.googleapis.com/drive/v3"
	// DefaultTimeout is the default HTTP timeout for Drive requests
	DefaultTimeout = 30 * time.Second

	folderMimeType = "application/vnd.google-apps.folder"
)

// TokenSource supplies a bearer token per request, so rotation happens
// outside the client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed access token.
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Client implements services.HierarchyProvider against the Google Drive v3
// REST API. Only the folder primitives the provisioner needs are covered.
type Client struct {
	tokens     TokenSource
	baseURL    string
	httpClient *http.Client
}

var _ services.HierarchyProvider = (*Client)(nil)

// NewClient creates a Drive client with default settings.
func NewClient(tokens TokenSource) *Client {
	return NewClientWithConfig(tokens, DefaultBaseURL, DefaultTimeout)
}

// NewClientWithConfig creates a Drive client with custom configuration.
func NewClientWithConfig(tokens TokenSource, baseURL string, timeout time.Duration) *Client {
	return &Client{
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FindByNameUnderParent searches for an exact-name folder under the parent.
// Trashed items are excluded; a nil parent searches the hierarchy root. With
// multiple remote matches the first in Drive's order wins.
func (c *Client) FindByNameUnderParent(ctx context.Context, name string, parentRef *string) (*models.RemoteFolder, error) {
	terms := []string{
		fmt.Sprintf("name = '%s'", escapeQueryValue(name)),
		fmt.Sprintf("mimeType = '%s'", folderMimeType),
		"trashed = false",
	}
	if parentRef != nil {
		terms = append(terms, fmt.Sprintf("'%s' in parents", escapeQueryValue(*parentRef)))
	} else {
		terms = append(terms, "'root' in parents")
	}

	params := url.Values{}
	params.Set("q", strings.Join(terms, " and "))
	params.Set("fields", "files(id,name,parents,mimeType)")
	params.Set("supportsAllDrives", "true")
	params.Set("includeItemsFromAllDrives", "true")

	var result fileListResponse
	if err := c.get(ctx, "/files?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("search folder %q: %w", name, err)
	}

	if len(result.Files) == 0 {
		return nil, fmt.Errorf("folder %q: %w", name, domain.ErrNotFound)
	}

	return result.Files[0].toModel(), nil
}

// CreateUnderParent creates a folder under the parent (nil = root).
func (c *Client) CreateUnderParent(ctx context.Context, name string, parentRef *string) (*models.RemoteFolder, error) {
	metadata := map[string]interface{}{
		"name":     name,
		"mimeType": folderMimeType,
	}
	if parentRef != nil {
		metadata["parents"] = []string{*parentRef}
	}

	params := url.Values{}
	params.Set("fields", "id,name,parents,mimeType")
	params.Set("supportsAllDrives", "true")

	var created fileResource
	if err := c.post(ctx, "/files?"+params.Encode(), metadata, &created); err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}

	return created.toModel(), nil
}

// ParentExists probes a folder reference. NotFound and PermissionDenied both
// mean the ref is not usable as a parent and report (false, nil); only
// transport-level failures surface as errors.
func (c *Client) ParentExists(ctx context.Context, ref string) (bool, error) {
	params := url.Values{}
	params.Set("fields", "id,mimeType,trashed")
	params.Set("supportsAllDrives", "true")

	var file fileResource
	err := c.get(ctx, "/files/"+url.PathEscape(ref)+"?"+params.Encode(), &file)
	if err != nil {
		if isUsabilityError(err) {
			return false, nil
		}
		return false, fmt.Errorf("check folder %s: %w", ref, err)
	}

	return file.MimeType == folderMimeType && !file.Trashed, nil
}

// IsKnownSharedRoot reports whether ref is one of the shared drives visible
// to this account. Shared drive roots fail files.get existence checks yet
// are valid parents.
func (c *Client) IsKnownSharedRoot(ctx context.Context, ref string) (bool, error) {
	params := url.Values{}
	params.Set("pageSize", "100")
	params.Set("fields", "drives(id,name)")

	var result driveListResponse
	if err := c.get(ctx, "/drives?"+params.Encode(), &result); err != nil {
		if isUsabilityError(err) {
			// Account has no shared-drive access at all.
			return false, nil
		}
		return false, fmt.Errorf("list shared drives: %w", err)
	}

	for _, d := range result.Drives {
		if d.ID == ref {
			return true, nil
		}
	}

	return false, nil
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, dest interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapStatusError(resp.StatusCode, respBody)
	}

	if dest != nil {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}

// mapStatusError folds backend status codes into the closed error set the
// provisioner pattern-matches on.
func mapStatusError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 256 {
		detail = detail[:256]
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: drive status 404", domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: drive status %d: %s", domain.ErrPermissionDenied, status, detail)
	default:
		return fmt.Errorf("%w: drive status %d: %s", domain.ErrBackendUnavailable, status, detail)
	}
}

// isUsabilityError matches the errors that mean "this ref is not usable",
// as opposed to transient backend trouble.
func isUsabilityError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPermissionDenied)
}

// escapeQueryValue escapes a value for embedding in a Drive query string.
func escapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

type fileResource struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents"`
	Trashed  bool     `json:"trashed"`
}

func (f *fileResource) toModel() *models.RemoteFolder {
	return &models.RemoteFolder{
		ID:        f.ID,
		Name:      f.Name,
		ParentIDs: f.Parents,
		IsFolder:  f.MimeType == folderMimeType,
	}
}

type fileListResponse struct {
	Files []fileResource `json:"files"`
}

type driveListResponse struct {
	Drives []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"drives"`
}
