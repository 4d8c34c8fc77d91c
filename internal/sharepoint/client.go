package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/hrglue/sharepoint-list-sync/internal/metrics"
	"github.com/hrglue/sharepoint-list-sync/internal/schema"
)

// ErrNotFound marks a list or field that does not exist on the site.
var ErrNotFound = errors.New("sharepoint: not found")

// Client is the reconciler's view of the SharePoint REST API.
type Client interface {
	EnsureConnection(ctx context.Context) error
	GetList(ctx context.Context, title string) (List, error)
	CreateList(ctx context.Context, title string) error
	GetField(ctx context.Context, listTitle, name string) (FieldState, error)
	CreateField(ctx context.Context, listTitle string, spec schema.FieldSpec) error
	SetFieldRequired(ctx context.Context, listTitle, name string, required bool) error
}

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

type client struct {
	siteURL string
	token   string
	http    Httper
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(siteURL, token string, m *metrics.Metrics, logger *slog.Logger) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &client{
		siteURL: strings.TrimRight(siteURL, "/"),
		token:   token,
		http:    rc.StandardClient(),
		metrics: m,
		logger:  logger,
	}
}

func (c *client) EnsureConnection(ctx context.Context) error {
	var env struct {
		D struct {
			Title string `json:"Title"`
		} `json:"d"`
	}
	if err := c.get(ctx, "/_api/web", &env); err != nil {
		c.metrics.IncSPRequest("read", false)
		return fmt.Errorf("verify site connection %s: %w", c.siteURL, err)
	}
	c.metrics.IncSPRequest("read", true)
	c.logger.Debug("Connected to site", "site", c.siteURL, "title", env.D.Title)
	return nil
}

func (c *client) GetList(ctx context.Context, title string) (List, error) {
	path := fmt.Sprintf("/_api/web/lists/GetByTitle('%s')", escapeODataString(title))

	var env listEnvelope
	err := c.get(ctx, path, &env)
	if err != nil {
		c.metrics.IncSPRequest("read", errors.Is(err, ErrNotFound))
		return List{}, err
	}
	c.metrics.IncSPRequest("read", true)
	return List{ID: env.D.ID, Title: env.D.Title, ItemCount: env.D.ItemCount}, nil
}

func (c *client) CreateList(ctx context.Context, title string) error {
	c.logger.Info("Creating list", "list", title)
	start := time.Now()

	body := map[string]any{
		"__metadata":   map[string]string{"type": "SP.List"},
		"BaseTemplate": 100,
		"Title":        title,
	}
	if err := c.post(ctx, "/_api/web/lists", body, nil); err != nil {
		c.metrics.IncSPRequest("create", false)
		return fmt.Errorf("create list %q: %w", title, err)
	}
	c.metrics.IncSPRequest("create", true)
	c.logger.Debug("Created list", "list", title, "duration", time.Since(start))
	return nil
}

func (c *client) GetField(ctx context.Context, listTitle, name string) (FieldState, error) {
	path := fmt.Sprintf("/_api/web/lists/GetByTitle('%s')/fields/GetByInternalNameOrTitle('%s')",
		escapeODataString(listTitle), escapeODataString(name))

	var env fieldEnvelope
	err := c.get(ctx, path, &env)
	if err != nil {
		c.metrics.IncSPRequest("read", errors.Is(err, ErrNotFound))
		return FieldState{}, err
	}
	c.metrics.IncSPRequest("read", true)
	return FieldState{
		InternalName: env.D.InternalName,
		Title:        env.D.Title,
		Required:     env.D.Required,
		TypeKind:     env.D.FieldTypeKind,
	}, nil
}

func (c *client) CreateField(ctx context.Context, listTitle string, spec schema.FieldSpec) error {
	c.logger.Info("Creating field", "list", listTitle, "field", spec.Name, "type", spec.Type, "required", spec.Required)
	start := time.Now()

	body, err := fieldBody(spec)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/_api/web/lists/GetByTitle('%s')/fields", escapeODataString(listTitle))
	if err := c.post(ctx, path, body, nil); err != nil {
		c.metrics.IncSPRequest("create", false)
		return fmt.Errorf("create field %q on list %q: %w", spec.Name, listTitle, err)
	}
	c.metrics.IncSPRequest("create", true)
	c.logger.Debug("Created field", "list", listTitle, "field", spec.Name, "duration", time.Since(start))
	return nil
}

func (c *client) SetFieldRequired(ctx context.Context, listTitle, name string, required bool) error {
	c.logger.Info("Updating field required flag", "list", listTitle, "field", name, "required", required)
	start := time.Now()

	body := map[string]any{
		"__metadata": map[string]string{"type": "SP.Field"},
		"Required":   required,
	}
	headers := map[string]string{
		"X-HTTP-Method": "MERGE",
		"IF-MATCH":      "*",
	}

	path := fmt.Sprintf("/_api/web/lists/GetByTitle('%s')/fields/GetByInternalNameOrTitle('%s')",
		escapeODataString(listTitle), escapeODataString(name))
	if err := c.post(ctx, path, body, headers); err != nil {
		c.metrics.IncSPRequest("update", false)
		return fmt.Errorf("update field %q on list %q: %w", name, listTitle, err)
	}
	c.metrics.IncSPRequest("update", true)
	c.logger.Debug("Updated field", "list", listTitle, "field", name, "duration", time.Since(start))
	return nil
}

// fieldBody maps a field spec onto the SP.Field create payload. The type set
// is closed at schema load, the default arm covers hand-built specs.
func fieldBody(spec schema.FieldSpec) (map[string]any, error) {
	switch spec.Type {
	case schema.FieldText:
		return map[string]any{
			"__metadata":    map[string]string{"type": "SP.Field"},
			"Title":         spec.Name,
			"FieldTypeKind": fieldKindText,
			"Required":      spec.Required,
		}, nil
	case schema.FieldDateTime:
		return map[string]any{
			"__metadata":    map[string]string{"type": "SP.Field"},
			"Title":         spec.Name,
			"FieldTypeKind": fieldKindDateTime,
			"Required":      spec.Required,
		}, nil
	case schema.FieldChoice:
		return map[string]any{
			"__metadata":    map[string]string{"type": "SP.FieldChoice"},
			"Title":         spec.Name,
			"FieldTypeKind": fieldKindChoice,
			"Required":      spec.Required,
			"Choices": map[string]any{
				"__metadata": map[string]string{"type": "Collection(Edm.String)"},
				"results":    spec.Choices,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported field type %q", spec.Type)
	}
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.siteURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json;odata=verbose")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sharepoint api request %s, status=%d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse sharepoint response, err=%w", err)
	}
	return nil
}

func (c *client) post(ctx context.Context, path string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json;odata=verbose")
	req.Header.Set("Content-Type", "application/json;odata=verbose")
	c.authorize(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sharepoint api request %s, status=%d, body=%s", path, resp.StatusCode, string(detail))
	}
	return nil
}

func (c *client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// escapeODataString doubles single quotes for use inside OData string
// literals.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
