// Package imagekit is a small ImageKit.io client implementing store.MediaStore.
package imagekit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jwstudio/portal/internal/client"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	DefaultUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	DefaultAPIURL    = "https://api.imagekit.io/v1"

	checksumTagPrefix = "crc64-"
	defaultListLimit  = 100
)

var _ store.MediaStore = (*Client)(nil)

// Config configures the ImageKit client.
type Config struct {
	PrivateKey string
	UploadURL  string
	APIURL     string
	MaxRetries uint
	Timeout    time.Duration
	// CacheDir keeps cached GET responses on disk. Empty means in memory.
	CacheDir string
}

func (c *Config) applyDefaults() {
	if c.UploadURL == "" {
		c.UploadURL = DefaultUploadURL
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client talks to the ImageKit upload and media APIs.
// GET responses go through an HTTP cache that honours Cache-Control.
type Client struct {
	cfg        Config
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

// New creates a client. The private key is required.
func New(cfg Config) (*Client, error) {
	if cfg.PrivateKey == "" {
		return nil, errors.New("imagekit private key is required")
	}
	cfg.applyDefaults()

	return &Client{
		cfg:        cfg,
		httpClient: client.NewCachingHTTPClient(cfg.CacheDir, cfg.Timeout),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}, nil
}

// APIError is a non-2xx response from ImageKit.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("imagekit: %d %s", e.StatusCode, e.Message)
}

// file is the ImageKit file object.
type file struct {
	FileID       string    `json:"fileId"`
	Name         string    `json:"name"`
	FilePath     string    `json:"filePath"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Thumbnail    string    `json:"thumbnail"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Size         int64     `json:"size"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (f *file) asset() *models.MediaAsset {
	a := &models.MediaAsset{
		ID:           f.FileID,
		Name:         f.Name,
		Folder:       path.Dir(f.FilePath),
		URL:          f.URL,
		ThumbnailURL: f.ThumbnailURL,
		Width:        f.Width,
		Height:       f.Height,
		Size:         f.Size,
		CreatedAt:    f.CreatedAt,
	}
	if a.ThumbnailURL == "" {
		a.ThumbnailURL = f.Thumbnail
	}
	for _, tag := range f.Tags {
		if sum, ok := strings.CutPrefix(tag, checksumTagPrefix); ok {
			a.Checksum = sum
		}
	}
	return a
}

// Upload sends the file with multipart form data.
func (c *Client) Upload(ctx context.Context, in store.UploadInput) (*models.MediaAsset, error) {
	body, contentType, err := uploadForm(in)
	if err != nil {
		return nil, err
	}

	var f file
	err = c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", in.Name, err)
	}

	asset := f.asset()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	if asset.Checksum == "" {
		asset.Checksum = in.Checksum
	}

	log.Debug().Str("file_id", asset.ID).Str("path", f.FilePath).Msg("uploaded media to imagekit")

	return asset, nil
}

func uploadForm(in store.UploadInput) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Name))
	if in.ContentType != "" {
		header.Set("Content-Type", in.ContentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	fields := map[string]string{
		"fileName":          in.Name,
		"folder":            "/" + strings.Trim(in.Folder, "/"),
		"useUniqueFileName": "true",
	}
	if in.Checksum != "" {
		fields["tags"] = checksumTagPrefix + in.Checksum
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// Delete removes a file by ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	endpoint := c.cfg.APIURL + "/files/" + url.PathEscape(id)

	err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return store.ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}

	return nil
}

// List returns files below opts.Path, newest first.
func (c *Client) List(ctx context.Context, opts store.ListMediaOptions) ([]*models.MediaAsset, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := url.Values{}
	q.Set("path", "/"+strings.Trim(opts.Path, "/"))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(opts.Offset))
	q.Set("sort", "DESC_CREATED")
	endpoint := c.cfg.APIURL + "/files?" + q.Encode()

	var files []file
	err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, &files)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	assets := make([]*models.MediaAsset, 0, len(files))
	for i := range files {
		assets = append(assets, files[i].asset())
	}

	return assets, nil
}

// do sends the request built by newRequest, retrying 429 and 5xx responses and
// transport errors with exponential backoff, and decodes JSON into out when non-nil.
func (c *Client) do(ctx context.Context, newRequest func() (*http.Request, error), out any) error {
	operation := func() (struct{}, error) {
		req, err := newRequest()
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.SetBasicAuth(c.cfg.PrivateKey, "")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				log.Warn().Int("status", resp.StatusCode).Str("url", req.URL.Path).Msg("imagekit request failed, retrying")
				return struct{}{}, apiErr
			}
			return struct{}{}, backoff.Permanent(apiErr)
		}

		if out != nil && resp.StatusCode != http.StatusNoContent {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}

		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.cfg.MaxRetries+1),
	)
	return err
}

func readAPIError(resp *http.Response) *APIError {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(data))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
}
