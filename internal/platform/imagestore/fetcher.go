package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const (
	defaultMaxImageBytes = 10 << 20
	defaultFetchTimeout  = 20 * time.Second
)

var (
	errContentTypeDenied = errors.New("imagestore: content type not allowed")
	errImageTooLarge     = errors.New("imagestore: image exceeds size limit")
)

var defaultAllowedContentTypes = []string{
	"image/png", "image/jpeg", "image/gif", "image/webp",
}

// Fetcher downloads item images from their source URL and stores a copy in
// the images bucket, so the wishlist keeps working when the source goes away.
type Fetcher struct {
	client  *gcs.Client
	bucket  string
	httpc   *http.Client
	maxSize int64
	allowed []string
}

// FetcherOption customises Fetcher behaviour.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for source downloads.
func WithHTTPClient(httpc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if httpc != nil {
			f.httpc = httpc
		}
	}
}

// WithMaxImageBytes overrides the maximum accepted image size.
func WithMaxImageBytes(limit int64) FetcherOption {
	return func(f *Fetcher) {
		if limit > 0 {
			f.maxSize = limit
		}
	}
}

// WithAllowedContentTypes overrides the accepted source content types.
func WithAllowedContentTypes(types []string) FetcherOption {
	return func(f *Fetcher) {
		if len(types) > 0 {
			f.allowed = types
		}
	}
}

// NewFetcher constructs a Fetcher writing into the given bucket.
func NewFetcher(client *gcs.Client, bucket string, opts ...FetcherOption) (*Fetcher, error) {
	if client == nil {
		return nil, errors.New("imagestore: storage client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	fetcher := &Fetcher{
		client:  client,
		bucket:  bucket,
		httpc:   &http.Client{Timeout: defaultFetchTimeout},
		maxSize: defaultMaxImageBytes,
		allowed: defaultAllowedContentTypes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fetcher)
		}
	}
	return fetcher, nil
}

// StoredImage describes an image copied into the bucket.
type StoredImage struct {
	Bucket      string
	Object      string
	ContentType string
	Size        int64
}

// Fetch downloads the image at sourceURL and stores it under objectPath.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, objectPath string) (StoredImage, error) {
	if f == nil || f.client == nil {
		return StoredImage{}, errors.New("imagestore: fetcher is not initialised")
	}
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return StoredImage{}, errInvalidObject
	}
	if err := validateSourceURL(sourceURL); err != nil {
		return StoredImage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return StoredImage{}, fmt.Errorf("imagestore: build request: %w", err)
	}
	req.Header.Set("Accept", strings.Join(f.allowed, ", "))

	resp, err := f.httpc.Do(req)
	if err != nil {
		return StoredImage{}, fmt.Errorf("imagestore: fetch source: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return StoredImage{}, fmt.Errorf("imagestore: source returned status %d", resp.StatusCode)
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !contentTypeAllowed(contentType, f.allowed) {
		return StoredImage{}, errContentTypeDenied
	}
	if resp.ContentLength > f.maxSize {
		return StoredImage{}, errImageTooLarge
	}

	writer := f.client.Bucket(f.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=86400"

	// Read one byte past the limit to distinguish at-limit from over-limit.
	written, err := io.Copy(writer, io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		_ = writer.Close()
		return StoredImage{}, fmt.Errorf("imagestore: store image: %w", err)
	}
	if written > f.maxSize {
		_ = writer.Close()
		_ = f.Delete(context.WithoutCancel(ctx), objectPath)
		return StoredImage{}, errImageTooLarge
	}
	if err := writer.Close(); err != nil {
		return StoredImage{}, fmt.Errorf("imagestore: finalise image: %w", err)
	}

	return StoredImage{
		Bucket:      f.bucket,
		Object:      objectPath,
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Delete removes a stored image. Deleting an absent object is not an error.
func (f *Fetcher) Delete(ctx context.Context, objectPath string) error {
	if f == nil || f.client == nil {
		return errors.New("imagestore: fetcher is not initialised")
	}
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return errInvalidObject
	}
	err := f.client.Bucket(f.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// DeletePrefix removes every stored image under the given key prefix.
func (f *Fetcher) DeletePrefix(ctx context.Context, prefix string) error {
	if f == nil || f.client == nil {
		return errors.New("imagestore: fetcher is not initialised")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return errInvalidObject
	}

	bucket := f.client.Bucket(f.bucket)
	objects := bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := objects.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("imagestore: list prefix %q: %w", prefix, err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("imagestore: delete %q: %w", attrs.Name, err)
		}
	}
}

func validateSourceURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("imagestore: invalid source url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("imagestore: unsupported source scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("imagestore: source url host is required")
	}
	return nil
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if normalized == "" {
		return false
	}
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			if strings.HasPrefix(normalized, strings.TrimSuffix(candidate, "*")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}
