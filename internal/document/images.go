package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const (
	maxImageBytes    = 10 << 20
	defaultThumbSide = 240
	imageConcurrency = 4
)

// ImageLoader fetches remote images and embeds them as JPEG data URIs.
type ImageLoader struct {
	client  *http.Client
	logger  *slog.Logger
	maxSide int
}

func NewImageLoader(client *http.Client, logger *slog.Logger) *ImageLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageLoader{client: client, logger: logger, maxSide: defaultThumbSide}
}

// Load fetches every distinct URL concurrently. URLs that fail are logged and
// left out of the result.
func (l *ImageLoader) Load(ctx context.Context, urls []string) map[string]template.URL {
	out := make(map[string]template.URL)
	if l == nil {
		return out
	}
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		g    errgroup.Group
	)
	g.SetLimit(imageConcurrency)
	for _, raw := range urls {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		g.Go(func() error {
			uri, err := l.fetch(ctx, url)
			if err != nil {
				l.logger.Warn("document image skipped", slog.String("url", url), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			out[url] = uri
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (l *ImageLoader) fetch(ctx context.Context, url string) (template.URL, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported image url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxImageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > l.maxSide || bounds.Dy() > l.maxSide {
		img = imaging.Fit(img, l.maxSide, l.maxSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
