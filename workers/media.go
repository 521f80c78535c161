// Package workers holds the daemon's background loops: mirroring listing
// media into our own bucket and refreshing directory rollups.
package workers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatenexus/models"
	"estatenexus/storage"
)

// MediaListingStore is the slice of the Postgres store the media worker needs.
type MediaListingStore interface {
	PropertiesWithExternalImages(ctx context.Context, mediaHost string, limit int) ([]models.Property, error)
	UpdatePropertyImages(ctx context.Context, id uuid.UUID, images []string) error
}

// Uploader mirrors bytes into object storage.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	PublicURL(key string) string
	Host() string
}

// MediaWorker downloads externally hosted listing images and rewrites the
// listing to point at our copies.
type MediaWorker struct {
	store      MediaListingStore
	uploader   Uploader
	httpClient *http.Client
	triggerCh  chan struct{}
}

func NewMediaWorker(store MediaListingStore, uploader Uploader) *MediaWorker {
	return &MediaWorker{
		store:      store,
		uploader:   uploader,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		triggerCh:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate batch outside the regular interval.
func (w *MediaWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the mirror loop.
func (w *MediaWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Media worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *MediaWorker) processBatch(ctx context.Context, batchSize int) {
	listings, err := w.store.PropertiesWithExternalImages(ctx, w.uploader.Host(), batchSize)
	if err != nil {
		log.Printf("Media worker: query error: %v", err)
		return
	}
	if len(listings) == 0 {
		return
	}

	log.Printf("Media worker: mirroring images for %d listings", len(listings))

	var mirrored, failed int
	for i := range listings {
		p := &listings[i]

		images, changed := w.mirrorImages(ctx, p)
		if !changed {
			continue
		}
		if err := w.store.UpdatePropertyImages(ctx, p.ID, images); err != nil {
			log.Printf("Media worker: update failed for %s: %v", p.ID, err)
			failed++
			continue
		}
		mirrored++
	}

	if mirrored > 0 || failed > 0 {
		log.Printf("Media worker: mirrored %d, failed %d", mirrored, failed)
	}
}

// mirrorImages returns the listing's image list with every external URL
// replaced by a mirrored one. Failed downloads keep the original URL; they
// will be retried on the next pass.
func (w *MediaWorker) mirrorImages(ctx context.Context, p *models.Property) ([]string, bool) {
	out := make([]string, len(p.Images))
	changed := false
	for i, src := range p.Images {
		if strings.Contains(src, w.uploader.Host()) {
			out[i] = src
			continue
		}
		mirrored, err := w.mirrorOne(ctx, p.ID, src)
		if err != nil {
			log.Printf("Media worker: failed %s: %v", src, err)
			out[i] = src
			continue
		}
		out[i] = mirrored
		changed = true

		// Rate limit between downloads
		time.Sleep(200 * time.Millisecond)
	}
	return out, changed
}

func (w *MediaWorker) mirrorOne(ctx context.Context, propertyID uuid.UUID, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := storage.MediaKey(propertyID, src)
	body := io.LimitReader(resp.Body, 50*1024*1024)
	if err := w.uploader.Upload(ctx, key, body, contentType); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return w.uploader.PublicURL(key), nil
}
