package workers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"estatenexus/models"
)

type fakeMediaStore struct {
	pending []models.Property
	updated map[uuid.UUID][]string
}

func (f *fakeMediaStore) PropertiesWithExternalImages(ctx context.Context, host string, limit int) ([]models.Property, error) {
	return f.pending, nil
}

func (f *fakeMediaStore) UpdatePropertyImages(ctx context.Context, id uuid.UUID, images []string) error {
	if f.updated == nil {
		f.updated = make(map[uuid.UUID][]string)
	}
	f.updated[id] = images
	return nil
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	io.Copy(io.Discard, data)
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeUploader) PublicURL(key string) string { return "https://media.test/" + key }
func (f *fakeUploader) Host() string                { return "media.test" }

func TestMediaWorkerMirrorsExternalImages(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	}))
	defer origin.Close()

	id := uuid.New()
	store := &fakeMediaStore{pending: []models.Property{{
		ID:     id,
		Images: []string{origin.URL + "/photo.jpg", "https://media.test/properties/x/kept"},
	}}}
	uploader := &fakeUploader{}
	w := NewMediaWorker(store, uploader)

	w.processBatch(context.Background(), 10)

	images, ok := store.updated[id]
	if !ok {
		t.Fatalf("listing images not updated")
	}
	if len(images) != 2 {
		t.Fatalf("image count changed: %v", images)
	}
	if !strings.HasPrefix(images[0], "https://media.test/properties/"+id.String()+"/") {
		t.Fatalf("external image not rewritten: %s", images[0])
	}
	if images[1] != "https://media.test/properties/x/kept" {
		t.Fatalf("mirrored image should be untouched: %s", images[1])
	}
	if len(uploader.keys) != 1 {
		t.Fatalf("expected one upload, got %v", uploader.keys)
	}
}

func TestMediaWorkerKeepsOriginalOnDownloadFailure(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer origin.Close()

	id := uuid.New()
	store := &fakeMediaStore{pending: []models.Property{{
		ID:     id,
		Images: []string{origin.URL + "/gone.jpg"},
	}}}
	w := NewMediaWorker(store, &fakeUploader{})

	w.processBatch(context.Background(), 10)

	if _, ok := store.updated[id]; ok {
		t.Fatalf("listing should not be rewritten when nothing mirrored")
	}
}
