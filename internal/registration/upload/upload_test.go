package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examboard/internal/registration/models"
)

var pngPhoto = models.Photo{
	Filename:    "face.png",
	ContentType: "image/png",
	Data:        []byte("\x89PNG\r\n\x1a\n0000"),
}

func TestInMemoryUpload(t *testing.T) {
	store := NewInMemory("https://cdn.example.test/photos/")

	url, err := store.Upload(context.Background(), pngPhoto)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.test/photos/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	keys := store.Keys()
	require.Len(t, keys, 1)
	got, ok := store.Get(keys[0])
	require.True(t, ok)
	assert.Equal(t, pngPhoto.Data, got.Data)
}

func TestInMemoryRejectsEmptyPhoto(t *testing.T) {
	_, err := NewInMemory("").Upload(context.Background(), models.Photo{})
	assert.Error(t, err)
}

func TestHTTPUpload(t *testing.T) {
	var (
		gotMethod, gotPath, gotType string
		gotBody                     []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store, err := NewHTTP(srv.URL+"/bucket/", time.Second, WithPublicBaseURL("https://cdn.example.test/"))
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), pngPhoto)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/bucket/"))
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, pngPhoto.Data, gotBody)
	assert.Equal(t, "https://cdn.example.test/"+strings.TrimPrefix(gotPath, "/bucket/"), url)
}

func TestHTTPUploadSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bucket is read-only", http.StatusForbidden)
	}))
	defer srv.Close()

	store, err := NewHTTP(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), pngPhoto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "bucket is read-only")
}

func TestHTTPUploadHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewHTTP(srv.URL, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Upload(ctx, pngPhoto)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPRequiresEndpoint(t *testing.T) {
	_, err := NewHTTP(" ", time.Second)
	assert.Error(t, err)
}
