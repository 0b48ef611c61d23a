package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshpipe/lodviewer/asset"
	"github.com/meshpipe/lodviewer/config"
	"github.com/meshpipe/lodviewer/lodgen"
	"github.com/meshpipe/lodviewer/vfs"
)

// copyProducer "packs" by writing fidelity-tagged bytes, no external
// binary involved.
type copyProducer struct{}

func (copyProducer) Available() error { return nil }

func (copyProducer) ProduceVariant(ctx context.Context, srcPath, dstPath string, fidelity float32) error {
	return ioutil.WriteFile(dstPath, []byte(fmt.Sprintf("packed-%.2f", fidelity)), 0666)
}

func newTestRouter(t *testing.T) (*asset.Store, http.Handler) {
	t.Helper()
	dir, err := vfs.NewDirectoryDriver(t.TempDir())
	require.NoError(t, err)
	store := asset.NewStore(dir)
	pipeline := lodgen.NewPipeline(store, copyProducer{})
	return store, NewRouter(store, pipeline, t.TempDir())
}

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadRejectsDisallowedFormat(t *testing.T) {
	store, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "model", "teapot.obj", []byte("not a glb")))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	files, err := store.Dir().List()
	require.NoError(t, err)
	assert.Empty(t, files, "rejected upload must not create an asset")
}

func TestUploadRejectsMissingFileField(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "wrongfield", "teapot.glb", []byte("GLB!")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadListRetrieveDelete(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "model", "teapot.glb", []byte("GLB!")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var uploaded modelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	assert.NotEmpty(t, uploaded.Id)
	assert.NotEmpty(t, uploaded.Name)
	require.Len(t, uploaded.Variants, config.LevelCount())
	for i, v := range uploaded.Variants {
		assert.Equal(t, i, v.Index)
		assert.NotEmpty(t, v.Path)
	}

	// listing returns the same set
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/json/models", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listed []modelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, uploaded.Id, listed[0].Id)

	// every variant path is retrievable
	for _, v := range uploaded.Variants {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", v.Path, nil))
		require.Equal(t, http.StatusOK, w.Code, v.Path)
		assert.Equal(t, "model/gltf-binary", w.Header().Get("Content-Type"))
		assert.Equal(t, fmt.Sprintf("packed-%.2f", v.Fidelity), w.Body.String())
	}

	// delete removes everything
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/json/models/"+string(uploaded.Id), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/json/models", nil))
	var empty []modelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &empty))
	assert.Empty(t, empty)
}

// blockingProducer hangs every invocation until its context is
// cancelled, keeping a generation in flight for as long as needed.
type blockingProducer struct {
	started   chan struct{}
	startOnce sync.Once
}

func (bp *blockingProducer) Available() error { return nil }

func (bp *blockingProducer) ProduceVariant(ctx context.Context, srcPath, dstPath string, fidelity float32) error {
	bp.startOnce.Do(func() { close(bp.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestDeleteCancelsInflightGeneration(t *testing.T) {
	dir, err := vfs.NewDirectoryDriver(t.TempDir())
	require.NoError(t, err)
	store := asset.NewStore(dir)
	producer := &blockingProducer{started: make(chan struct{})}
	router := NewRouter(store, lodgen.NewPipeline(store, producer), t.TempDir())

	uploadReq := multipartUpload(t, "model", "teapot.glb", []byte("GLB!"))
	uploadDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadReq)
		uploadDone <- w
	}()

	select {
	case <-producer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("generation never started")
	}

	// the source is stored by now, the metadata sidecar is not
	files, err := store.Dir().List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	id := strings.TrimSuffix(files[0], ".source.glb")
	require.NotEqual(t, files[0], id)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/json/models/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code,
		"delete must report success when it cancelled an in-flight generation")

	select {
	case uw := <-uploadDone:
		assert.Equal(t, http.StatusInternalServerError, uw.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish after cancellation")
	}

	files, err = store.Dir().List()
	require.NoError(t, err)
	assert.Empty(t, files, "cancelled intake must leave no files behind")
}

func TestUploadAcceptsFileAtSizeLimit(t *testing.T) {
	restore := config.MaxUploadSize()
	config.SetMaxUploadSize(1024)
	defer config.SetMaxUploadSize(restore)

	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "model", "exact.glb", bytes.Repeat([]byte("a"), 1024)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	restore := config.MaxUploadSize()
	config.SetMaxUploadSize(1024)
	defer config.SetMaxUploadSize(restore)

	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "model", "big.glb", bytes.Repeat([]byte("a"), 1025)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestGetUnknownModel(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/json/models/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebugDump(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartUpload(t, "model", "teapot.glb", []byte("GLB!")))
	require.Equal(t, http.StatusOK, w.Code)
	var uploaded modelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/json/debug/"+string(uploaded.Id), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "VariantSet")
}
