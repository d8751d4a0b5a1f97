package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileuploader-backend/internal/blob"
	"fileuploader-backend/internal/cache"
	"fileuploader-backend/internal/config"
	"fileuploader-backend/internal/domain"
	"fileuploader-backend/internal/store"
	"fileuploader-backend/internal/upload"
)

func newTestRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := upload.NewService(st, blobs, cache.New(), logger)
	cfg := &config.Config{
		APIKey:         apiKey,
		MaxUploadBytes: 32 << 20,
	}
	return NewHandler(cfg, svc, logger).Router()
}

func postChunk(t *testing.T, router http.Handler, chunk domain.FileChunk) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(chunk)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/files/addFileChunk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) domain.UploadResult {
	t.Helper()
	var result domain.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChunkedUploadEndToEnd(t *testing.T) {
	router := newTestRouter(t, "")

	first := bytes.Repeat([]byte("a"), 2048)
	second := bytes.Repeat([]byte("b"), 1024)

	rec := postChunk(t, router, domain.FileChunk{
		FileName: "archive.tar", Offset: 0, Data: first, FirstChunk: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.True(t, result.Uploaded)
	assert.Equal(t, "archive", result.FileName)
	assert.Equal(t, int64(2048), result.Size)

	rec = postChunk(t, router, domain.FileChunk{
		FileName: "archive.tar", Offset: 2048, Data: second, LastChunk: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The completed upload is publicly listed with its total size.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/publicFiles", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []domain.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "archive.tar", listed[0].FileName)
	assert.Equal(t, int64(3072), listed[0].Size)

	// Download returns the reassembled bytes.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/download/archive.tar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, append(first, second...), rec.Body.Bytes())

	// Delete removes record and file.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/archive.tar", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/download/archive.tar", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChunkWithoutSessionReturnsNotFound(t *testing.T) {
	router := newTestRouter(t, "")
	rec := postChunk(t, router, domain.FileChunk{
		FileName: "unknown.bin", Offset: 0, Data: []byte("data"),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	result := decodeResult(t, rec)
	assert.False(t, result.Uploaded)
	require.NotNil(t, result.ErrorCode)
	assert.Equal(t, domain.CodeSessionNotFound, *result.ErrorCode)
}

func TestDuplicateFirstChunkReturnsConflict(t *testing.T) {
	router := newTestRouter(t, "")

	rec := postChunk(t, router, domain.FileChunk{
		FileName: "twice.bin", Offset: 0, Data: []byte("one"), FirstChunk: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postChunk(t, router, domain.FileChunk{
		FileName: "twice.bin", Offset: 0, Data: []byte("two"), FirstChunk: true,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	result := decodeResult(t, rec)
	require.NotNil(t, result.ErrorCode)
	assert.Equal(t, domain.CodeDuplicateName, *result.ErrorCode)
}

func TestAddFilesMultipart(t *testing.T) {
	router := newTestRouter(t, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("filesList", "small.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("small file content"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/addFiles", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []domain.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].Uploaded)
	assert.Equal(t, "small", results[0].FileName)
	assert.Equal(t, int64(18), results[0].Size)
}

func TestDeleteMissingFileReturnsNotFound(t *testing.T) {
	router := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/nope.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyGuardsMutatingRoutes(t *testing.T) {
	router := newTestRouter(t, "sekret")

	rec := postChunk(t, router, domain.FileChunk{
		FileName: "locked.bin", Offset: 0, Data: []byte("x"), FirstChunk: true,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, err := json.Marshal(domain.FileChunk{
		FileName: "locked.bin", Offset: 0, Data: []byte("x"), FirstChunk: true, LastChunk: true,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/files/addFileChunk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "sekret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Listing stays public.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/publicFiles", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
