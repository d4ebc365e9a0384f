package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doUpload(t *testing.T, h *Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Upload(c))
	return rec
}

func TestUploadSavesImage(t *testing.T) {
	dir := t.TempDir()
	h := &Handler{Dir: dir}

	rec := doUpload(t, h, "photo.PNG", []byte("fake image bytes"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "/uploads/")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".png", filepath.Ext(entries[0].Name()))
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := &Handler{Dir: t.TempDir()}
	rec := doUpload(t, h, "malware.exe", []byte("nope"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	h := &Handler{Dir: t.TempDir()}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
