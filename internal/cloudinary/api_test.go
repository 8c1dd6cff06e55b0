package cloudinary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	var gotPath string
	var gotPreset string
	var gotFileContent string
	var gotFilename string

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPreset = r.FormValue("upload_preset")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		contentBytes, err := io.ReadAll(file)
		require.NoError(t, err)
		gotFileContent = string(contentBytes)

		w.Header().Set("Content-Type", "application/json")
		_, err = w.Write([]byte(`{"secure_url":"https://res.cloudinary.test/bfc/image/upload/v1/sunset.png"}`))
		require.NoError(t, err)
	}))
	defer testServer.Close()

	api := NewApi(testServer.URL, "bfc", "bfc_unsigned", testServer.Client())

	url, err := api.Upload(context.Background(), "sunset.png", strings.NewReader("image bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.test/bfc/image/upload/v1/sunset.png", url)
	assert.Equal(t, "/bfc/image/upload", gotPath)
	assert.Equal(t, "bfc_unsigned", gotPreset)
	assert.Equal(t, "sunset.png", gotFilename)
	assert.Equal(t, "image bytes", gotFileContent)
}

func TestUpload_rejected(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer testServer.Close()

	api := NewApi(testServer.URL, "bfc", "no-such-preset", testServer.Client())

	url, err := api.Upload(context.Background(), "sunset.png", strings.NewReader("image bytes"))
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Empty(t, url)
}

func TestUpload_garbageResponse(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer testServer.Close()

	api := NewApi(testServer.URL, "bfc", "bfc_unsigned", testServer.Client())

	_, err := api.Upload(context.Background(), "sunset.png", strings.NewReader("image bytes"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUploadFailed)
}
