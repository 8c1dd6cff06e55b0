package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponseBytes(t *testing.T) {
	rr := httptest.NewRecorder()

	testJson := `{"key":"val"}`
	WriteResponseBytes(rr, ContentType.JSON, []byte(testJson), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))
	assert.Equal(t, testJson, rr.Body.String())
}

func TestWriteTextResponseOK(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteTextResponseOK(rr, "all good")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ContentType.Text, rr.Header().Get("Content-Type"))
	assert.Equal(t, "all good", rr.Body.String())
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteJSONError(rr, "invalid email or password", http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))
	assert.Equal(t, `{"error":"invalid email or password"}`, rr.Body.String())
}
