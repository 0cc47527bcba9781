package assets

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesEmbeddedFiles(t *testing.T) {
	for _, path := range []string{Stylesheet, Script} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		Handler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)
		body, _ := io.ReadAll(w.Body)
		assert.NotEmpty(t, body, path)
	}
}

func TestHandlerMissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, Prefix+"nope.css", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
