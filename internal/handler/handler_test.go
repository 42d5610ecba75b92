package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-utf16/internal/config"
)

// Lone surrogates in WTF-8 form.
const (
	loneD800 = "\xED\xA0\x80"
	loneDC00 = "\xED\xB0\x80"
)

func newTestHandler(mutate func(*config.Config)) *Handler {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		query       string
		body        string
		wantStatus  int
		wantBody    []byte
		wantCharset string
		wantError   string
	}{
		{
			name:        "default byte order",
			method:      http.MethodPost,
			body:        "AB",
			wantStatus:  http.StatusOK,
			wantBody:    []byte{0x00, 0x41, 0x00, 0x42},
			wantCharset: "utf-16be",
		},
		{
			name:        "little endian",
			method:      http.MethodPost,
			query:       "order=le",
			body:        "AB",
			wantStatus:  http.StatusOK,
			wantBody:    []byte{0x41, 0x00, 0x42, 0x00},
			wantCharset: "utf-16le",
		},
		{
			name:        "supplementary code point",
			method:      http.MethodPost,
			query:       "order=UTF-16BE",
			body:        "\U00010000",
			wantStatus:  http.StatusOK,
			wantBody:    []byte{0xD8, 0x00, 0xDC, 0x00},
			wantCharset: "utf-16be",
		},
		{
			name:        "lone surrogate replaced",
			method:      http.MethodPost,
			body:        loneDC00,
			wantStatus:  http.StatusOK,
			wantBody:    []byte{0xFF, 0xFD},
			wantCharset: "utf-16be",
		},
		{
			name:        "custom replacement",
			method:      http.MethodPost,
			query:       "order=le&replacement=%3F",
			body:        "A" + loneD800,
			wantStatus:  http.StatusOK,
			wantBody:    []byte{0x41, 0x00, 0x3F, 0x00},
			wantCharset: "utf-16le",
		},
		{
			name:        "byte order mark",
			method:      http.MethodPost,
			query:       "bom=true",
			body:        "A",
			wantStatus:  http.StatusOK,
			wantBody:    []byte{0xFE, 0xFF, 0x00, 0x41},
			wantCharset: "utf-16be",
		},
		{
			name:        "empty body",
			method:      http.MethodPost,
			wantStatus:  http.StatusOK,
			wantBody:    []byte{},
			wantCharset: "utf-16be",
		},
		{
			name:       "fatal lone surrogate",
			method:     http.MethodPost,
			query:      "fatal=1",
			body:       "A" + loneDC00,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "encode-error: \uFFFD U+DC00",
		},
		{
			name:       "unknown byte order",
			method:     http.MethodPost,
			query:      "order=utf-32",
			wantStatus: http.StatusBadRequest,
			wantError:  "unknown byte order",
		},
		{
			name:       "bad boolean",
			method:     http.MethodPost,
			query:      "fatal=maybe",
			wantStatus: http.StatusBadRequest,
			wantError:  "fatal",
		},
		{
			name:       "multi-character replacement",
			method:     http.MethodPost,
			query:      "replacement=ab",
			wantStatus: http.StatusBadRequest,
			wantError:  "replacement",
		},
		{
			name:       "GET not allowed",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	h := newTestHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/encode?"+tt.query, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Encode(w, req)

			resp := w.Result()
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, body)
				assert.Equal(t, "text/plain; charset="+tt.wantCharset, resp.Header.Get("Content-Type"))
			}
			if tt.wantError != "" {
				assert.Contains(t, string(body), tt.wantError)
			}
		})
	}
}

func TestEncode_ConfiguredDefaults(t *testing.T) {
	h := newTestHandler(func(cfg *config.Config) {
		cfg.Encoder.ByteOrder = "le"
		cfg.Encoder.Fatal = true
	})

	req := httptest.NewRequest(http.MethodPost, "/encode", strings.NewReader("A"+loneDC00))
	w := httptest.NewRecorder()
	h.Encode(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// query parameters override the configuration
	req = httptest.NewRequest(http.MethodPost, "/encode?fatal=false", strings.NewReader("A"+loneDC00))
	w = httptest.NewRecorder()
	h.Encode(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{0x41, 0x00, 0xFD, 0xFF}, w.Body.Bytes())
}

func TestEncode_BodyTooLarge(t *testing.T) {
	h := newTestHandler(func(cfg *config.Config) {
		cfg.Encoder.MaxBodyBytes = 4
	})

	req := httptest.NewRequest(http.MethodPost, "/encode", strings.NewReader("ABCDE"))
	w := httptest.NewRecorder()
	h.Encode(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "4 bytes")
}

func TestHealthz(t *testing.T) {
	mux := http.NewServeMux()
	newTestHandler(nil).Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	h := New(nil)
	require.NotNil(t, h.cfg)
	assert.NoError(t, h.cfg.Validate())
}
