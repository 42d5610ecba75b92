// Package handler serves the encoder over HTTP and WebSocket.
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
	"github.com/rcarmo/go-utf16/internal/config"
	"github.com/rcarmo/go-utf16/internal/encoding"
	"github.com/rcarmo/go-utf16/internal/logging"
)

// Handler holds the configuration shared by the endpoints.
type Handler struct {
	cfg *config.Config
	log *logging.Logger
}

// New returns a handler for cfg. A nil cfg falls back to the global
// configuration, then to the built-in defaults.
func New(cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	return &Handler{
		cfg: cfg,
		log: logging.Default(),
	}
}

// Register installs the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/encode", h.Encode)
	mux.HandleFunc("/stream", h.Stream)
	mux.HandleFunc("/healthz", h.Healthz)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// Encode answers POST /encode with the UTF-16 form of the request body.
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enc, err := h.encoderFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.Encoder.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}

		h.log.Warn("read encode body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	out, err := enc.Encode(utf16.FromBytes(body))
	if err != nil {
		if errors.Is(err, utf16.ErrLoneSurrogate) {
			h.log.Debug("encode %s: %v", enc.Name(), err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		h.log.Error("encode %s: %v", enc.Name(), err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset="+enc.Encoding())
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		h.log.Warn("write encode response: %v", err)
	}
}

// encoderFromQuery builds an encoder from the order, fatal, bom and
// replacement parameters, using the configured values for absent ones.
func (h *Handler) encoderFromQuery(q url.Values) (*encoding.Encoder, error) {
	defaults := h.cfg.Encoder

	order, err := utf16.ParseByteOrder(queryOr(q, "order", defaults.ByteOrder))
	if err != nil {
		return nil, fmt.Errorf("%w: order: %w", ErrBadParameter, err)
	}

	fatal, err := queryBool(q, "fatal", defaults.Fatal)
	if err != nil {
		return nil, err
	}

	bom, err := queryBool(q, "bom", defaults.PrependBOM)
	if err != nil {
		return nil, err
	}

	replacement := defaults.Replacement
	if q.Has("replacement") {
		replacement = q.Get("replacement")
		if replacement == "" {
			return nil, fmt.Errorf("%w: replacement must be a single BMP character", ErrBadParameter)
		}
		if err := utf16.ValidateReplacement(replacement); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadParameter, err)
		}
	}

	return encoding.NewEncoder(order, encoding.Options{
		Fatal:       fatal,
		PrependBOM:  bom,
		Replacement: replacement,
	}), nil
}

func queryOr(q url.Values, key, fallback string) string {
	if v := strings.TrimSpace(q.Get(key)); v != "" {
		return v
	}
	return fallback
}

func queryBool(q url.Values, key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %q is not a boolean", ErrBadParameter, key, v)
	}
	return b, nil
}
