package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-utf16/internal/config"
	"github.com/rcarmo/go-utf16/internal/encoding"
)

func newStreamServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	newTestHandler(mutate).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dialStream(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream?" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntilClose collects binary frames until the server closes the
// connection.
func readUntilClose(t *testing.T, conn *websocket.Conn) ([]byte, *websocket.CloseError) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var out []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			require.True(t, errors.As(err, &closeErr), "unexpected read error: %v", err)
			return out, closeErr
		}
		assert.Equal(t, websocket.BinaryMessage, msgType)
		out = append(out, data...)
	}
}

func TestStream_RoundTrip(t *testing.T) {
	server := newStreamServer(t, nil)
	conn := dialStream(t, server, "order=le")

	for _, chunk := range []string{"AB", "", "\U00029E3E", "C"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(chunk)))
	}
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, nil))

	out, closeErr := readUntilClose(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, []byte{0x41, 0x00, 0x42, 0x00, 0x67, 0xD8, 0x3E, 0xDE, 0x43, 0x00}, out)
}

func TestStream_SplitSequences(t *testing.T) {
	text := "x\U0001F600y\xED\xA1\xA7\xED\xB8\xBEz" + loneDC00
	want, err := encoding.NewBEEncoder(encoding.Options{}).EncodeString(text)
	require.NoError(t, err)

	server := newStreamServer(t, nil)
	conn := dialStream(t, server, "")

	// one byte per frame splits every multi-byte sequence
	for i := 0; i < len(text); i++ {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{text[i]}))
	}
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{}))

	out, closeErr := readUntilClose(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, want, out)
}

func TestStream_FlushPendingSurrogate(t *testing.T) {
	server := newStreamServer(t, nil)
	conn := dialStream(t, server, "order=be")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("A"+loneD800)))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{}))

	out, closeErr := readUntilClose(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, []byte{0x00, 0x41, 0xFF, 0xFD}, out)
}

func TestStream_BOMOnly(t *testing.T) {
	server := newStreamServer(t, nil)
	conn := dialStream(t, server, "bom=true")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{}))

	out, closeErr := readUntilClose(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, []byte{0xFE, 0xFF}, out)
}

func TestStream_Fatal(t *testing.T) {
	server := newStreamServer(t, nil)
	conn := dialStream(t, server, "fatal=true")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("AB"+loneDC00+"C")))

	out, closeErr := readUntilClose(t, conn)
	assert.Equal(t, []byte{0x00, 0x41, 0x00, 0x42}, out)
	assert.Equal(t, websocket.CloseInvalidFramePayloadData, closeErr.Code)
	assert.Equal(t, "encode-error: \uFFFD U+DC00", closeErr.Text)
}

func TestStream_FatalAtFlush(t *testing.T) {
	server := newStreamServer(t, func(cfg *config.Config) {
		cfg.Encoder.Fatal = true
	})
	conn := dialStream(t, server, "")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("A"+loneD800)))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{}))

	out, closeErr := readUntilClose(t, conn)
	assert.Equal(t, []byte{0x00, 0x41}, out)
	assert.Equal(t, websocket.CloseInvalidFramePayloadData, closeErr.Code)
	assert.Contains(t, closeErr.Text, "U+D800")
}

func TestStream_BadParameter(t *testing.T) {
	server := newStreamServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream?order=middle"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStream_ForbiddenOrigin(t *testing.T) {
	server := newStreamServer(t, func(cfg *config.Config) {
		cfg.Security.AllowedOrigins = []string{"http://allowed.com"}
	})

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://malicious.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStream_PlainHTTPRequest(t *testing.T) {
	server := newStreamServer(t, nil)

	// Without WebSocket headers the upgrade fails, but not with 403
	resp, err := http.Get(server.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
