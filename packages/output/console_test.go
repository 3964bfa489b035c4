package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zestclient/zest/packages/http"
)

func TestFormatResponse_Success(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResponse(&http.Response{
		Status:     200,
		StatusText: "OK",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Cookies: []http.Cookie{
			{Name: "session", Value: "abc", Path: "/", HTTPOnly: true},
		},
		Body:               []byte(`{"ok":true}`),
		Timing:             http.Timing{TotalMs: 12.5, TTFBMs: 4.2},
		ResponseSize:       http.Size{TotalBytes: 2048},
		AvailableRenderers: []http.Renderer{http.RendererRaw, http.RendererJSON},
		ProtocolUsed:       "HTTP/2",
		RemoteAddr:         "93.184.216.34:443",
	})

	out := buf.String()
	assert.Contains(t, out, "200 OK")
	assert.Contains(t, out, "HTTP/2")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "Content-Type: application/json")
	assert.Contains(t, out, "session=abc (path=/, httponly)")
	assert.Contains(t, out, "renderers: raw, json")
	assert.Contains(t, out, `{"ok":true}`)
}

func TestFormatResponse_Failure(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResponse(&http.Response{
		Status:     0,
		StatusText: "Request Failed",
		Error:      "Could not resolve host. lookup missing.example: no such host",
		Timing:     http.Timing{TotalMs: 3.1},
	})

	out := buf.String()
	assert.Contains(t, out, "Request Failed")
	assert.Contains(t, out, "Could not resolve host.")
	assert.NotContains(t, out, "renderers")
}
