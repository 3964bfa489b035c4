package reqfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestclient/zest/packages/http"
)

func TestParse_YAML(t *testing.T) {
	doc := []byte(`
method: post
url: https://api.example.com/users
headers:
  X-Request-Id: abc123
query_params:
  expand: profile
auth:
  type: bearer
  token: tok
body:
  type: raw
  content: '{"name":"ada"}'
  content_type: application/json
cookies:
  - name: session
    value: s1
timeout_ms: 5000
follow_redirects: false
verify_ssl: false
proxy:
  url: http://proxy.local:8080
  username: u
  password: p
`)

	req, err := Parse(doc, "")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https://api.example.com/users", req.URL)
	assert.Equal(t, "abc123", req.Headers["X-Request-Id"])
	assert.Equal(t, "profile", req.QueryParams["expand"])
	assert.Equal(t, http.AuthBearer{Token: "tok"}, req.Auth)
	assert.Equal(t, http.BodyRaw{Content: `{"name":"ada"}`, ContentType: "application/json"}, req.Body)
	require.Len(t, req.Cookies, 1)
	assert.Equal(t, "session", req.Cookies[0].Name)

	require.NotNil(t, req.TimeoutMs)
	assert.Equal(t, uint32(5000), *req.TimeoutMs)
	require.NotNil(t, req.FollowRedirects)
	assert.False(t, *req.FollowRedirects)
	require.NotNil(t, req.VerifySSL)
	assert.False(t, *req.VerifySSL)
	assert.Nil(t, req.MaxRedirects)

	require.NotNil(t, req.Proxy)
	assert.Equal(t, "http://proxy.local:8080", req.Proxy.URL)
}

func TestParse_JSON(t *testing.T) {
	doc := []byte(`{
		"method": "GET",
		"url": "https://example.com",
		"auth": {"type": "api_key", "key": "X-Key", "value": "v", "in": "query"}
	}`)

	req, err := Parse(doc, "")
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, http.AuthAPIKey{Key: "X-Key", Value: "v", In: http.APIKeyInQuery}, req.Auth)
	assert.Equal(t, http.BodyNone{}, req.Body)
}

func TestParse_Defaults(t *testing.T) {
	req, err := Parse([]byte("method: GET\nurl: https://example.com"), "")
	require.NoError(t, err)

	// Unset policy fields stay nil so engine defaults apply.
	assert.Nil(t, req.TimeoutMs)
	assert.Nil(t, req.FollowRedirects)
	assert.Nil(t, req.MaxRedirects)
	assert.Nil(t, req.VerifySSL)
	assert.Nil(t, req.Proxy)
	assert.Equal(t, http.AuthNone{}, req.Auth)
}

func TestParse_MultipartResolvesFileParts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payload.txt"), []byte("contents"), 0o644))

	doc := []byte(`
method: POST
url: https://example.com/upload
body:
  type: multipart
  parts:
    - name: comment
      value: hi
    - name: file
      file: payload.txt
      content_type: text/plain
`)

	req, err := Parse(doc, dir)
	require.NoError(t, err)

	body, ok := req.Body.(http.BodyMultipart)
	require.True(t, ok)
	require.Len(t, body.Fields, 2)
	assert.Equal(t, "hi", body.Fields[0].Value)
	require.NotNil(t, body.Fields[1].File)
	assert.Equal(t, []byte("contents"), body.Fields[1].File.Data)
	assert.Equal(t, "payload.txt", body.Fields[1].File.Filename)
	assert.Equal(t, "text/plain", body.Fields[1].File.ContentType)
}

func TestParse_BinaryBody(t *testing.T) {
	doc := []byte(`{"method":"POST","url":"https://example.com","body":{"type":"binary","data_base64":"aGVsbG8=","filename":"f.bin"}}`)

	req, err := Parse(doc, "")
	require.NoError(t, err)

	body, ok := req.Body.(http.BodyBinary)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), body.Data)
	assert.Equal(t, "f.bin", body.Filename)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing method", doc: `url: https://example.com`},
		{name: "missing url", doc: `method: GET`},
		{name: "unknown auth type", doc: "method: GET\nurl: https://example.com\nauth:\n  type: digest"},
		{name: "unknown body type", doc: "method: GET\nurl: https://example.com\nbody:\n  type: graphql"},
		{name: "unknown api key location", doc: "method: GET\nurl: https://example.com\nauth:\n  type: api_key\n  in: path"},
		{name: "bad base64", doc: "method: POST\nurl: https://example.com\nbody:\n  type: binary\n  data_base64: '!!!'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: GET\nurl: https://example.com"), 0o644))

	req, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateJSON(t *testing.T) {
	valid := []byte(`{"method":"GET","url":"https://example.com"}`)
	assert.NoError(t, ValidateJSON(valid))

	invalid := []byte(`{"method":"YEET","url":"https://example.com"}`)
	err := ValidateJSON(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method")

	unknownField := []byte(`{"method":"GET","url":"https://example.com","retries":3}`)
	assert.Error(t, ValidateJSON(unknownField))
}
