package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerValue(t *testing.T, built *BuiltRequest, name string) (string, bool) {
	t.Helper()
	value := ""
	found := false
	for _, h := range built.Headers {
		if strings.EqualFold(h.Name, name) {
			value = h.Value
			found = true
		}
	}
	return value, found
}

func TestBuild_NoBodyInjectsNoContentType(t *testing.T) {
	req := NewRequest("GET", "https://example.com/")

	built, err := Build(req)
	require.NoError(t, err)

	_, found := headerValue(t, built, "Content-Type")
	assert.False(t, found)
	assert.Nil(t, built.Body)
	assert.Equal(t, 0, built.BodySize)
}

func TestBuild_FormURLEncoded(t *testing.T) {
	req := NewRequest("POST", "https://example.com/submit")
	req.SetBody(BodyForm{Fields: map[string]string{"a": "1 2", "b": "x"}})

	built, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, "a=1+2&b=x", string(built.Body))
	ct, found := headerValue(t, built, "Content-Type")
	require.True(t, found)
	assert.Equal(t, "application/x-www-form-urlencoded", ct)
}

func TestBuild_RawBody(t *testing.T) {
	req := NewRequest("POST", "https://example.com/")
	req.SetBody(BodyRaw{Content: `{"name":"test"}`, ContentType: "application/json"})

	built, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, `{"name":"test"}`, string(built.Body))
	ct, _ := headerValue(t, built, "Content-Type")
	assert.Equal(t, "application/json", ct)
}

func TestBuild_RawBodyWithoutContentType(t *testing.T) {
	req := NewRequest("POST", "https://example.com/")
	req.SetBody(BodyRaw{Content: "plain"})

	built, err := Build(req)
	require.NoError(t, err)

	_, found := headerValue(t, built, "Content-Type")
	assert.False(t, found)
}

func TestBuild_BinaryBody(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	req := NewRequest("POST", "https://example.com/upload")
	req.SetBody(BodyBinary{Data: data, Filename: "blob.png"})

	built, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, data, built.Body)
	ct, _ := headerValue(t, built, "Content-Type")
	assert.Equal(t, "application/octet-stream", ct)
}

func TestBuild_BasicAuth(t *testing.T) {
	req := NewRequest("GET", "https://example.com/")
	req.SetAuth(AuthBasic{Username: "user", Password: "pass"})

	built, err := Build(req)
	require.NoError(t, err)

	auth, _ := headerValue(t, built, "Authorization")
	assert.Equal(t, "Basic dXNlcjpwYXNz", auth)
}

func TestBuild_BearerAuth(t *testing.T) {
	req := NewRequest("GET", "https://example.com/")
	req.SetAuth(AuthBearer{Token: "tok123"})

	built, err := Build(req)
	require.NoError(t, err)

	auth, _ := headerValue(t, built, "Authorization")
	assert.Equal(t, "Bearer tok123", auth)
}

func TestBuild_APIKeyInHeader(t *testing.T) {
	req := NewRequest("GET", "https://example.com/")
	req.SetAuth(AuthAPIKey{Key: "X-Api-Key", Value: "secret", In: APIKeyInHeader})

	built, err := Build(req)
	require.NoError(t, err)

	value, found := headerValue(t, built, "X-Api-Key")
	require.True(t, found)
	assert.Equal(t, "secret", value)
	assert.NotContains(t, built.URL, "secret")
}

func TestBuild_APIKeyInQueryAppendsLast(t *testing.T) {
	req := NewRequest("GET", "https://example.com/search")
	req.SetQueryParam("q", "hello world")
	req.SetAuth(AuthAPIKey{Key: "api_key", Value: "secret", In: APIKeyInQuery})

	built, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/search?q=hello+world&api_key=secret", built.URL)
	_, found := headerValue(t, built, "api_key")
	assert.False(t, found)
}

func TestBuild_QueryParamsMergeWithExistingQuery(t *testing.T) {
	req := NewRequest("GET", "https://example.com/path?keep=1")
	req.SetQueryParam("added", "2")

	built, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/path?keep=1&added=2", built.URL)
}

func TestBuild_CookieHeader(t *testing.T) {
	req := NewRequest("GET", "https://example.com/")
	req.AddCookie("session", "abc")
	req.AddCookie("theme", "dark")

	built, err := Build(req)
	require.NoError(t, err)

	cookie, found := headerValue(t, built, "Cookie")
	require.True(t, found)
	assert.Equal(t, "session=abc; theme=dark", cookie)
}

func TestBuild_NoCookieHeaderWithoutCookies(t *testing.T) {
	built, err := Build(NewRequest("GET", "https://example.com/"))
	require.NoError(t, err)

	_, found := headerValue(t, built, "Cookie")
	assert.False(t, found)
}

func TestBuild_Multipart(t *testing.T) {
	req := NewRequest("POST", "https://example.com/upload")
	req.SetBody(BodyMultipart{Fields: []MultipartField{
		{Name: "comment", Value: "hello"},
		{Name: "attachment", File: &FilePart{
			Data:        []byte("file-bytes"),
			Filename:    "notes.txt",
			ContentType: "text/plain",
		}},
		{Name: "blob", File: &FilePart{
			Data:     []byte{1, 2, 3},
			Filename: "blob.bin",
		}},
	}})

	built, err := Build(req)
	require.NoError(t, err)

	ct, found := headerValue(t, built, "Content-Type")
	require.True(t, found)
	require.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="))
	boundary := strings.TrimPrefix(ct, "multipart/form-data; boundary=")

	body := string(built.Body)
	assert.Contains(t, body, "--"+boundary+"\r\n")
	assert.True(t, strings.HasSuffix(body, "--"+boundary+"--\r\n"))
	assert.Contains(t, body, `Content-Disposition: form-data; name="comment"`+"\r\n\r\nhello\r\n")
	assert.Contains(t, body, `Content-Disposition: form-data; name="attachment"; filename="notes.txt"`)
	assert.Contains(t, body, "Content-Type: text/plain\r\n\r\nfile-bytes\r\n")
	// Unspecified file part content type defaults to octet-stream.
	assert.Contains(t, body, `Content-Disposition: form-data; name="blob"; filename="blob.bin"`+"\r\nContent-Type: application/octet-stream\r\n\r\n")
	assert.Equal(t, len(built.Body), built.BodySize)
}

func TestBuild_Idempotent(t *testing.T) {
	req := NewRequest("POST", "https://example.com/submit?fixed=1")
	req.SetHeader("X-One", "1")
	req.SetHeader("X-Two", "2")
	req.SetQueryParam("b", "2")
	req.SetQueryParam("a", "1")
	req.AddCookie("s", "v")
	req.SetBody(BodyForm{Fields: map[string]string{"z": "26", "a": "1"}})

	first, err := Build(req)
	require.NoError(t, err)
	second, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.Headers, second.Headers)
	assert.Equal(t, first.Body, second.Body)
}

func TestBuild_MultipartBoundaryUniquePerBuild(t *testing.T) {
	req := NewRequest("POST", "https://example.com/upload")
	req.SetBody(BodyMultipart{Fields: []MultipartField{{Name: "f", Value: "v"}}})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		built, err := Build(req)
		require.NoError(t, err)
		ct, _ := headerValue(t, built, "Content-Type")
		boundary := strings.TrimPrefix(ct, "multipart/form-data; boundary=")
		assert.False(t, seen[boundary], "boundary reused: %s", boundary)
		seen[boundary] = true
	}
}

func TestBuild_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "not a url", url: "not a url"},
		{name: "unsupported scheme", url: "ftp://example.com/file"},
		{name: "missing host", url: "http:///path"},
		{name: "empty", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(NewRequest("GET", tt.url))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}
