package http

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidURL is the only failure Execute surfaces as a hard error;
// it is reported before any transport activity.
var ErrInvalidURL = errors.New("invalid URL")

// HeaderField is one built request header. The list is ordered; the
// transport applies entries in order with last-write-wins semantics.
type HeaderField struct {
	Name  string
	Value string
}

// BuiltRequest is the transport-level form of a Request: final URL,
// ordered header list and encoded body bytes.
type BuiltRequest struct {
	Method   string
	URL      string
	Headers  []HeaderField
	Body     []byte
	BodySize int
}

// Build lowers a Request into transport primitives. Builds are
// deterministic byte-for-byte except the multipart boundary token,
// which is fresh on every call.
func Build(req *Request) (*BuiltRequest, error) {
	finalURL, err := buildURL(req)
	if err != nil {
		return nil, err
	}

	headers := make([]HeaderField, 0, len(req.Headers)+3)
	for _, key := range sortedKeys(req.Headers) {
		headers = append(headers, HeaderField{Name: key, Value: req.Headers[key]})
	}

	authHeader, err := authHeaderField(req.Auth)
	if err != nil {
		return nil, err
	}
	if authHeader != nil {
		headers = append(headers, *authHeader)
	}

	if len(req.Cookies) > 0 {
		headers = append(headers, HeaderField{Name: "Cookie", Value: cookieHeader(req.Cookies)})
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		headers = append(headers, HeaderField{Name: "Content-Type", Value: contentType})
	}

	return &BuiltRequest{
		Method:   req.Method,
		URL:      finalURL,
		Headers:  headers,
		Body:     body,
		BodySize: len(body),
	}, nil
}

// buildURL parses the base URL and appends the request's query pairs
// (sorted by key for deterministic builds) followed by an api-key
// query pair, if the auth variant carries one, appended last.
func buildURL(req *Request) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	pairs := make([]string, 0, len(req.QueryParams)+2)
	if u.RawQuery != "" {
		pairs = append(pairs, u.RawQuery)
	}
	for _, key := range sortedKeys(req.QueryParams) {
		pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(req.QueryParams[key]))
	}
	if apiKey, ok := req.Auth.(AuthAPIKey); ok && apiKey.In == APIKeyInQuery {
		pairs = append(pairs, url.QueryEscape(apiKey.Key)+"="+url.QueryEscape(apiKey.Value))
	}
	if len(pairs) > 0 {
		u.RawQuery = strings.Join(pairs, "&")
	}

	return u.String(), nil
}

func authHeaderField(auth Auth) (*HeaderField, error) {
	switch a := auth.(type) {
	case nil, AuthNone:
		return nil, nil
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		return &HeaderField{Name: "Authorization", Value: "Basic " + creds}, nil
	case AuthBearer:
		return &HeaderField{Name: "Authorization", Value: "Bearer " + a.Token}, nil
	case AuthAPIKey:
		if a.In == APIKeyInHeader {
			return &HeaderField{Name: a.Key, Value: a.Value}, nil
		}
		// Query placement is handled by buildURL.
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported auth variant %T", auth)
	}
}

func cookieHeader(cookies []Cookie) string {
	pairs := make([]string, len(cookies))
	for i, c := range cookies {
		pairs[i] = c.Name + "=" + c.Value
	}
	return strings.Join(pairs, "; ")
}

// encodeBody returns the body bytes and the Content-Type the engine
// injects for it, or "" when none should be injected.
func encodeBody(body Body) ([]byte, string, error) {
	switch b := body.(type) {
	case nil, BodyNone:
		return nil, "", nil
	case BodyRaw:
		return []byte(b.Content), b.ContentType, nil
	case BodyForm:
		pairs := make([]string, 0, len(b.Fields))
		for _, key := range sortedKeys(b.Fields) {
			pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(b.Fields[key]))
		}
		return []byte(strings.Join(pairs, "&")), "application/x-www-form-urlencoded", nil
	case BodyMultipart:
		return encodeMultipart(b.Fields)
	case BodyBinary:
		return b.Data, "application/octet-stream", nil
	default:
		return nil, "", fmt.Errorf("unsupported body variant %T", body)
	}
}

// encodeMultipart writes a multipart/form-data body by hand: the
// boundary must be caller-controlled so it can be echoed into the
// Content-Type header. The boundary is not checked against part
// contents; a part that embeds the token verbatim corrupts the body.
func encodeMultipart(fields []MultipartField) ([]byte, string, error) {
	boundary := multipartBoundary()
	var buf bytes.Buffer

	for _, field := range fields {
		buf.WriteString("--" + boundary + "\r\n")
		if field.File != nil {
			fmt.Fprintf(&buf, "Content-Disposition: form-data; name=%q; filename=%q\r\n",
				field.Name, field.File.Filename)
			contentType := field.File.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", contentType)
			buf.Write(field.File.Data)
		} else {
			fmt.Fprintf(&buf, "Content-Disposition: form-data; name=%q\r\n\r\n", field.Name)
			buf.WriteString(field.Value)
		}
		buf.WriteString("\r\n")
	}
	buf.WriteString("--" + boundary + "--\r\n")

	return buf.Bytes(), "multipart/form-data; boundary=" + boundary, nil
}

func multipartBoundary() string {
	return "----ZestFormBoundary" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
