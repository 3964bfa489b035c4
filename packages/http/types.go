package http

import "strings"

const (
	// DefaultTimeoutMs is the request timeout applied by NewRequest.
	DefaultTimeoutMs = 30000
	// DefaultMaxRedirects is the redirect hop cap applied by NewRequest.
	DefaultMaxRedirects = 10
)

// Auth describes how a request authenticates. Exactly one concrete
// variant is active; the builder type-switches over all of them.
type Auth interface {
	isAuth()
}

type AuthNone struct{}

type AuthBasic struct {
	Username string
	Password string
}

type AuthBearer struct {
	Token string
}

// APIKeyLocation says where an AuthAPIKey pair is injected.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

type AuthAPIKey struct {
	Key   string
	Value string
	In    APIKeyLocation
}

func (AuthNone) isAuth()   {}
func (AuthBasic) isAuth()  {}
func (AuthBearer) isAuth() {}
func (AuthAPIKey) isAuth() {}

// Body describes the request payload. Exactly one concrete variant is
// active; the builder type-switches over all of them.
type Body interface {
	isBody()
}

type BodyNone struct{}

// BodyRaw sends Content verbatim. ContentType is optional; when empty
// no Content-Type header is injected.
type BodyRaw struct {
	Content     string
	ContentType string
}

type BodyForm struct {
	Fields map[string]string
}

type BodyMultipart struct {
	Fields []MultipartField
}

// BodyBinary sends Data as-is with an application/octet-stream type.
// Filename is informational only.
type BodyBinary struct {
	Data     []byte
	Filename string
}

func (BodyNone) isBody()      {}
func (BodyRaw) isBody()       {}
func (BodyForm) isBody()      {}
func (BodyMultipart) isBody() {}
func (BodyBinary) isBody()    {}

// MultipartField is one part of a multipart/form-data body. When File
// is nil the part is a text field carrying Value.
type MultipartField struct {
	Name  string
	Value string
	File  *FilePart
}

type FilePart struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Cookie models both request cookies (Name/Value only) and cookies
// parsed from Set-Cookie response headers.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  string `json:"expires,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
}

type Proxy struct {
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Request is an immutable description of one HTTP call. Optional
// policy fields are pointers: a nil pointer means "unset" and only
// then does a default apply, never for an explicit false or zero.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Auth        Auth
	Body        Body
	Cookies     []Cookie

	TimeoutMs       *uint32
	FollowRedirects *bool
	MaxRedirects    *uint32
	VerifySSL       *bool
	Proxy           *Proxy
}

// NewRequest returns a Request with the standard defaults applied:
// 30s timeout, follow up to 10 redirects, verify TLS.
func NewRequest(method, requestURL string) *Request {
	timeout := uint32(DefaultTimeoutMs)
	follow := true
	maxRedirects := uint32(DefaultMaxRedirects)
	verify := true
	return &Request{
		Method:          method,
		URL:             requestURL,
		Headers:         make(map[string]string),
		QueryParams:     make(map[string]string),
		Auth:            AuthNone{},
		Body:            BodyNone{},
		TimeoutMs:       &timeout,
		FollowRedirects: &follow,
		MaxRedirects:    &maxRedirects,
		VerifySSL:       &verify,
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetQueryParam(key, value string) *Request {
	r.QueryParams[key] = value
	return r
}

func (r *Request) SetAuth(a Auth) *Request {
	r.Auth = a
	return r
}

func (r *Request) SetBody(b Body) *Request {
	r.Body = b
	return r
}

func (r *Request) AddCookie(name, value string) *Request {
	r.Cookies = append(r.Cookies, Cookie{Name: name, Value: value})
	return r
}

// Renderer is a capability tag naming one way a response body can be
// meaningfully displayed.
type Renderer string

const (
	RendererRaw         Renderer = "raw"
	RendererJSON        Renderer = "json"
	RendererXML         Renderer = "xml"
	RendererHTML        Renderer = "html"
	RendererHTMLPreview Renderer = "html_preview"
	RendererImage       Renderer = "image"
	RendererAudio       Renderer = "audio"
	RendererVideo       Renderer = "video"
	RendererPDF         Renderer = "pdf"
)

// Timing is the phase breakdown of one exchange, in milliseconds.
// Under a transport without phase timing only TotalMs is meaningful.
type Timing struct {
	TotalMs           float64 `json:"total_ms"`
	DNSLookupMs       float64 `json:"dns_lookup_ms"`
	TCPHandshakeMs    float64 `json:"tcp_handshake_ms"`
	TLSHandshakeMs    float64 `json:"tls_handshake_ms"`
	TransferStartMs   float64 `json:"transfer_start_ms"`
	TTFBMs            float64 `json:"ttfb_ms"`
	ContentDownloadMs float64 `json:"content_download_ms"`
}

type Size struct {
	HeadersBytes uint32 `json:"headers_bytes"`
	BodyBytes    uint32 `json:"body_bytes"`
	TotalBytes   uint32 `json:"total_bytes"`
}

// RedirectEntry is reserved for a future redirect chain; the engine
// currently always reports an empty chain.
type RedirectEntry struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
}

// Response is the annotated result of one execution. Status 0 means
// the exchange failed at the transport level and Error is set; any
// received HTTP status, including 4xx/5xx, is a non-zero Status with
// an empty Error.
type Response struct {
	Status              int               `json:"status"`
	StatusText          string            `json:"status_text"`
	Headers             map[string]string `json:"headers"`
	Cookies             []Cookie          `json:"cookies"`
	Body                []byte            `json:"body_base64"`
	Timing              Timing            `json:"timing"`
	RequestSize         Size              `json:"request_size"`
	ResponseSize        Size              `json:"response_size"`
	Redirects           []RedirectEntry   `json:"redirects"`
	RemoteAddr          string            `json:"remote_addr,omitempty"`
	HTTPVersion         string            `json:"http_version"`
	AvailableRenderers  []Renderer        `json:"available_renderers"`
	DetectedContentType string            `json:"detected_content_type,omitempty"`
	ProtocolUsed        string            `json:"protocol_used"`
	Error               string            `json:"error,omitempty"`
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Failed reports whether the exchange never produced an HTTP status.
func (r *Response) Failed() bool {
	return r.Status == 0
}

func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// Header returns a response header value by case-insensitive name.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) HasRenderer(renderer Renderer) bool {
	for _, candidate := range r.AvailableRenderers {
		if candidate == renderer {
			return true
		}
	}
	return false
}
