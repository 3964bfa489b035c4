package http

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// analyze turns a raw transport result into the final Response. The
// phased flag comes from the transport's timing contract declaration.
func analyze(built *BuiltRequest, raw *RawResponse, phased bool) *Response {
	headers, cookies, httpVersion := parseHeaderBlock(raw.HeaderLines)

	requestHeaderBytes := uint32(builtHeaderBytes(built))
	responseHeaderBytes := uint32(headerBlockBytes(raw.HeaderLines))
	bodyBytes := uint32(len(raw.Body))

	contentType := lookupHeader(headers, "Content-Type")

	return &Response{
		Status:     raw.StatusCode,
		StatusText: statusText(raw.StatusCode),
		Headers:    headers,
		Cookies:    cookies,
		Body:       raw.Body,
		Timing:     computeTiming(raw, phased),
		RequestSize: Size{
			HeadersBytes: requestHeaderBytes,
			BodyBytes:    uint32(built.BodySize),
			TotalBytes:   requestHeaderBytes + uint32(built.BodySize),
		},
		ResponseSize: Size{
			HeadersBytes: responseHeaderBytes,
			BodyBytes:    bodyBytes,
			TotalBytes:   responseHeaderBytes + bodyBytes,
		},
		Redirects:           []RedirectEntry{},
		RemoteAddr:          raw.RemoteAddr,
		HTTPVersion:         httpVersion,
		AvailableRenderers:  detectRenderers(contentType, raw.Body),
		DetectedContentType: contentType,
		ProtocolUsed:        normalizeProtocol(httpVersion),
	}
}

// computeTiming derives the phase breakdown from absolute timestamps.
// Differences are clamped at zero: boundaries can be measured out of
// order for non-TLS or reused connections.
func computeTiming(raw *RawResponse, phased bool) Timing {
	if !phased || raw.Phases == nil {
		return Timing{TotalMs: raw.TotalMs}
	}
	p := raw.Phases
	return Timing{
		TotalMs:           p.TotalMs,
		DNSLookupMs:       p.DNSMs,
		TCPHandshakeMs:    clampMs(p.ConnectMs - p.DNSMs),
		TLSHandshakeMs:    clampMs(p.TLSMs - p.ConnectMs),
		TransferStartMs:   clampMs(p.PreTransferMs - p.TLSMs),
		TTFBMs:            clampMs(p.FirstByteMs - p.PreTransferMs),
		ContentDownloadMs: clampMs(p.TotalMs - p.FirstByteMs),
	}
}

func clampMs(ms float64) float64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// parseHeaderBlock canonicalizes the raw header lines: the HTTP/ line
// sets the version, other lines split on the first colon with trimmed
// name and value. Repeated names merge with ", " (case-sensitive name
// match); every Set-Cookie line is parsed into its own cookie.
func parseHeaderBlock(lines []string) (map[string]string, []Cookie, string) {
	headers := make(map[string]string)
	cookies := []Cookie{}
	httpVersion := "HTTP/1.1"

	for _, line := range lines {
		if strings.HasPrefix(line, "HTTP/") {
			if i := strings.IndexByte(line, ' '); i > 0 {
				httpVersion = line[:i]
			} else {
				httpVersion = line
			}
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if strings.EqualFold(name, "set-cookie") {
			if cookie, ok := parseSetCookie(value); ok {
				cookies = append(cookies, cookie)
			}
		}

		if existing, ok := headers[name]; ok {
			headers[name] = existing + ", " + value
		} else {
			headers[name] = value
		}
	}

	return headers, cookies, httpVersion
}

// parseSetCookie parses one Set-Cookie header value. A value whose
// first segment has no "=" is dropped.
func parseSetCookie(value string) (Cookie, bool) {
	parts := strings.Split(value, ";")
	name, cookieValue, ok := strings.Cut(parts[0], "=")
	if !ok {
		return Cookie{}, false
	}

	cookie := Cookie{
		Name:  strings.TrimSpace(name),
		Value: strings.TrimSpace(cookieValue),
	}

	for _, part := range parts[1:] {
		attrName, attrValue, _ := strings.Cut(part, "=")
		attrValue = strings.TrimSpace(attrValue)
		switch strings.ToLower(strings.TrimSpace(attrName)) {
		case "domain":
			cookie.Domain = attrValue
		case "path":
			cookie.Path = attrValue
		case "expires":
			cookie.Expires = attrValue
		case "httponly":
			cookie.HTTPOnly = true
		case "secure":
			cookie.Secure = true
		}
	}

	return cookie, true
}

func lookupHeader(headers map[string]string, key string) string {
	for name, value := range headers {
		if strings.EqualFold(name, key) {
			return value
		}
	}
	return ""
}

// detectRenderers computes the set of ways the body can be displayed.
// Raw is always present; the rest follow content-type hints with a
// sniffing fallback when the declared type is absent or uninformative.
func detectRenderers(contentType string, body []byte) []Renderer {
	renderers := []Renderer{RendererRaw}
	ct := strings.ToLower(contentType)

	if strings.Contains(ct, "application/json") || strings.Contains(ct, "+json") {
		if gjson.ValidBytes(body) {
			renderers = append(renderers, RendererJSON)
		}
	} else if len(body) > 0 && (body[0] == '{' || body[0] == '[') {
		if gjson.ValidBytes(body) {
			renderers = append(renderers, RendererJSON)
		}
	}

	isHTMLType := strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
	isXMLType := strings.Contains(ct, "application/xml") ||
		strings.Contains(ct, "text/xml") || strings.Contains(ct, "+xml")

	switch {
	case isHTMLType:
		renderers = append(renderers, RendererHTML, RendererHTMLPreview)
	case isXMLType:
		renderers = append(renderers, RendererXML)
	default:
		sniffed := strings.TrimLeftFunc(string(body), func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\r' || r == '\n'
		})
		if strings.HasPrefix(sniffed, "<?xml") {
			renderers = append(renderers, RendererXML)
		} else if strings.HasPrefix(sniffed, "<!DOCTYPE html") || strings.HasPrefix(sniffed, "<html") {
			renderers = append(renderers, RendererHTML, RendererHTMLPreview)
		}
	}

	for _, imageType := range []string{
		"image/png", "image/jpeg", "image/gif", "image/webp",
		"image/svg", "image/bmp", "image/ico",
	} {
		if strings.Contains(ct, imageType) {
			renderers = append(renderers, RendererImage)
			break
		}
	}
	if strings.Contains(ct, "application/pdf") {
		renderers = append(renderers, RendererPDF)
	}
	if strings.Contains(ct, "audio/") {
		renderers = append(renderers, RendererAudio)
	}
	if strings.Contains(ct, "video/") {
		renderers = append(renderers, RendererVideo)
	}

	return renderers
}

// normalizeProtocol folds any version string mentioning 3 or 2 into
// the short HTTP/3 / HTTP/2 forms; everything else passes through.
func normalizeProtocol(httpVersion string) string {
	switch {
	case strings.Contains(httpVersion, "3"):
		return "HTTP/3"
	case strings.Contains(httpVersion, "2"):
		return "HTTP/2"
	default:
		return httpVersion
	}
}

// builtHeaderBytes approximates the request header wire size: request
// line plus each header line with CRLF framing and the blank line.
func builtHeaderBytes(built *BuiltRequest) int {
	n := len(built.Method) + 1 + len(built.URL) + 1 + len("HTTP/1.1") + 2
	for _, h := range built.Headers {
		n += len(h.Name) + 2 + len(h.Value) + 2
	}
	return n + 2
}

func headerBlockBytes(lines []string) int {
	n := 0
	for _, line := range lines {
		n += len(line) + 2
	}
	return n + 2
}

func statusText(status int) string {
	switch status {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	case 206:
		return "Partial Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 409:
		return "Conflict"
	case 410:
		return "Gone"
	case 413:
		return "Payload Too Large"
	case 414:
		return "URI Too Long"
	case 415:
		return "Unsupported Media Type"
	case 422:
		return "Unprocessable Entity"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	default:
		return "Status " + strconv.Itoa(status)
	}
}
