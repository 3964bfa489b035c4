package http

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBodyRead         = errors.New("failed reading response body")
)

// classifyError builds the user-facing diagnostic for a transport
// failure: a fixed-order prefix per matching category, then the
// transport's own error text. Categories are additive; nothing the
// transport reported is discarded.
func classifyError(err error) string {
	var msg strings.Builder

	if isHostResolutionError(err) {
		msg.WriteString("Could not resolve host. ")
	}
	if isConnectError(err) {
		msg.WriteString("Could not connect. ")
	}
	if isTimeoutError(err) {
		msg.WriteString("Operation timed out. ")
	}
	if isTLSConnectError(err) {
		msg.WriteString("TLS connect error. ")
	}
	if isCertVerificationError(err) {
		msg.WriteString("Certificate verification failed. ")
	}
	if errors.Is(err, errTooManyRedirects) {
		msg.WriteString("Too many redirects. ")
	}
	if errors.Is(err, errBodyRead) {
		msg.WriteString("Body error. ")
	}
	if isDecodeError(err) {
		msg.WriteString("Decode error. ")
	}

	msg.WriteString(err.Error())
	return msg.String()
}

func isHostResolutionError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// Dial failures caused by resolution are reported as
		// host-resolution only.
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSConnectError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return true
	}
	// A failed certificate check is also a failed TLS handshake.
	return isCertVerificationError(err)
}

func isCertVerificationError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return true
	}
	var hostnameErr x509.HostnameError
	return errors.As(err, &hostnameErr)
}

func isDecodeError(err error) bool {
	return errors.Is(err, gzip.ErrHeader) || errors.Is(err, gzip.ErrChecksum)
}
