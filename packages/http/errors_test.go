package http

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError_HostResolution(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "missing.example"}

	msg := classifyError(err)

	assert.True(t, strings.HasPrefix(msg, "Could not resolve host. "))
	assert.NotContains(t, msg, "Could not connect.")
	assert.Contains(t, msg, "no such host")
}

func TestClassifyError_ConnectFailure(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	msg := classifyError(err)

	assert.True(t, strings.HasPrefix(msg, "Could not connect. "))
	assert.Contains(t, msg, "connection refused")
}

func TestClassifyError_DialWrappedDNSIsResolutionNotConnect(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host"}}

	msg := classifyError(err)

	assert.Contains(t, msg, "Could not resolve host. ")
	assert.NotContains(t, msg, "Could not connect.")
}

func TestClassifyError_Timeout(t *testing.T) {
	msg := classifyError(fmt.Errorf("request aborted: %w", context.DeadlineExceeded))

	assert.Contains(t, msg, "Operation timed out. ")
	assert.Contains(t, msg, "context deadline exceeded")
}

func TestClassifyError_TimeoutCategoriesCompose(t *testing.T) {
	// A DNS timeout matches both the resolution and timeout
	// categories; both prefixes appear, in fixed order.
	err := &net.DNSError{Err: "lookup timed out", IsTimeout: true}

	msg := classifyError(err)

	resolveIdx := strings.Index(msg, "Could not resolve host. ")
	timeoutIdx := strings.Index(msg, "Operation timed out. ")
	assert.GreaterOrEqual(t, resolveIdx, 0)
	assert.Greater(t, timeoutIdx, resolveIdx)
}

func TestClassifyError_CertificateVerification(t *testing.T) {
	err := x509.UnknownAuthorityError{}

	msg := classifyError(err)

	// A failed certificate check is reported as a TLS failure too.
	assert.Contains(t, msg, "TLS connect error. ")
	assert.Contains(t, msg, "Certificate verification failed. ")
}

func TestClassifyError_TooManyRedirects(t *testing.T) {
	err := fmt.Errorf("%w: stopped after 10 hops", errTooManyRedirects)

	msg := classifyError(err)

	assert.Contains(t, msg, "Too many redirects. ")
	assert.Contains(t, msg, "stopped after 10 hops")
}

func TestClassifyError_BodyError(t *testing.T) {
	err := fmt.Errorf("%w: unexpected EOF", errBodyRead)

	msg := classifyError(err)

	assert.Contains(t, msg, "Body error. ")
}

func TestClassifyError_UnknownErrorKeepsDiagnostic(t *testing.T) {
	msg := classifyError(errors.New("something odd happened"))

	assert.Equal(t, "something odd happened", msg)
}
