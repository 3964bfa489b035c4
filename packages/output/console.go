package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/zestclient/zest/packages/http"
)

const bodyPreviewLimit = 4096

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatResponse prints one executed response: status line, timing and
// size summary, then headers/cookies/renderers in verbose mode and a
// truncated body preview.
func (f *ConsoleFormatter) FormatResponse(resp *http.Response) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if resp.Failed() {
		fmt.Fprintf(f.writer, "%s %s\n", red(bold("✗ "+resp.StatusText)), resp.Error)
		fmt.Fprintf(f.writer, "  %s %.1fms\n", cyan("elapsed:"), resp.Timing.TotalMs)
		return
	}

	statusLine := fmt.Sprintf("%d %s", resp.Status, resp.StatusText)
	fmt.Fprintf(f.writer, "%s %s\n", statusColor(resp.Status)(bold(statusLine)), resp.ProtocolUsed)
	fmt.Fprintf(f.writer, "  %s %.1fms  %s %s  %s %s\n",
		cyan("time:"), resp.Timing.TotalMs,
		cyan("size:"), formatBytes(resp.ResponseSize.TotalBytes),
		cyan("remote:"), orDash(resp.RemoteAddr))

	if f.verbose {
		f.formatTiming(resp)
		f.formatHeaders(resp)
		f.formatCookies(resp)
		fmt.Fprintf(f.writer, "\n%s %s\n", cyan("renderers:"), renderList(resp.AvailableRenderers))
	}

	if len(resp.Body) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bodyPreview(resp.Body))
	}
}

func (f *ConsoleFormatter) formatTiming(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()
	t := resp.Timing
	phases := []struct {
		name string
		ms   float64
	}{
		{"dns lookup", t.DNSLookupMs},
		{"tcp handshake", t.TCPHandshakeMs},
		{"tls handshake", t.TLSHandshakeMs},
		{"transfer start", t.TransferStartMs},
		{"ttfb", t.TTFBMs},
		{"download", t.ContentDownloadMs},
		{"total", t.TotalMs},
	}
	fmt.Fprintf(f.writer, "\n%s\n", cyan("timing:"))
	for _, phase := range phases {
		fmt.Fprintf(f.writer, "  %-15s %8.1fms\n", phase.name, phase.ms)
	}
}

func (f *ConsoleFormatter) formatHeaders(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(f.writer, "\n%s\n", cyan("headers:"))
	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(f.writer, "  %s: %s\n", name, resp.Headers[name])
	}
}

func (f *ConsoleFormatter) formatCookies(resp *http.Response) {
	if len(resp.Cookies) == 0 {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(f.writer, "\n%s\n", cyan("cookies:"))
	for _, c := range resp.Cookies {
		attrs := []string{}
		if c.Domain != "" {
			attrs = append(attrs, "domain="+c.Domain)
		}
		if c.Path != "" {
			attrs = append(attrs, "path="+c.Path)
		}
		if c.HTTPOnly {
			attrs = append(attrs, "httponly")
		}
		if c.Secure {
			attrs = append(attrs, "secure")
		}
		suffix := ""
		if len(attrs) > 0 {
			suffix = " (" + strings.Join(attrs, ", ") + ")"
		}
		fmt.Fprintf(f.writer, "  %s=%s%s\n", c.Name, c.Value, suffix)
	}
}

func statusColor(status int) func(a ...interface{}) string {
	switch {
	case status >= 200 && status < 300:
		return color.New(color.FgGreen).SprintFunc()
	case status >= 300 && status < 400:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}

func renderList(renderers []http.Renderer) string {
	names := make([]string, len(renderers))
	for i, r := range renderers {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func bodyPreview(body []byte) string {
	if len(body) > bodyPreviewLimit {
		return string(body[:bodyPreviewLimit]) + "\n… (truncated)"
	}
	return string(body)
}

func formatBytes(n uint32) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
