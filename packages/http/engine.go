package http

import (
	"context"
	"time"
)

// failedStatusText is the status text sentinel for transport-level
// failures (Status 0).
const failedStatusText = "Request Failed"

// Engine executes declarative requests. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	transport Transport
}

type EngineOption func(*Engine)

// WithTransport swaps the executor strategy. The default is the
// phase-timing TraceTransport.
func WithTransport(t Transport) EngineOption {
	return func(e *Engine) {
		e.transport = t
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		transport: NewTraceTransport(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs one atomic request/response exchange. It returns a
// hard error only when the request cannot be lowered (ErrInvalidURL or
// an unknown auth/body variant), before any transport activity. Every
// transport failure is represented inside the Response: Status 0,
// StatusText "Request Failed" and Error holding the classified
// diagnostic.
func (e *Engine) Execute(ctx context.Context, req *Request) (*Response, error) {
	built, err := Build(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.transport.RoundTrip(ctx, built, req.policy())
	if err != nil {
		return failureResponse(err, time.Since(start)), nil
	}

	return analyze(built, raw, e.transport.SupportsPhaseTiming()), nil
}

func failureResponse(err error, elapsed time.Duration) *Response {
	return &Response{
		Status:             0,
		StatusText:         failedStatusText,
		Headers:            map[string]string{},
		Cookies:            []Cookie{},
		Timing:             Timing{TotalMs: float64(elapsed) / float64(time.Millisecond)},
		Redirects:          []RedirectEntry{},
		AvailableRenderers: []Renderer{RendererRaw},
		Error:              classifyError(err),
	}
}
