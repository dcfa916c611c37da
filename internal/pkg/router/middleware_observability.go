package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxLoggedBody caps how much of a JSON body is buffered for the access log.
const maxLoggedBody = 16 << 10

// recorder captures the status, size, and (for JSON) the body of a response.
// The handler error is attached through SetError by the router.
type recorder struct {
	http.ResponseWriter
	status  int
	written int
	body    *bytes.Buffer
	err     error
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.body != nil && w.body.Len() < maxLoggedBody {
		w.body.Write(p[:min(len(p), maxLoggedBody-w.body.Len())])
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *recorder) SetError(err error) { w.err = err }

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *recorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *recorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

// peekJSONBody returns the decoded request body for logging and restores
// r.Body for the handler. Non-JSON bodies (avatar uploads) are only sized.
func peekJSONBody(r *http.Request) any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if !isJSON(r.Header.Get("Content-Type")) {
		if r.ContentLength > 0 {
			return map[string]any{"omitted_bytes": r.ContentLength}
		}
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody)) //nolint:errcheck // logging only
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	return decodeLogged(head)
}

// decodeLogged turns a JSON payload into a value the masking log handler can
// walk. Field masking (otp, email) happens there, not here.
func decodeLogged(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return map[string]any{"unparsed_bytes": len(b)}
	}
	return v
}

// middlewareObservability traces, meters and access-logs each request. The
// Cookie header and Set-Cookie values are never logged since they carry
// session ids.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	logBody := cfg == nil || !cfg.GetBool("app.server.http.disable_body_log")
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests served"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ClientAddress(r.RemoteAddr),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			reqLog := []any{
				"method", r.Method,
				"path", route,
				"ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"has_cookie", r.Header.Get("Cookie") != "",
			}
			if logBody {
				reqLog = append(reqLog, "body", peekJSONBody(r))
			}
			slog.InfoContext(ctx, "request received", reqLog...)

			rec := &recorder{ResponseWriter: w}
			if logBody {
				rec.body = &bytes.Buffer{}
			}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(attribute.Int("http.response.body.size", rec.written))
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
			}

			respLog := []any{
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.written,
				"latency_ms", elapsed.Milliseconds(),
				"sets_cookie", len(rec.Header().Values("Set-Cookie")) > 0,
			}
			if rec.body != nil && isJSON(rec.Header().Get("Content-Type")) {
				respLog = append(respLog, "body", decodeLogged(rec.body.Bytes()))
			}
			slog.InfoContext(ctx, "response sent", respLog...)
		})
	}
}
