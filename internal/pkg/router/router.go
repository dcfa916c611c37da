// Package router adapts httprouter to handlers of the form
// func(*Request) (any, error) and renders the JSON envelope
// {"success": bool, "message": string, ...payload}.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/uid"
)

const defaultSuccessMessage = "Request has been successfully processed"

type errorResponse struct {
	Success bool              `json:"success" example:"false"`
	Message string            `json:"message" example:"Invalid OTP"`
	Error   map[string]string `json:"error,omitempty"`
}

// Handler returns the payload to encode, or an error rendered through goerror.
//
// A payload may shape the response by implementing any of:
//
//	StatusCode() int          // defaults to 200; 204 writes no body
//	Message() string          // envelope message
//	Cookies() []*http.Cookie  // Set-Cookie headers, nil entries skipped
type Handler func(r *Request) (any, error)

type (
	statusCoder  interface{ StatusCode() int }
	messenger    interface{ Message() string }
	cookieSetter interface{ Cookies() []*http.Cookie }
	errorSetter  interface{ SetError(error) }
)

// Config holds what NewRouter needs. Every field is optional.
type Config struct {
	Config     config.Config
	UUID       uid.StringID
	Instrument instrument.Instrumentation
	// Session verifies the session cookie; nil disables session extraction.
	Session sessionDecoder
}

// Router is an http.Handler serving the registered endpoints behind the
// shared middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds a router with /health and the standard middleware:
// recover, client ip, correlation id, observability, maintenance, session.
func NewRouter(cfg Config) *Router {
	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	hr := httprouter.New()
	hr.SaveMatchedRoutePath = true
	hr.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "Endpoint not found"}, http.StatusNotFound)
	})
	hr.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "Method not allowed"}, http.StatusMethodNotAllowed)
	})
	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]any{"success": true, "message": "OK"}, http.StatusOK)
	})

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareClientIP(cfg.Config),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, ins),
			middlewareMaintenance(cfg.Config),
			middlewareSession(cfg.Session),
		},
	}
}

// GET, POST, PUT and DELETE register h for the method on path.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws)
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPut, path, h, mws)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodDelete, path, h, mws)
}

// handle registers h behind the router middleware followed by the
// route-specific mws.
func (r *Router) handle(method, path string, h Handler, mws []Middleware) {
	endpoint := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if es, ok := w.(errorSetter); ok {
				es.SetError(err)
			}
			writeError(req.Context(), w, err)
			return
		}
		writeSuccess(req.Context(), w, resp)
	})

	r.hr.Handler(method, path, Chain(endpoint, slices.Concat(r.mws, mws)...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

// writeError renders a goerror.Error with its status and fields. Anything
// else is an unclassified failure and becomes a bare 500.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "unclassified error reached the router", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	writeJSON(w, errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}, gerr.StatusCode())
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, resp any) {
	if cs, ok := resp.(cookieSetter); ok {
		for _, ck := range cs.Cookies() {
			if ck != nil {
				http.SetCookie(w, ck)
			}
		}
	}

	status := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		status = sc.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := defaultSuccessMessage
	if m, ok := resp.(messenger); ok {
		msg = m.Message()
	}

	body, err := envelope(msg, resp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode response payload", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}
	writeJSON(w, body, status)
}

// envelope merges the payload's top-level fields into the envelope. A payload
// that is not a JSON object goes under "data". A payload "message" field wins
// over msg.
func envelope(msg string, resp any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	body := map[string]json.RawMessage{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return nil, err
		}
	} else {
		body["data"] = raw
	}

	body["success"] = json.RawMessage("true")
	if _, ok := body["message"]; !ok {
		m, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		body["message"] = m
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}
