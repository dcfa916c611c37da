package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/hash"
	"github.com/shandysiswandi/passwordless/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userResp struct {
	User map[string]string `json:"user"`
	ck   *http.Cookie
}

func (userResp) Message() string { return "Login successful" }

func (u userResp) Cookies() []*http.Cookie { return []*http.Cookie{u.ck} }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestRouter(t *testing.T, yaml string) (*Router, *session.Codec) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	codec := session.NewCodec(session.CodecConfig{Signer: hash.NewHMACSHA256("s"), TTL: time.Hour})
	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-1"), Session: codec}), codec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_SuccessEnvelope(t *testing.T) {
	r, _ := newTestRouter(t, "app: {}")
	r.POST("/login", func(*Request) (any, error) {
		return userResp{User: map[string]string{"id": "u1"}, ck: &http.Cookie{Name: "sid", Value: "v"}}, nil
	})
	r.GET("/list", func(*Request) (any, error) { return []int{1, 2}, nil })
	r.DELETE("/empty", func(*Request) (any, error) { return nil, nil })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "sid=v")
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, map[string]any{"id": "u1"}, body["user"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list", nil))
	body = decode(t, rec)
	assert.Equal(t, []any{float64(1), float64(2)}, body["data"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/empty", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_Errors(t *testing.T) {
	r, _ := newTestRouter(t, "app: {}")
	r.POST("/biz", func(*Request) (any, error) { return nil, goerror.NewBusiness("Invalid OTP", goerror.CodeBadRequest) })
	r.POST("/fields", func(*Request) (any, error) { return nil, goerror.NewInvalidInput(nil, "email", "required") })
	r.POST("/raw", func(*Request) (any, error) { return nil, errors.New("boom") })
	r.POST("/panic", func(*Request) (any, error) { panic("boom") })

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{path: "/biz", status: http.StatusBadRequest, msg: "Invalid OTP"},
		{path: "/fields", status: http.StatusBadRequest, msg: "Validation error"},
		{path: "/raw", status: http.StatusInternalServerError, msg: "Internal server error"},
		{path: "/panic", status: http.StatusInternalServerError, msg: "Internal server error"},
		{path: "/missing", status: http.StatusNotFound, msg: "Endpoint not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{}`)))

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.msg, body["message"])
		})
	}
}

func TestRouter_SessionCookie(t *testing.T) {
	r, codec := newTestRouter(t, "app: {}")
	r.GET("/me", func(req *Request) (any, error) {
		return map[string]string{"sid": session.GetID(req.Context())}, nil
	})

	valid, err := codec.Cookie("abc")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   string
	}{
		{name: "no cookie", want: ""},
		{name: "valid", cookie: valid, want: "abc"},
		{name: "forged", cookie: &http.Cookie{Name: codec.Name(), Value: "s:abc.00"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, decode(t, rec)["sid"])
		})
	}
}

func TestRouter_Maintenance(t *testing.T) {
	r, _ := newTestRouter(t, `
app:
  maintenance:
    enabled: true
    endpoints: /down
`)
	r.GET("/down", func(*Request) (any, error) { return map[string]string{}, nil })
	r.GET("/up", func(*Request) (any, error) { return map[string]string{}, nil })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type in struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "ok", body: `{"email":"a@x.com"}`},
		{name: "unknown field", body: `{"email":"a@x.com","x":1}`, wantErr: true},
		{name: "trailing value", body: `{"email":"a@x.com"}{}`, wantErr: true},
		{name: "not json", body: `email=a`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			var dst in
			err := req.DecodeBody(&dst)
			if tt.wantErr {
				var gerr *goerror.Error
				require.ErrorAs(t, err, &gerr)
				assert.Equal(t, goerror.CodeInvalidFormat, gerr.Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", dst.Email)
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }), mw("a"), nil, mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "h"}, order)
}
