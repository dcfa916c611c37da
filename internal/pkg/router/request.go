package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

// maxJSONBody bounds DecodeBody; auth payloads are a few hundred bytes.
const maxJSONBody = 1 << 20

// Request is the *http.Request handed to a Handler.
type Request struct {
	*http.Request
}

// DecodeBody strictly decodes a single JSON value into dst: unknown fields,
// trailing data and oversized bodies are all invalid-format errors.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if dec.More() {
		return goerror.NewInvalidFormat()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}

// StreamSingleFile streams the multipart part named field without buffering
// the upload. It returns the part and its declared Content-Type; the caller
// closes it. Parts before it are discarded.
func (r *Request) StreamSingleFile(field string) (io.ReadCloser, string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, "", goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", goerror.NewInvalidFormat("Missing file " + field)
		}
		if err != nil {
			return nil, "", goerror.NewInvalidFormat()
		}

		if part.FormName() == field {
			return part, part.Header.Get("Content-Type"), nil
		}

		_, errDrain := io.Copy(io.Discard, part)
		if err := errors.Join(errDrain, part.Close()); err != nil {
			return nil, "", goerror.NewInvalidFormat()
		}
	}
}
