/*
Package req contains helpers for binding HTTP request bodies.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"splitchat/internal/pkg/errs"
)

const (
	// MaxFormMemory caps the in-memory portion of multipart parsing.
	MaxFormMemory int64 = 32 << 20

	// MaxUploadBytes caps the whole multipart request body, file included.
	MaxUploadBytes int64 = 20 << 20
)

// BindJSON decodes the request body into dst, rejecting non-JSON content
// types, unknown fields, and trailing garbage.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}
	if decoder.More() {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}

// SetupMultipart bounds the request body and parses the multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
