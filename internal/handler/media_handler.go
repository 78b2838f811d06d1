package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"splitchat/internal/app/storage"
	"splitchat/internal/pkg/auth/identity"
	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/req"
	"splitchat/internal/pkg/resp"
)

// allowedMediaTypes whitelists what a room may share. Receipts arrive as
// images or PDFs; the rest covers ordinary attachments.
var allowedMediaTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
	"text/plain":      {},
}

var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".pdf": {}, ".txt": {},
}

// HandleMediaUpload accepts a multipart upload, stores the file, and returns
// its public URL. The client then announces the upload over the socket so
// the room hears about it in log order.
func HandleMediaUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := identity.FromContext(r)
		if ident == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotAuthenticated))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		if header.Size > req.MaxUploadBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge))
			return
		}

		contentType := header.Header.Get("Content-Type")
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if _, ok := allowedMediaTypes[contentType]; !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeInvalid))
			return
		}
		if _, ok := allowedExtensions[ext]; !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeInvalid))
			return
		}

		folder := strings.TrimSpace(r.FormValue("room_id"))
		if folder == "" {
			folder = "media"
		}
		key := storage.ObjectKey(folder, header.Filename)
		url, err := deps.StorageService.Upload(r.Context(), file, key, contentType)
		if err != nil {
			logx.Error(err, "Media upload failed", "key", key, "user_id", ident.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"url":         url,
			"fileKey":     key,
			"fileName":    header.Filename,
			"fileSize":    header.Size,
			"contentType": contentType,
		}
		resp.RespondSuccess(w, r, data)
	}
}
