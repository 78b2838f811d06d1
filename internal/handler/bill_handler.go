package handler

import (
	"net/http"
	"strings"

	"splitchat/internal/pkg/auth/identity"
	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/req"
	"splitchat/internal/pkg/resp"
)

// BillParseInput defines the JSON input structure for bill extraction.
type BillParseInput struct {
	ImageURL string `json:"image_url"`
}

// HandleBillParse forwards an uploaded receipt image to the extraction
// service and returns the structured bill.
func HandleBillParse(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := identity.FromContext(r)
		if ident == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotAuthenticated))
			return
		}

		var input BillParseInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		imageURL := strings.TrimSpace(input.ImageURL)
		if imageURL == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		doc, err := deps.Extractor.ParseBill(r.Context(), imageURL)
		if err != nil {
			logx.Error(err, "Bill extraction failed", "user_id", ident.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrExtractionFailed))
			return
		}

		resp.RespondSuccess(w, r, doc)
	}
}
