package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/randx"
	"splitchat/internal/pkg/resp"
)

// RoomPreview is the public projection of a room, safe to show before the
// viewer authenticates. It omits the roster and any contact details.
type RoomPreview struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	Active           bool   `json:"active"`
	ParticipantCount int    `json:"participantCount"`
	MaxParticipants  int    `json:"maxParticipants"`
}

// HandleGetRoomByCode resolves a shareable code to a room preview.
func HandleGetRoomByCode(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := randx.NormalizeRoomCode(chi.URLParam(r, "code"))
		if !randx.IsValidRoomCode(code) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		room, customErr := deps.Rooms.GetByCode(r.Context(), code)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, RoomPreview{
			ID:               room.ID,
			Code:             room.Code,
			Name:             room.Name,
			Active:           room.Active,
			ParticipantCount: len(room.Participants),
			MaxParticipants:  room.MaxParticipants,
		})
	}
}
