package handler

import (
	"splitchat/internal/app/chat"
	"splitchat/internal/app/extract"
	"splitchat/internal/app/room"
	"splitchat/internal/app/storage"
	"splitchat/internal/configs"
)

type AppDeps struct {
	Coordinator    *chat.Coordinator
	Config         *configs.AppConfig
	StorageService storage.StorageService
	Extractor      *extract.Client
	Rooms          *room.Store
}
