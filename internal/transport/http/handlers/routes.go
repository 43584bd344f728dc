package handlers

import "net/http"

type Routes struct {
	Rooms    *RoomHandler
	Messages *MessageHandler
	Uploads  *UploadHandler
	Health   http.HandlerFunc
	Feed     http.HandlerFunc
}

// Register mounts every endpoint on mux.
func (rt Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.Health)

	mux.HandleFunc("GET /api/v1/rooms/{slug}", rt.Rooms.GetBySlug)
	mux.HandleFunc("POST /api/v1/rooms", rt.Rooms.Create)

	mux.HandleFunc("GET /api/v1/rooms/{id}/messages", rt.Messages.List)
	mux.HandleFunc("POST /api/v1/rooms/{id}/messages", rt.Messages.Send)
	mux.HandleFunc("DELETE /api/v1/messages/{id}", rt.Messages.Delete)

	mux.HandleFunc("POST /api/v1/uploads", rt.Uploads.Upload)
	mux.HandleFunc("GET /api/v1/uploads/{path}", rt.Uploads.Download)

	mux.HandleFunc("GET /ws", rt.Feed)
}
