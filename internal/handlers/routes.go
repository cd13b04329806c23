// File: internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes mounts the chat and project API on r. postChat wraps
// only POST /chats, which is where the per-user rate limit applies.
func RegisterChatRoutes(r *mux.Router, chats *ChatHandler, projects *ProjectHandler, postChat func(http.Handler) http.Handler) {
	if postChat == nil {
		postChat = func(h http.Handler) http.Handler { return h }
	}

	r.Handle("/chats", postChat(http.HandlerFunc(chats.AddInteraction))).Methods(http.MethodPost)
	r.HandleFunc("/chats", chats.ListChats).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id:[0-9]+}", chats.GetChat).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id:[0-9]+}", chats.UpdateChat).Methods(http.MethodPatch)
	r.HandleFunc("/chats/{id:[0-9]+}", chats.DeleteChat).Methods(http.MethodDelete)

	r.HandleFunc("/projects", projects.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/projects", projects.ListProjects).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id:[0-9]+}/chats", projects.ListProjectChats).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id:[0-9]+}", projects.UpdateProject).Methods(http.MethodPatch)
	r.HandleFunc("/projects/{id:[0-9]+}", projects.DeleteProject).Methods(http.MethodDelete)
}
