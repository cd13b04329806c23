// File: internal/handlers/project_handler.go
package handlers

import (
	"net/http"

	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

type ProjectHandler struct {
	projects chatservice.ProjectProvider
}

func NewProjectHandler(projects chatservice.ProjectProvider) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(chatservice.ErrTypeValidation), "Malformed request body.")
		return
	}

	project, err := h.projects.CreateProject(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Project created", project, nil)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, limit := pageParams(r)
	projects, meta, err := h.projects.ListProjects(r.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Projects retrieved", projects, meta)
}

// ListProjectChats handles GET /projects/{id}/chats.
func (h *ProjectHandler) ListProjectChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	page, limit := pageParams(r)
	result, meta, err := h.projects.ListProjectChats(r.Context(), userID, projectID, page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Project chats retrieved", result, meta)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var fields map[string]any
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, string(chatservice.ErrTypeValidation), "Malformed request body.")
		return
	}

	project, err := h.projects.UpdateProject(r.Context(), userID, projectID, fields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Project updated", project, nil)
}

// DeleteProject removes the project with all of its chats and interactions.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(r.Context(), userID, projectID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Project deleted", nil, nil)
}
