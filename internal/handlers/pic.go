package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/adi-253/qqchat/internal/services"
)

// PicHandler serves saved message attachments.
type PicHandler struct {
	attachments *services.AttachmentService
}

// NewPicHandler creates a new PicHandler instance.
func NewPicHandler(attachments *services.AttachmentService) *PicHandler {
	return &PicHandler{attachments: attachments}
}

// ServePic handles GET /api/messages/pic/{name}
// Attachment names never change content, so responses are cached for a year.
func (h *PicHandler) ServePic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	data, contentType, err := h.attachments.Open(name)
	switch {
	case errors.Is(err, services.ErrInvalidPicName):
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	case errors.Is(err, os.ErrNotExist):
		http.Error(w, "file not found", http.StatusNotFound)
		return
	case err != nil:
		log.Printf("[Attachment] Failed to read %s: %v", name, err)
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
