package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/services"
)

const (
	// multipartMemory is how much of a multipart body is buffered in memory
	// before spilling to temp files.
	multipartMemory = 8 << 20

	// maxTextBody caps JSON and urlencoded bodies, and the non-image part
	// of a multipart body.
	maxTextBody = 1 << 20
)

var errBodyTooLarge = errors.New("request body too large")

// MessageHandler contains HTTP handlers for message operations.
// Clients poll GetMessages; every write returns the refreshed list.
type MessageHandler struct {
	messageService *services.MessageService
	maxUpload      int64
}

// NewMessageHandler creates a new MessageHandler instance.
// maxUpload is the per-image size limit used to reject oversized parts early.
func NewMessageHandler(messageService *services.MessageService, maxUpload int64) *MessageHandler {
	return &MessageHandler{messageService: messageService, maxUpload: maxUpload}
}

// GetMessages handles GET /api/messages
// Returns the latest messages, oldest first, with revocations and reactions applied.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.messageService.GetMessages())
}

// SendMessage handles POST /api/messages
// Accepts multipart/form-data (with images), JSON or urlencoded bodies.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit(r))
	in, err := h.parseSendBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.messageService.SendMessage(in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.messageService.GetMessages())
}

// RevokeMessage handles POST /api/messages/revoke
// Body: {"id", "nickname", "qq"}; the identity must match the message author.
func (h *MessageHandler) RevokeMessage(w http.ResponseWriter, r *http.Request) {
	var req models.RevokeRequest
	// an unreadable body fails validation below as a missing id
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&req); tooLarge(err) {
		writeError(w, errBodyTooLarge)
		return
	}

	if err := h.messageService.RevokeMessage(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.messageService.GetMessages())
}

// ReactToMessage handles POST /api/messages/react
// Body: {"id", "emoji", "nickname", "qq"}; toggles the caller's reaction.
func (h *MessageHandler) ReactToMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ReactRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&req); tooLarge(err) {
		writeError(w, errBodyTooLarge)
		return
	}

	if err := h.messageService.ToggleReaction(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.messageService.GetMessages())
}

func (h *MessageHandler) parseSendBody(r *http.Request) (services.SendInput, error) {
	switch mediaType(r) {
	case "application/json":
		var req models.SendMessageRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if tooLarge(err) {
			return services.SendInput{}, errBodyTooLarge
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return services.SendInput{}, fmt.Errorf("%w: invalid JSON body", services.ErrMissingField)
		}
		return services.SendInput{Nickname: req.Nickname, QQ: string(req.QQ), Text: req.Text}, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			if tooLarge(err) {
				return services.SendInput{}, errBodyTooLarge
			}
			return services.SendInput{}, fmt.Errorf("%w: invalid form body", services.ErrMissingField)
		}
		return services.SendInput{
			Nickname: r.PostForm.Get("nickname"),
			QQ:       r.PostForm.Get("qq"),
			Text:     r.PostForm.Get("text"),
		}, nil

	default:
		// multipart, or an unlabeled body that may still be multipart
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			if tooLarge(err) {
				return services.SendInput{}, errBodyTooLarge
			}
			// nothing usable; identity validation rejects the empty input
			return services.SendInput{}, nil
		}
		defer r.MultipartForm.RemoveAll()

		uploads, err := h.readUploads(r.MultipartForm.File["images"])
		if err != nil {
			return services.SendInput{}, err
		}
		return services.SendInput{
			Nickname: formValue(r.MultipartForm, "nickname"),
			QQ:       formValue(r.MultipartForm, "qq"),
			Text:     formValue(r.MultipartForm, "text"),
			Uploads:  uploads,
		}, nil
	}
}

// bodyLimit sizes the body cap: text bodies get maxTextBody, multipart
// bodies room for MaxAttachments full-size images on top of that.
func (h *MessageHandler) bodyLimit(r *http.Request) int64 {
	switch mediaType(r) {
	case "application/json", "application/x-www-form-urlencoded":
		return maxTextBody
	default:
		return int64(services.MaxAttachments)*h.maxUpload + maxTextBody
	}
}

func mediaType(r *http.Request) string {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (h *MessageHandler) readUploads(files []*multipart.FileHeader) ([]services.Upload, error) {
	if len(files) > services.MaxAttachments {
		files = files[:services.MaxAttachments]
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.maxUpload {
			return nil, fmt.Errorf("%w: image larger than %s", services.ErrInvalidAttachment, humanize.IBytes(uint64(h.maxUpload)))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, services.Upload{
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, services.ErrMessageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotAuthor):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidIdentity),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrInvalidAttachment):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[Message] Request failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeJSON is a helper function to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
