package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/adi-253/qqchat/internal/chatlog"
	"github.com/adi-253/qqchat/internal/models"
)

const (
	// ViewLimit is how many messages a poll returns
	ViewLimit = 200

	// LookupLimit is how far back revoke and react look for their target
	LookupLimit = 500

	// MaxNicknameLength is measured in characters
	MaxNicknameLength = 20
)

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrMissingField    = errors.New("missing required field")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("only the sender can revoke a message")
)

var qqPattern = regexp.MustCompile(`^[0-9]{5,15}$`)

// ValidateIdentity checks a self-declared nickname and QQ number.
// Both are trimmed before checking.
func ValidateIdentity(nickname, qq string) (models.Author, error) {
	nickname = strings.TrimSpace(nickname)
	qq = strings.TrimSpace(qq)
	if nickname == "" {
		return models.Author{}, fmt.Errorf("%w: nickname is required", ErrInvalidIdentity)
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return models.Author{}, fmt.Errorf("%w: nickname longer than %d characters", ErrInvalidIdentity, MaxNicknameLength)
	}
	if !qqPattern.MatchString(qq) {
		return models.Author{}, fmt.Errorf("%w: qq must be 5-15 digits", ErrInvalidIdentity)
	}
	return models.Author{Nickname: nickname, QQ: qq}, nil
}

// SendInput is a validated-at-the-edge request to post a message.
type SendInput struct {
	Nickname string
	QQ       string
	Text     string
	Uploads  []Upload
}

// MessageService handles message storage and retrieval on top of the chat log.
type MessageService struct {
	store       *chatlog.Store
	attachments *AttachmentService
	newID       func() string
	now         func() time.Time
}

// NewMessageService creates a new MessageService instance
func NewMessageService(store *chatlog.Store, attachments *AttachmentService) *MessageService {
	return &MessageService{
		store:       store,
		attachments: attachments,
		newID:       func() string { return uuid.New().String() },
		now:         time.Now,
	}
}

// GetMessages returns the latest ViewLimit messages with revocations and reactions merged
func (s *MessageService) GetMessages() []models.MessageView {
	return s.store.Views(ViewLimit)
}

// SendMessage validates and appends a new message
func (s *MessageService) SendMessage(in SendInput) (models.Message, error) {
	author, err := ValidateIdentity(in.Nickname, in.QQ)
	if err != nil {
		return models.Message{}, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Uploads) == 0 {
		return models.Message{}, ErrEmptyMessage
	}

	createdAt := s.now().UnixMilli()
	paths, dataURLs, err := s.attachments.Ingest(author.QQ, createdAt, in.Uploads)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.store.Log.Append(models.Message{
		ID:            s.newID(),
		User:          author,
		Text:          text,
		ImagePaths:    paths,
		ImageDataURLs: dataURLs,
		CreatedAt:     createdAt,
	})
	if err != nil {
		s.attachments.Remove(paths)
		return models.Message{}, fmt.Errorf("failed to append message: %w", err)
	}

	log.Printf("[Message] Stored message %s (seq %d) from %s", msg.ID, msg.Seq, author.Key())
	return msg, nil
}

// RevokeMessage hides a message. Only its author may revoke it.
func (s *MessageService) RevokeMessage(req models.RevokeRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	author, err := ValidateIdentity(req.Nickname, string(req.QQ))
	if err != nil {
		return err
	}

	target, ok := s.store.Log.Find(req.ID, LookupLimit)
	if !ok {
		return ErrMessageNotFound
	}
	if target.User != author {
		return ErrNotAuthor
	}

	if err := s.store.Revocations.Revoke(req.ID); err != nil {
		return err
	}
	log.Printf("[Message] Revoked message %s by %s", req.ID, author.Key())
	return nil
}

// ToggleReaction adds or removes the requester's emoji reaction on a message
func (s *MessageService) ToggleReaction(req models.ReactRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	if strings.TrimSpace(req.Emoji) == "" {
		return fmt.Errorf("%w: emoji", ErrMissingField)
	}
	author, err := ValidateIdentity(req.Nickname, string(req.QQ))
	if err != nil {
		return err
	}

	if _, ok := s.store.Log.Find(req.ID, LookupLimit); !ok {
		return ErrMessageNotFound
	}
	return s.store.Reactions.Toggle(req.ID, req.Emoji, author.Key())
}
