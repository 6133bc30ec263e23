package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/adi-253/qqchat/internal/chatlog"
	"github.com/adi-253/qqchat/internal/config"
	"github.com/adi-253/qqchat/internal/storage"
)

// MaxAttachments is the number of images kept per message; extras are dropped.
const MaxAttachments = 6

const maxNameAttempts = 1000

// ErrInvalidAttachment is returned for uploads that are not acceptable images.
var ErrInvalidAttachment = errors.New("invalid attachment")

// ErrInvalidPicName is returned when a requested attachment name is malformed.
var ErrInvalidPicName = errors.New("invalid file name")

var picNamePattern = regexp.MustCompile(`(?i)^[0-9]+_[0-9]+\.(jpe?g|png|gif|webp|svg)$`)

// extensions maps accepted image MIME types to the extension used on disk.
var extensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// Upload is one image received with a message.
type Upload struct {
	ContentType string
	Data        []byte
}

// AttachmentService validates uploaded images and stores them either as
// files under pic/ or as inline data URLs.
type AttachmentService struct {
	root    *storage.Root
	mode    string
	maxSize int64
}

// NewAttachmentService creates an AttachmentService.
// mode is config.AttachmentModeFile or config.AttachmentModeInline.
func NewAttachmentService(root *storage.Root, mode string, maxSize int64) *AttachmentService {
	if mode != config.AttachmentModeInline {
		mode = config.AttachmentModeFile
	}
	return &AttachmentService{root: root, mode: mode, maxSize: maxSize}
}

// MaxSize returns the per-image size limit in bytes.
func (s *AttachmentService) MaxSize() int64 {
	return s.maxSize
}

// Ingest validates up to MaxAttachments uploads and persists them.
// In file mode the saved names are returned in paths, otherwise data URLs
// are returned in dataURLs. stamp makes file names unique per message.
func (s *AttachmentService) Ingest(qq string, stamp int64, uploads []Upload) (paths, dataURLs []string, err error) {
	if len(uploads) > MaxAttachments {
		uploads = uploads[:MaxAttachments]
	}

	mimeTypes := make([]string, len(uploads))
	for i, u := range uploads {
		mt := mediaType(u.ContentType)
		if !strings.HasPrefix(mt, "image/") {
			return nil, nil, fmt.Errorf("%w: only image files are supported", ErrInvalidAttachment)
		}
		if int64(len(u.Data)) > s.maxSize {
			return nil, nil, fmt.Errorf("%w: image larger than %s", ErrInvalidAttachment, humanize.IBytes(uint64(s.maxSize)))
		}
		if s.mode == config.AttachmentModeFile {
			if _, ok := extensions[mt]; !ok {
				return nil, nil, fmt.Errorf("%w: unsupported image type %s", ErrInvalidAttachment, mt)
			}
		}
		mimeTypes[i] = mt
	}

	if s.mode == config.AttachmentModeInline {
		for i, u := range uploads {
			dataURLs = append(dataURLs, "data:"+mimeTypes[i]+";base64,"+base64.StdEncoding.EncodeToString(u.Data))
		}
		return nil, dataURLs, nil
	}

	if len(uploads) == 0 {
		return nil, nil, nil
	}
	dir := s.root.Path(chatlog.PicDir)
	if err := storage.EnsureDir(dir); err != nil {
		return nil, nil, err
	}
	for i, u := range uploads {
		name, err := s.create(qq, stamp, i, extensions[mimeTypes[i]], u.Data)
		if err != nil {
			s.Remove(paths)
			return nil, nil, fmt.Errorf("failed to save image: %w", err)
		}
		paths = append(paths, name)
	}
	log.Printf("[Attachment] Saved %d image(s) for %s", len(paths), qq)
	return paths, nil, nil
}

// create writes data under a name no other message holds. A taken name,
// e.g. a second send in the same millisecond, bumps the stamp and retries.
func (s *AttachmentService) create(qq string, stamp int64, index int, ext string, data []byte) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%s_%d%d.%s", qq, stamp+int64(attempt), index, ext)
		path := s.root.Path(chatlog.PicDir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return "", err
		}
		return name, nil
	}
	return "", fmt.Errorf("no free attachment name for %s after %d attempts", qq, maxNameAttempts)
}

// Remove deletes saved attachment files, ignoring failures.
func (s *AttachmentService) Remove(names []string) {
	for _, name := range names {
		os.Remove(s.root.Path(chatlog.PicDir, name))
	}
}

// Open reads a stored attachment by file name and reports its content type.
// A missing file yields an error satisfying errors.Is(err, os.ErrNotExist).
func (s *AttachmentService) Open(name string) ([]byte, string, error) {
	if !picNamePattern.MatchString(name) {
		return nil, "", ErrInvalidPicName
	}
	data, err := os.ReadFile(s.root.Path(chatlog.PicDir, name))
	if err != nil {
		return nil, "", err
	}
	return data, ContentTypeFor(name), nil
}

// ContentTypeFor returns the MIME type served for an attachment file name.
func ContentTypeFor(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".svg"):
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
