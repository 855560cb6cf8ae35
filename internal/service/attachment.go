package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
)

// Upload is a file received from a client, not yet validated.
type Upload struct {
	Filename string
	Data     []byte
}

// AttachmentPipeline validates and classifies uploads before anything touches
// storage or the database. Nothing is written for an upload that fails the
// size check.
type AttachmentPipeline struct {
	files             FileStore
	maxAttachmentSize int64
	maxImageSize      int64
}

func NewAttachmentPipeline(files FileStore, maxAttachmentSize, maxImageSize int64) *AttachmentPipeline {
	return &AttachmentPipeline{
		files:             files,
		maxAttachmentSize: maxAttachmentSize,
		maxImageSize:      maxImageSize,
	}
}

var kindsByExt = map[string]string{
	".png": domain.KindImage, ".jpg": domain.KindImage, ".jpeg": domain.KindImage,
	".gif": domain.KindImage, ".webp": domain.KindImage, ".bmp": domain.KindImage,

	".mp4": domain.KindVideo, ".webm": domain.KindVideo, ".mov": domain.KindVideo,
	".avi": domain.KindVideo, ".mkv": domain.KindVideo,

	".mp3": domain.KindAudio, ".wav": domain.KindAudio, ".ogg": domain.KindAudio,
	".flac": domain.KindAudio, ".m4a": domain.KindAudio,

	".pdf": domain.KindDocument, ".txt": domain.KindDocument, ".md": domain.KindDocument,
	".doc": domain.KindDocument, ".docx": domain.KindDocument, ".xls": domain.KindDocument,
	".xlsx": domain.KindDocument, ".ppt": domain.KindDocument, ".pptx": domain.KindDocument,
	".csv": domain.KindDocument,
}

// Stricter allow-list for avatar and icon uploads. Only formats the preview
// decoder understands qualify.
var avatarExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// Classify maps a file name to its content kind. Unknown or missing
// extensions classify as Other; classification alone never rejects a file.
func Classify(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := kindsByExt[ext]; ok {
		return kind
	}
	return domain.KindOther
}

// Process runs a message attachment through the pipeline: size ceiling,
// classification, storage, and preview generation for images. The returned
// Attachment is not yet associated with a message; the caller persists it in
// the same transaction as its owning message.
func (p *AttachmentPipeline) Process(ctx context.Context, upload Upload) (*domain.Attachment, error) {
	if int64(len(upload.Data)) > p.maxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}

	kind := Classify(upload.Filename)

	storedName, err := p.files.Upload(ctx, upload.Data, upload.Filename)
	if err != nil {
		return nil, err
	}

	att := &domain.Attachment{
		ID:          uuid.New(),
		DisplayName: upload.Filename,
		StoredName:  storedName,
		Size:        int64(len(upload.Data)),
		Kind:        kind,
		UploadedAt:  time.Now().UTC(),
	}

	if kind == domain.KindImage {
		// A file can carry an image extension and still not decode; it stays
		// an image attachment, just without a preview.
		preview, width, height, err := p.files.GeneratePreview(upload.Data)
		if err == nil {
			previewName, err := p.files.Upload(ctx, preview, "preview.png")
			if err != nil {
				return nil, err
			}
			att.PreviewName = &previewName
			att.Width = &width
			att.Height = &height
		}
	}

	return att, nil
}

// ProcessImage handles avatar-class uploads: a lower size ceiling and a
// strict image allow-list instead of open classification. Returns the stored
// name of the processed image.
func (p *AttachmentPipeline) ProcessImage(ctx context.Context, upload Upload) (string, error) {
	if int64(len(upload.Data)) > p.maxImageSize {
		return "", ErrInvalidImage
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !avatarExts[ext] {
		return "", ErrInvalidImage
	}

	// Store the downscaled rendition, not the original.
	preview, _, _, err := p.files.GeneratePreview(upload.Data)
	if err != nil {
		return "", ErrInvalidImage
	}
	return p.files.Upload(ctx, preview, "avatar.png")
}

// Discard removes the files a processed attachment wrote, for error paths
// where its transaction never committed.
func (p *AttachmentPipeline) Discard(ctx context.Context, att *domain.Attachment) {
	p.files.Delete(ctx, att.StoredName)
	if att.PreviewName != nil {
		p.files.Delete(ctx, *att.PreviewName)
	}
}
