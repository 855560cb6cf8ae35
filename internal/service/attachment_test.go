package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mlukic/agora/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.png", domain.KindImage},
		{"photo.JPG", domain.KindImage},
		{"clip.mp4", domain.KindVideo},
		{"song.flac", domain.KindAudio},
		{"notes.pdf", domain.KindDocument},
		{"data.csv", domain.KindDocument},
		{"archive.zip", domain.KindOther},
		{"noextension", domain.KindOther},
		{"", domain.KindOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.filename); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestProcessImageAttachment(t *testing.T) {
	files := newFakeFileStore()
	p := NewAttachmentPipeline(files, 500<<20, 5<<20)

	att, err := p.Process(context.Background(), Upload{Filename: "photo.png", Data: []byte("png bytes")})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if att.Kind != domain.KindImage {
		t.Errorf("kind = %q, want %q", att.Kind, domain.KindImage)
	}
	if att.PreviewName == nil {
		t.Fatal("image attachment should get a preview")
	}
	if att.Width == nil || att.Height == nil || *att.Width != 64 || *att.Height != 48 {
		t.Errorf("dims = %v x %v, want 64 x 48", att.Width, att.Height)
	}
	if len(files.uploads) != 2 {
		t.Errorf("uploads = %d, want 2 (original + preview)", len(files.uploads))
	}
	if att.DisplayName != "photo.png" {
		t.Errorf("display name = %q, want original filename", att.DisplayName)
	}
}

func TestProcessDocumentSkipsPreview(t *testing.T) {
	files := newFakeFileStore()
	p := NewAttachmentPipeline(files, 500<<20, 5<<20)

	att, err := p.Process(context.Background(), Upload{Filename: "notes.pdf", Data: []byte("pdf bytes")})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if att.Kind != domain.KindDocument {
		t.Errorf("kind = %q, want %q", att.Kind, domain.KindDocument)
	}
	if att.PreviewName != nil {
		t.Error("non-image attachment should not get a preview")
	}
	if len(files.uploads) != 1 {
		t.Errorf("uploads = %d, want 1", len(files.uploads))
	}
}

func TestProcessOversizeRejectedBeforeStorage(t *testing.T) {
	files := newFakeFileStore()
	p := NewAttachmentPipeline(files, 10, 5)

	_, err := p.Process(context.Background(), Upload{Filename: "big.bin", Data: make([]byte, 11)})
	if !errors.Is(err, ErrAttachmentTooLarge) {
		t.Fatalf("err = %v, want ErrAttachmentTooLarge", err)
	}
	if len(files.uploads) != 0 {
		t.Errorf("uploads = %d, want 0 for rejected file", len(files.uploads))
	}
}

func TestProcessUndecodableImageKeepsAttachment(t *testing.T) {
	files := newFakeFileStore()
	files.previewErr = errors.New("not a real image")
	p := NewAttachmentPipeline(files, 500<<20, 5<<20)

	att, err := p.Process(context.Background(), Upload{Filename: "fake.png", Data: []byte("not png")})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if att.Kind != domain.KindImage {
		t.Errorf("kind = %q, want %q", att.Kind, domain.KindImage)
	}
	if att.PreviewName != nil {
		t.Error("undecodable image should have no preview")
	}
}

func TestProcessImageAvatarClass(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		maxImage int64
		wantErr  bool
	}{
		{"png accepted", "me.png", []byte("img"), 5 << 20, false},
		{"jpeg accepted", "me.jpeg", []byte("img"), 5 << 20, false},
		{"webp rejected", "me.webp", []byte("img"), 5 << 20, true},
		{"pdf rejected", "me.pdf", []byte("doc"), 5 << 20, true},
		{"oversize rejected", "me.png", make([]byte, 11), 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := newFakeFileStore()
			p := NewAttachmentPipeline(files, 500<<20, tt.maxImage)

			name, err := p.ProcessImage(context.Background(), Upload{Filename: tt.filename, Data: tt.data})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidImage) {
					t.Fatalf("err = %v, want ErrInvalidImage", err)
				}
				if len(files.uploads) != 0 {
					t.Errorf("uploads = %d, want 0", len(files.uploads))
				}
				return
			}
			if err != nil {
				t.Fatalf("process image: %v", err)
			}
			if name == "" {
				t.Error("stored name should not be empty")
			}
		})
	}
}

func TestDiscardRemovesPreviewToo(t *testing.T) {
	files := newFakeFileStore()
	p := NewAttachmentPipeline(files, 500<<20, 5<<20)

	att, err := p.Process(context.Background(), Upload{Filename: "photo.png", Data: []byte("png bytes")})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	p.Discard(context.Background(), att)
	if len(files.files) != 0 {
		t.Errorf("files left = %d, want 0 after discard", len(files.files))
	}
}
