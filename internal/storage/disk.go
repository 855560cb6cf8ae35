// Package storage is the disk-backed file store. Every upload gets its own
// stored name, so rows never share a file and deleting one reference can
// never strand another.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/google/uuid"
)

const previewMaxDim = 512

type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Upload(ctx context.Context, data []byte, suggestedName string) (string, error) {
	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(suggestedName))
	fullPath := filepath.Join(s.root, storedName)

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return storedName, nil
}

func (s *DiskStore) Delete(ctx context.Context, storedName string) (bool, error) {
	err := os.Remove(filepath.Join(s.root, filepath.Base(storedName)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DiskStore) GetByName(ctx context.Context, storedName string) ([]byte, error) {
	// Base strips any path the caller smuggled into the name.
	data, err := os.ReadFile(filepath.Join(s.root, filepath.Base(storedName)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// GeneratePreview decodes an image and returns a PNG downscaled so its
// longest side is at most 512 pixels, together with the original dimensions.
func (s *DiskStore) GeneratePreview(data []byte) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	scaled := downscale(img, previewMaxDim)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, 0, 0, fmt.Errorf("encoding preview: %w", err)
	}
	return buf.Bytes(), width, height, nil
}

// downscale resizes with nearest-neighbour sampling. Previews are thumbnails;
// speed beats quality here.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	outW, outH := maxDim, maxDim
	if w > h {
		outH = h * maxDim / w
	} else {
		outW = w * maxDim / h
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < outH; y++ {
		srcY := bounds.Min.Y + y*h/outH
		for x := 0; x < outW; x++ {
			srcX := bounds.Min.X + x*w/outW
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}
