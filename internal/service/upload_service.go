package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"showcase/internal/blobstore"
	"showcase/internal/models"
)

// MaxUploadFiles caps one multi-file upload.
const MaxUploadFiles = 8

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// UploadFile is one file of an upload request.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type UploadService struct {
	store    blobstore.Store
	maxBytes int64
}

func NewUploadService(store blobstore.Store, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

func (s *UploadService) check(f UploadFile) error {
	ext := strings.ToLower(path.Ext(f.Name))
	if !allowedImageExts[ext] {
		return models.NewValidationError(fmt.Sprintf("%s: only jpg, jpeg and png images are allowed", f.Name))
	}
	if s.maxBytes > 0 && f.Size > s.maxBytes {
		return models.NewValidationError(fmt.Sprintf("%s: file exceeds %d MB", f.Name, s.maxBytes>>20))
	}
	return nil
}

func (s *UploadService) put(ctx context.Context, f UploadFile) (*blobstore.Object, error) {
	r, err := f.Open()
	if err != nil {
		return nil, models.NewValidationError("could not read " + f.Name)
	}
	defer func() { _ = r.Close() }()

	obj, err := s.store.Upload(ctx, r, f.Name)
	if err != nil {
		return nil, models.NewExternalError("blobstore", err)
	}
	return obj, nil
}

// UploadSingle stores one image.
func (s *UploadService) UploadSingle(ctx context.Context, f UploadFile) (*blobstore.Object, error) {
	if err := s.check(f); err != nil {
		return nil, err
	}
	return s.put(ctx, f)
}

// UploadMultiple stores up to MaxUploadFiles images. Every file is checked
// before any is uploaded.
func (s *UploadService) UploadMultiple(ctx context.Context, files []UploadFile) ([]*blobstore.Object, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("no files uploaded")
	}
	if len(files) > MaxUploadFiles {
		return nil, models.NewValidationError(fmt.Sprintf("at most %d files per upload", MaxUploadFiles))
	}
	for _, f := range files {
		if err := s.check(f); err != nil {
			return nil, err
		}
	}
	out := make([]*blobstore.Object, 0, len(files))
	for _, f := range files {
		obj, err := s.put(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}
