package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

const maxUploadFilename = 255

type uploadService struct {
	store ports.UploadStore
	log   zerolog.Logger
}

func NewUploadService(store ports.UploadStore, log zerolog.Logger) ports.UploadService {
	return &uploadService{store: store, log: log}
}

// Upload stores an attachment. Only admins attach files.
func (s *uploadService) Upload(ctx context.Context, sess domain.Session, filename, contentType string, r io.Reader) (*domain.Upload, error) {
	if !sess.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, domain.Invalid("file name is required")
	}
	if len(name) > maxUploadFilename {
		return nil, domain.Invalid("file name is too long")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	up, err := s.store.Save(ctx, &domain.Upload{
		Filename:    name,
		ContentType: contentType,
		UploadedBy:  sess.UserID,
		CreatedAt:   time.Now().UTC(),
	}, r)
	if err != nil {
		return nil, domain.Wrap(err, "could not store file")
	}
	up.URL = "/v1/uploads/" + up.ID

	s.log.Info().Str("upload_id", up.ID).Str("filename", name).Int64("size", up.Size).Msg("file uploaded")
	return up, nil
}

func (s *uploadService) Open(ctx context.Context, id string) (*domain.Upload, io.ReadCloser, error) {
	up, rc, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, nil, domain.Wrap(err, "could not open file")
	}
	up.URL = "/v1/uploads/" + up.ID
	return up, rc, nil
}
