package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

const bucketUploads = "uploads"

// UploadStore keeps attachments in a GridFS bucket. Metadata travels in the
// GridFS file document.
type UploadStore struct {
	bucket *gridfs.Bucket
}

func NewUploadStore(db *mongo.Database) (*UploadStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketUploads))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &UploadStore{bucket: bucket}, nil
}

type uploadMetadata struct {
	ContentType string `bson:"content_type"`
	UploadedBy  string `bson:"uploaded_by"`
}

type gridFile struct {
	ID         primitive.ObjectID `bson:"_id"`
	Length     int64              `bson:"length"`
	UploadDate time.Time          `bson:"uploadDate"`
	Filename   string             `bson:"filename"`
	Metadata   uploadMetadata     `bson:"metadata"`
}

func (s *UploadStore) Save(ctx context.Context, up *domain.Upload, r io.Reader) (*domain.Upload, error) {
	opts := options.GridFSUpload().SetMetadata(uploadMetadata{
		ContentType: up.ContentType,
		UploadedBy:  up.UploadedBy,
	})

	stream, err := s.bucket.OpenUploadStream(up.Filename, opts)
	if err != nil {
		return nil, fmt.Errorf("open upload stream: %w", err)
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	n, err := io.Copy(stream, r)
	if err != nil {
		_ = stream.Abort()
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("finish upload: %w", err)
	}

	out := *up
	out.ID = stream.FileID.(primitive.ObjectID).Hex()
	out.Size = n
	return &out, nil
}

func (s *UploadStore) Open(ctx context.Context, id string) (*domain.Upload, io.ReadCloser, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil, domain.ErrUploadNotFound
	}

	cur, err := s.bucket.FindContext(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, nil, fmt.Errorf("find upload: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return nil, nil, domain.ErrUploadNotFound
	}
	var f gridFile
	if err := cur.Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("decode upload: %w", err)
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.ErrUploadNotFound
		}
		return nil, nil, fmt.Errorf("open download stream: %w", err)
	}

	return &domain.Upload{
		ID:          f.ID.Hex(),
		Filename:    f.Filename,
		ContentType: f.Metadata.ContentType,
		Size:        f.Length,
		UploadedBy:  f.Metadata.UploadedBy,
		CreatedAt:   f.UploadDate.UTC(),
	}, stream, nil
}
