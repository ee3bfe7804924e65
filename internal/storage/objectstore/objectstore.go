// Package objectstore keeps roster snapshots as a single object in an
// S3-compatible bucket. The object body is a roster file, compressed
// according to the object name's extension.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aanand-mishra/students-roster/internal/codec"
	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/types"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Object    string
	Secure    bool
}

func (c *Config) validate() error {
	if c.Endpoint == "" || c.AccessKey == "" || c.SecretKey == "" || c.Bucket == "" || c.Object == "" {
		return errors.New("must provide endpoint, access key, secret key, bucket and object")
	}
	return nil
}

// Store implements storage.Storage on one object.
type Store struct {
	client *minio.Client
	bucket string
	object string
}

var _ storage.Storage = (*Store)(nil)

// New creates the client and checks that the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("objectstore.New: %w", err)
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Region: cfg.Region,
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore.New: %w", err)
	}

	found, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("objectstore.New: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("objectstore.New: bucket '%s' doesn't exist", cfg.Bucket)
	}

	return &Store{client: mc, bucket: cfg.Bucket, object: cfg.Object}, nil
}

func encodeSnapshot(object string, students []types.Student) ([]byte, error) {
	var buf bytes.Buffer
	w, err := codec.NewWriter(&buf, codec.CompressionFor(object))
	if err != nil {
		return nil, err
	}
	if err := codec.Encode(w, students); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(object string, r io.Reader) ([]types.Student, error) {
	dr, err := codec.NewReader(r, codec.CompressionFor(object))
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	students, err := codec.DecodeAll(dr)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = make([]types.Student, 0)
	}
	return students, nil
}

// SaveStudents uploads the snapshot, overwriting the previous object.
func (s *Store) SaveStudents(ctx context.Context, students []types.Student) error {
	data, err := encodeSnapshot(s.object, students)
	if err != nil {
		return fmt.Errorf("SaveStudents: encode: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("SaveStudents: put %s: %w", s.object, err)
	}
	return nil
}

// LoadStudents downloads and decodes the snapshot. A missing object is an
// empty snapshot.
func (s *Store) LoadStudents(ctx context.Context) ([]types.Student, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("LoadStudents: get %s: %w", s.object, err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return make([]types.Student, 0), nil
		}
		return nil, fmt.Errorf("LoadStudents: stat %s: %w", s.object, err)
	}

	students, err := decodeSnapshot(s.object, obj)
	if err != nil {
		return nil, fmt.Errorf("LoadStudents: decode %s: %w", s.object, err)
	}
	return students, nil
}

// Close is a no-op; the minio client holds no long-lived connections that
// need releasing.
func (s *Store) Close() error {
	return nil
}
