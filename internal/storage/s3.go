package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Storage keeps tokens as JSON objects. It does not hold authorization
// requests: an object store has no atomic take.
type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &S3Storage{
		client: client,
		bucket: bucket,
	}, nil
}

func tokenObject(subject string) string {
	return fmt.Sprintf("tokens/%s.json", url.PathEscape(subject))
}

func (s *S3Storage) SaveToken(ctx context.Context, subject string, tok models.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, tokenObject(subject), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to save token to S3: %w", err)
	}
	return nil
}

func (s *S3Storage) GetToken(ctx context.Context, subject string) (*models.Token, error) {
	object, err := s.client.GetObject(ctx, s.bucket, tokenObject(subject), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get token from S3: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token data: %w", err)
	}

	var tok models.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &tok, nil
}

func (s *S3Storage) DeleteToken(ctx context.Context, subject string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, tokenObject(subject), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete token from S3: %w", err)
	}
	return nil
}
