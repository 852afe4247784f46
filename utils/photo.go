package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfnt/resize"
)

const (
	MaxPhotoSize  = 5 * 1024 * 1024
	maxPhotoWidth = 800
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type PhotoStorage interface {
	// PutPhoto stores a JPEG under name and returns its public URL.
	PutPhoto(ctx context.Context, name string, data []byte) (string, error)
}

type S3PhotoStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewS3PhotoStorage(endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*S3PhotoStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}
	return &S3PhotoStorage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *S3PhotoStorage) PutPhoto(ctx context.Context, name string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.publicURL, name), nil
}

// PhotoObjectName places product photos under products/.
func PhotoObjectName(productID string, now time.Time) string {
	return fmt.Sprintf("products/%s_%d.jpg", productID, now.Unix())
}

// ResizeImage decodes a JPEG or PNG, scales it down to at most 800px wide
// keeping the aspect ratio, and re-encodes it as JPEG.
func ResizeImage(r io.Reader, contentType string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch contentType {
	case "image/png":
		img, err = png.Decode(r)
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxPhotoWidth {
		img = resize.Resize(maxPhotoWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
