// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/config"
)

// LocalURLPrefix is the route prefix under which locally stored files are served.
const LocalURLPrefix = "/uploads"

// StorageService stores uploaded images in S3 when credentials are configured
// and on local disk otherwise. Callers only ever keep the returned URL.
type StorageService struct {
	s3Client *s3.S3
	aws      config.AWSConfig
	upload   config.UploadConfig
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	service := &StorageService{aws: cfg.AWS, upload: cfg.Upload}

	if cfg.AWS.AccessKeyID == "" {
		if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		logrus.WithField("dir", cfg.Upload.Dir).Info("Storing uploads on local disk")
		return service, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	service.s3Client = s3.New(sess)
	logrus.WithField("bucket", cfg.AWS.S3Bucket).Info("Storing uploads in S3")
	return service, nil
}

// ImageOptions returns the upload rules for catalog images in folder.
func (s *StorageService) ImageOptions(folder string) UploadOptions {
	return UploadOptions{
		Folder:       folder,
		MaxSize:      s.upload.MaxSize,
		AllowedTypes: imageTypes,
		IsPublic:     true,
	}
}

// MaxFiles is the number of files accepted in one request.
func (s *StorageService) MaxFiles() int {
	return s.upload.MaxFiles
}

func (s *StorageService) UploadFile(ctx context.Context, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, validationError(
			fmt.Sprintf("File %s exceeds the maximum size of %d bytes", header.Filename, options.MaxSize), nil)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// The content decides the type, not the client's file name or header.
	detected := mimetype.Detect(fileBytes)
	if len(options.AllowedTypes) > 0 && !mimetype.EqualsAny(detected.String(), options.AllowedTypes...) {
		return nil, validationError(
			fmt.Sprintf("File %s has unsupported type %s", header.Filename, detected.String()), nil)
	}

	key := s.generateKey(header.Filename, detected.Extension(), options.Folder)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, fileBytes, key, detected.String(), options.IsPublic)
	}
	return s.uploadToLocal(fileBytes, key, detected.String())
}

// UploadImages stores every file and returns their URLs in order. Files
// stored before a failure are removed again.
func (s *StorageService) UploadImages(ctx context.Context, headers []*multipart.FileHeader, folder string) ([]string, error) {
	if limit := s.MaxFiles(); limit > 0 && len(headers) > limit {
		return nil, validationError(fmt.Sprintf("At most %d files can be uploaded at once", limit), nil)
	}

	options := s.ImageOptions(folder)
	urls := make([]string, 0, len(headers))
	for _, header := range headers {
		result, err := s.UploadFile(ctx, header, options)
		if err != nil {
			for _, url := range urls {
				if derr := s.DeleteByURL(ctx, url); derr != nil {
					logrus.WithError(derr).WithField("url", url).Warn("Failed to remove partial upload")
				}
			}
			return nil, err
		}
		urls = append(urls, result.URL)
	}
	return urls, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string, isPublic bool) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if isPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	target := filepath.Join(s.upload.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload folder: %w", err)
	}
	if err := os.WriteFile(target, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &UploadResult{
		URL:      path.Join(LocalURLPrefix, key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		target := filepath.Join(s.upload.Dir, filepath.FromSlash(key))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// DeleteByURL removes a file previously returned by UploadFile. URLs this
// service did not issue are ignored.
func (s *StorageService) DeleteByURL(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return nil
	}
	return s.DeleteFile(ctx, key)
}

func (s *StorageService) keyFromURL(url string) (string, bool) {
	if s.s3Client == nil {
		key := strings.TrimPrefix(url, LocalURLPrefix+"/")
		if key == url || strings.Contains(key, "..") {
			return "", false
		}
		return key, true
	}

	prefix := s.getS3URL("")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *StorageService) generateKey(originalName, detectedExt, folder string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if detectedExt != "" {
		ext = detectedExt
	}

	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.aws.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.aws.S3Bucket, s.aws.Region, key)
}
