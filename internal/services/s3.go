package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"calclik-event-scanner/internal/models"
)

// SnapshotStore persists scan results as JSON objects in S3: one
// timestamped object per scan plus a rolling "latest" object. The extraction
// core never touches it; persistence is a concern of the commands.
type SnapshotStore struct {
	client *s3.Client
	bucket string
	region string
}

// SnapshotUploadResult describes one completed upload.
type SnapshotUploadResult struct {
	Key        string    `json:"key"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	PublicURL  string    `json:"public_url"`
}

const latestSnapshotKey = "scans/latest.json"

// NewSnapshotStore creates a snapshot store. The bucket comes from the
// argument or the S3_BUCKET_NAME environment variable.
func NewSnapshotStore(ctx context.Context, bucket string) (*SnapshotStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if bucket == "" {
		bucket = os.Getenv("S3_BUCKET_NAME")
	}
	if bucket == "" {
		return nil, fmt.Errorf("snapshot bucket not configured")
	}

	return &SnapshotStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: cfg.Region,
	}, nil
}

// UploadScanResult stores a scan result under a timestamped key and
// refreshes the latest snapshot.
func (s *SnapshotStore) UploadScanResult(ctx context.Context, result *models.ScanResult) (*SnapshotUploadResult, error) {
	if result == nil {
		return nil, fmt.Errorf("scan result is nil")
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan result: %w", err)
	}

	key := fmt.Sprintf("scans/%s/%s.json", result.ScannedAt.UTC().Format("2006-01-02"), result.ScanID)

	uploaded, err := s.uploadJSON(ctx, jsonData, key)
	if err != nil {
		return nil, err
	}

	if _, err := s.uploadJSON(ctx, jsonData, latestSnapshotKey); err != nil {
		return nil, fmt.Errorf("failed to refresh latest snapshot: %w", err)
	}

	return uploaded, nil
}

// DownloadLatest fetches the most recent scan result snapshot.
func (s *SnapshotStore) DownloadLatest(ctx context.Context) (*models.ScanResult, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(latestSnapshotKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	var result models.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse latest snapshot: %w", err)
	}

	return &result, nil
}

// Bucket returns the configured bucket name.
func (s *SnapshotStore) Bucket() string {
	return s.bucket
}

func (s *SnapshotStore) uploadJSON(ctx context.Context, jsonData []byte, key string) (*SnapshotUploadResult, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	etag := ""
	if out.ETag != nil {
		etag = *out.ETag
	}

	return &SnapshotUploadResult{
		Key:        key,
		ETag:       etag,
		Size:       int64(len(jsonData)),
		UploadedAt: time.Now(),
		PublicURL:  fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
	}, nil
}
