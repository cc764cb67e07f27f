package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// PapersPrefix is the key prefix every archived paper lives under
const PapersPrefix = "papers"

// ArchiveConfig holds configuration for the S3-compatible paper archive
type ArchiveConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	// ForcePathStyle addresses the bucket in the path instead of the host
	ForcePathStyle bool
}

// PaperArchive stores uploaded question papers in object storage
type PaperArchive struct {
	s3Client *s3.S3
	bucket   string
}

// NewPaperArchive creates a new archive client
func NewPaperArchive(config ArchiveConfig) (*PaperArchive, error) {
	if config.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	awsConfig := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.ForcePathStyle),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &PaperArchive{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
	}, nil
}

// BatchPrefix returns the folder holding one batch's papers
func BatchPrefix(batchID string) string {
	return path.Join(PapersPrefix, batchID) + "/"
}

// PaperKey returns papers/<batch-id>/<position>-<file>. position is the
// 1-based upload order, which keeps same-named uploads of one batch apart.
func PaperKey(batchID string, position int, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "paper.pdf"
	}
	return BatchPrefix(batchID) + fmt.Sprintf("%d-%s", position, name)
}

// ArchivePaper uploads one PDF and returns its object key
func (a *PaperArchive) ArchivePaper(ctx context.Context, batchID string, position int, fileName string, content []byte) (string, error) {
	key := PaperKey(batchID, position, fileName)
	_, err := a.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", fileName, err)
	}
	return key, nil
}

// DeleteBatch removes every archived paper of a batch
func (a *PaperArchive) DeleteBatch(ctx context.Context, batchID string) error {
	result, err := a.s3Client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(BatchPrefix(batchID)),
	})
	if err != nil {
		return fmt.Errorf("failed to list batch %s: %w", batchID, err)
	}

	for _, obj := range result.Contents {
		_, err := a.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", aws.StringValue(obj.Key), err)
		}
	}
	return nil
}
