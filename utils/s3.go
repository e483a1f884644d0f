package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Uploader stores food photos and returns their public URL.
type S3Uploader struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewS3Uploader serves URLs from publicBase (CloudFront) when set, otherwise
// from the bucket's virtual-hosted endpoint.
func NewS3Uploader(cfg aws.Config, bucket, publicBase string) *S3Uploader {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return &S3Uploader{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// UploadDataURI uploads a base64 data URI under food-photos/.
func (u *S3Uploader) UploadDataURI(ctx context.Context, dataURI, prefix string) (string, error) {
	imageData, contentType, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("food-photos/%s-%d%s", prefix, time.Now().UnixNano(), ImageExt(contentType))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("%s/%s", u.publicBase, key), nil
}
