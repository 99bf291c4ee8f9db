package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/internal/utils"
)

var AllowImage = []string{".jpg", ".jpeg", ".png", ".webp"}

var (
	ErrFileTypeNotAllowed = fmt.Errorf("%w: file type not allowed", domain.ErrValidation)
	ErrStorageDisabled    = fmt.Errorf("%w: file storage is not configured", domain.ErrInternal)
)

type (
	AwsS3 interface {
		UploadFile(ctx context.Context, name string, file *multipart.FileHeader, folder string, allowed ...string) (string, error)
		DeleteFile(ctx context.Context, objectKey string) error
		GetPublicLinkKey(objectKey string) string
		GetObjectKeyFromLink(link string) string
	}

	awsS3 struct {
		client *s3.Client
		bucket string
		region string
	}
)

// NewAwsS3 builds the client from AWS_* config. Static keys win over the
// default credential chain when both are set.
func NewAwsS3() AwsS3 {
	bucket := utils.GetConfig("AWS_S3_BUCKET")
	region := utils.GetConfigOr("AWS_S3_REGION", "ap-southeast-1")

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if key, secret := utils.GetConfig("AWS_ACCESS_KEY"), utils.GetConfig("AWS_SECRET_KEY"); key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		log.Errorf("aws config not loaded, uploads disabled: %v", err)
		return &awsS3{bucket: bucket, region: region}
	}

	return &awsS3{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}
}

func (a *awsS3) UploadFile(ctx context.Context, name string, file *multipart.FileHeader, folder string, allowed ...string) (string, error) {
	if a.client == nil || a.bucket == "" {
		return "", ErrStorageDisabled
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(allowed) > 0 && !contains(allowed, ext) {
		return "", ErrFileTypeNotAllowed
	}

	src, err := file.Open()
	if err != nil {
		return "", domain.Internal(err)
	}
	defer src.Close()

	objectKey := fmt.Sprintf("%s/%s%s", folder, name, ext)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(objectKey),
		Body:          src,
		ContentLength: aws.Int64(file.Size),
		ContentType:   aws.String(file.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", domain.Internal(err)
	}
	return objectKey, nil
}

func (a *awsS3) DeleteFile(ctx context.Context, objectKey string) error {
	if a.client == nil || a.bucket == "" {
		return ErrStorageDisabled
	}
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return domain.Internal(err)
	}
	return nil
}

func (a *awsS3) GetPublicLinkKey(objectKey string) string {
	return fmt.Sprintf("%s/%s", a.baseURL(), objectKey)
}

func (a *awsS3) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, a.baseURL()+"/")
}

func (a *awsS3) baseURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", a.bucket, a.region)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
