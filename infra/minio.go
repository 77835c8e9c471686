package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pixvault/pix-image-service/config"
)

type MinioClient struct {
	Admin    *madmin.AdminClient
	Client   *minio.Client
	Endpoint string
	Bucket   string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	madminClient, err := madmin.New(endpoint, rootUser, rootPassword, false)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO admin client: %v", err))
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: false,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	client := &MinioClient{
		Admin:    madminClient,
		Client:   minioClient,
		Endpoint: endpoint,
		Bucket:   cfg.Minio.Bucket,
	}

	if err := client.EnsureBucket(context.Background(), cfg.Minio.Region); err != nil {
		panic(fmt.Sprintf("Failed to ensure MinIO bucket '%s': %v", cfg.Minio.Bucket, err))
	}

	return client
}

// EnsureBucket creates the service bucket when it does not exist yet.
func (m *MinioClient) EnsureBucket(ctx context.Context, region string) error {
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	err = m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{Region: region})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutObject writes data under the given key in the service bucket.
func (m *MinioClient) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s': %w", key, err)
	}
	return nil
}

// GetObject reads the full object under the given key.
func (m *MinioClient) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.Client.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}
	return data, nil
}

// DeleteObject removes the object under the given key.
func (m *MinioClient) DeleteObject(ctx context.Context, key string) error {
	err := m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	return nil
}

// StorageInfo returns cluster-level storage usage from the admin API.
func (m *MinioClient) StorageInfo(ctx context.Context) (madmin.StorageInfo, error) {
	info, err := m.Admin.StorageInfo(ctx)
	if err != nil {
		return madmin.StorageInfo{}, fmt.Errorf("failed to fetch storage info: %w", err)
	}
	return info, nil
}

// DataUsageInfo returns bucket-level usage from the admin API.
func (m *MinioClient) DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error) {
	info, err := m.Admin.DataUsageInfo(ctx)
	if err != nil {
		return madmin.DataUsageInfo{}, fmt.Errorf("failed to fetch data usage info: %w", err)
	}
	return info, nil
}
