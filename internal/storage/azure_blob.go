package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AzureBlobStorage stores document blobs in an Azure Blob Storage container
type AzureBlobStorage struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewAzureBlobStorage connects to Azure Blob Storage and ensures the
// container exists.
func NewAzureBlobStorage(connectionString, containerName string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	_, err = client.CreateContainer(context.Background(), containerName, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Azure blob storage initialized", zap.String("container", containerName))
	return &AzureBlobStorage{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// Save uploads the stream under a unique blob name and returns that name
func (s *AzureBlobStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	blobName := fmt.Sprintf("%s_%s", uuid.New().String(), sanitize(filename))

	if _, err := s.client.UploadStream(ctx, s.containerName, blobName, r, nil); err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Debug("blob uploaded",
		zap.String("blobName", blobName),
		zap.String("container", s.containerName),
	)
	return blobName, nil
}

func (s *AzureBlobStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.containerName, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

func (s *AzureBlobStorage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteBlob(ctx, s.containerName, path, nil)
	if err != nil {
		// A missing blob is already in the desired state
		if strings.Contains(err.Error(), "BlobNotFound") {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
