package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/hyperterse/hyperbench/core/logger"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// AzureConfig configures the Azure Blob backend. Authentication is tried
// in order: connection string, SAS token, shared key, managed identity.
type AzureConfig struct {
	ConnectionString   string `json:"connection_string" mapstructure:"connection_string"`
	AccountName        string `json:"account_name" mapstructure:"account_name"`
	AccountKey         string `json:"account_key" mapstructure:"account_key"`
	SASToken           string `json:"sas_token" mapstructure:"sas_token"`
	UseManagedIdentity bool   `json:"use_managed_identity" mapstructure:"use_managed_identity"`
	Container          string `json:"container" mapstructure:"container"`
	Prefix             string `json:"prefix" mapstructure:"prefix"`
	// Endpoint overrides the account URL (Azurite)
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
}

// AzureBackend uploads artifacts to an Azure Blob Storage container
type AzureBackend struct {
	client    *azblob.Client
	container string
	prefix    string
	log       logger.Logger
}

// NewAzureBackend creates an Azure Blob backend
func NewAzureBackend(_ context.Context, cfg AzureConfig) (*AzureBackend, error) {
	if cfg.Container == "" {
		return nil, apperrors.NewConfigurationError("Azure container name is required", "storage.azure.container")
	}

	log := logger.New("storage:azure")
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountName != "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	}

	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountName != "" && cfg.SASToken != "":
		serviceURL := fmt.Sprintf("%s?%s", endpoint, strings.TrimPrefix(cfg.SASToken, "?"))
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	case cfg.AccountName != "" && cfg.AccountKey != "":
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", credErr)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	case cfg.UseManagedIdentity && cfg.AccountName != "":
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create managed identity credential: %w", credErr)
		}
		client, err = azblob.NewClient(endpoint, cred, nil)
	default:
		return nil, apperrors.NewConfigurationError(
			"no Azure authentication configured; provide connection_string, account_name with account_key or sas_token, or use_managed_identity",
			"storage.azure")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
	}

	return &AzureBackend{
		client:    client,
		container: cfg.Container,
		prefix:    cfg.Prefix,
		log:       log,
	}, nil
}

// Write uploads data as a block blob
func (b *AzureBackend) Write(ctx context.Context, path string, data []byte) error {
	ct := contentType(path)
	_, err := b.client.UploadStream(ctx, b.container, joinKey(b.prefix, path), bytes.NewReader(data), &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return fmt.Errorf("failed to write to Azure Blob Storage: %w", err)
	}
	b.log.Debugf("Wrote %s (%d bytes)", b.Location(path), len(data))
	return nil
}

// Read downloads the blob at path
func (b *AzureBackend) Read(ctx context.Context, path string) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, joinKey(b.prefix, path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read from Azure Blob Storage: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Exists checks the blob's properties
func (b *AzureBackend) Exists(ctx context.Context, path string) (bool, error) {
	blobClient := b.client.ServiceClient().NewContainerClient(b.container).NewBlobClient(joinKey(b.prefix, path))
	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check Azure blob existence: %w", err)
	}
	return true, nil
}

// Location returns the container-relative blob name
func (b *AzureBackend) Location(path string) string {
	return fmt.Sprintf("azblob://%s/%s", b.container, joinKey(b.prefix, path))
}

func (b *AzureBackend) Type() string { return TypeAzure }

func (b *AzureBackend) Close() error { return nil }
