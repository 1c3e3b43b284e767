// Package storage provides blob storage for uploaded document bytes,
// backed by Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/docai/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates a storage system from the given configuration.
// It creates the Azure client from the connection string, or from the service URL
// and DefaultAzureCredential, but does not contact the service until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage"),
	}, nil
}

// uploadConcurrency bounds parallel block uploads per blob.
const uploadConcurrency = 4

// Start ensures the container exists. An existing container is not an error.
func (a *azure) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("storage", func(ctx context.Context) error {
		_, err := a.client.CreateContainer(ctx, a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("storage container initialization failed", "error", err)
			return fmt.Errorf("create container %s: %w", a.container, err)
		}
		a.logger.Info("storage container ready", "container", a.container)
		return nil
	})
	return nil
}

func (a *azure) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := a.client.UploadStream(ctx, a.container, key, reader, &azblob.UploadStreamOptions{
		Concurrency: uploadConcurrency,
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	return mapError("upload", key, err)
}

func (a *azure) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		return nil, mapError("download", key, err)
	}
	return resp.Body, nil
}

// Delete removes the blob together with any snapshots.
func (a *azure) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := a.client.DeleteBlob(ctx, a.container, key, &azblob.DeleteBlobOptions{
		DeleteSnapshots: to.Ptr(blob.DeleteSnapshotsOptionTypeInclude),
	})
	return mapError("delete", key, err)
}

func mapError(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%s blob %s: %w", op, key, err)
	}
}

func newClient(cfg *Config) (*azblob.Client, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: 3},
		},
	}

	if !cfg.UsesCredential() {
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve azure credential: %w", err)
	}

	return azblob.NewClient(cfg.ServiceURL, cred, opts)
}
