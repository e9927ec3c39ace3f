package firebase

import (
	"context"
	"io"
)

// StorageClient abstracts Firebase Storage operations for dependency injection and testing.
type StorageClient interface {
	UploadAvatar(ctx context.Context, file io.Reader, telegramID int64, filename, contentType string) (string, error)
	ImportAvatar(ctx context.Context, imageURL string, telegramID int64) (string, error)
	DeleteFile(ctx context.Context, objectPath string) error
}

// FirebaseStorageClient is the real implementation that delegates to package-level functions.
type FirebaseStorageClient struct{}

func NewStorageClient() StorageClient {
	return &FirebaseStorageClient{}
}

func (f *FirebaseStorageClient) UploadAvatar(ctx context.Context, file io.Reader, telegramID int64, filename, contentType string) (string, error) {
	return UploadAvatar(ctx, file, telegramID, filename, contentType)
}

func (f *FirebaseStorageClient) ImportAvatar(ctx context.Context, imageURL string, telegramID int64) (string, error) {
	return ImportAvatar(ctx, imageURL, telegramID)
}

func (f *FirebaseStorageClient) DeleteFile(ctx context.Context, objectPath string) error {
	return DeleteFile(ctx, objectPath)
}
