package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type mockStorage struct {
	mu sync.Mutex

	UploadAvatarFn  func(file io.Reader, telegramID int64, filename, contentType string) (string, error)
	ImportAvatarFn  func(imageURL string, telegramID int64) (string, error)
	DeleteFileFn    func(objectPath string) error
	DeleteFileCalls []string
	UploadCallCount int
	ImportedURLs    []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		DeleteFileCalls: []string{},
	}
}

func (m *mockStorage) UploadAvatar(_ context.Context, file io.Reader, telegramID int64, filename, contentType string) (string, error) {
	m.mu.Lock()
	m.UploadCallCount++
	m.mu.Unlock()
	if m.UploadAvatarFn != nil {
		return m.UploadAvatarFn(file, telegramID, filename, contentType)
	}
	return fmt.Sprintf("https://storage.googleapis.com/test-bucket/avatars/%d/%s", telegramID, filename), nil
}

func (m *mockStorage) ImportAvatar(_ context.Context, imageURL string, telegramID int64) (string, error) {
	m.mu.Lock()
	m.ImportedURLs = append(m.ImportedURLs, imageURL)
	m.mu.Unlock()
	if m.ImportAvatarFn != nil {
		return m.ImportAvatarFn(imageURL, telegramID)
	}
	return fmt.Sprintf("https://storage.googleapis.com/test-bucket/avatars/%d/telegram.jpg", telegramID), nil
}

func (m *mockStorage) DeleteFile(_ context.Context, objectPath string) error {
	m.mu.Lock()
	m.DeleteFileCalls = append(m.DeleteFileCalls, objectPath)
	m.mu.Unlock()
	if m.DeleteFileFn != nil {
		return m.DeleteFileFn(objectPath)
	}
	return nil
}
