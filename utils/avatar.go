package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SaveAvatar writes an uploaded image to uploadDir under a generated name and
// returns the stored filename. Attachment is best-effort metadata; callers
// treat failures as non-fatal.
func SaveAvatar(uploadDir string, file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(uploadDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	ext := filepath.Ext(header.Filename)
	name := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to store avatar: %v", err)
	}
	return name, nil
}
