package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	BucketCovers = "covers"
	BucketBooks  = "books"
)

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveUpload writes the uploaded bytes under <base>/<bucket>/ with a random
// filename keeping the original extension and returns the stable relative
// path the API stores and serves ("/uploads/<bucket>/<name>"). The file
// bytes are never interpreted.
func SaveUpload(base, bucket, originalFilename string, body io.Reader) (string, error) {
	bucketPath, err := EnsureStoragePath(base, bucket)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalFilename))
	targetPath := filepath.Join(bucketPath, name)

	file, err := os.Create(targetPath)
	if err != nil {
		return "", err
	}
	size, err := io.Copy(file, body)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return "", err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return "", ErrBadRequest("Uploaded file is empty")
	}
	return "/uploads/" + bucket + "/" + name, nil
}

// FileTypeFromName derives the stored fileType from an uploaded filename
// ("pdf", "epub", ...), empty when the name has no extension.
func FileTypeFromName(originalFilename string) string {
	ext := strings.TrimPrefix(filepath.Ext(originalFilename), ".")
	return strings.ToLower(ext)
}
