package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/config"
)

// MediaKind selects which file types an upload accepts and where it is stored.
type MediaKind string

const (
	MediaPDF   MediaKind = "pdf"
	MediaAudio MediaKind = "audio"
)

var allowedMIMETypes = map[MediaKind]map[string]string{
	MediaPDF: {
		"application/pdf": ".pdf",
	},
	MediaAudio: {
		"audio/mpeg":  ".mp3",
		"audio/mp3":   ".mp3",
		"audio/wav":   ".wav",
		"audio/x-wav": ".wav",
		"audio/ogg":   ".ogg",
		"audio/mp4":   ".m4a",
		"audio/x-m4a": ".m4a",
		"audio/webm":  ".webm",
	},
}

// MediaService stores uploaded exam papers and listening clips on local disk.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// SaveUpload saves an uploaded file under UploadDir/<kind>/ with a UUID filename
// and returns its public path.
func (s *MediaService) SaveUpload(file multipart.File, header *multipart.FileHeader, kind MediaKind) (string, error) {
	types, ok := allowedMIMETypes[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown media kind %q", ErrUnsupportedFileType, kind)
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0]))
	ext, ok := types[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(kind), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	dir := filepath.Join(s.cfg.UploadDir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	// Size from the header is client supplied; cap what is actually written.
	n, err := io.Copy(dst, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	switch {
	case err != nil:
		err = fmt.Errorf("write file: %w", err)
	case n > s.cfg.MaxUploadBytes:
		err = fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}

	return "/uploads/" + string(kind) + "/" + filename, nil
}

// Remove deletes a file previously returned by SaveUpload. Unknown paths are ignored.
func (s *MediaService) Remove(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, "/uploads/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.cfg.UploadDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func allowedTypes(kind MediaKind) []string {
	types := make([]string, 0, len(allowedMIMETypes[kind]))
	for t := range allowedMIMETypes[kind] {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
