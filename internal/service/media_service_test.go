package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/primepath/primepath-backend/internal/config"
)

// formFile builds a multipart upload the way a browser would send it.
func formFile(t *testing.T, contentType string, body []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(body)
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	header := form.File["file"][0]
	f, err := header.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, header
}

func TestMediaSaveUpload(t *testing.T) {
	dir := t.TempDir()
	s := NewMediaService(&config.Config{UploadDir: dir, MaxUploadBytes: 1024})

	f, h := formFile(t, "application/pdf", []byte("%PDF-1.7 test"))
	path, err := s.SaveUpload(f, h, MediaPDF)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if !strings.HasPrefix(path, "/uploads/pdf/") || !strings.HasSuffix(path, ".pdf") {
		t.Fatalf("path = %q", path)
	}
	data, err := os.ReadFile(filepath.Join(dir, "pdf", filepath.Base(path)))
	if err != nil || string(data) != "%PDF-1.7 test" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	if err := s.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pdf", filepath.Base(path))); !os.IsNotExist(err) {
		t.Fatalf("file still present after Remove: %v", err)
	}
}

func TestMediaSaveUploadRejects(t *testing.T) {
	s := NewMediaService(&config.Config{UploadDir: t.TempDir(), MaxUploadBytes: 8})

	f, h := formFile(t, "image/png", []byte("png"))
	if _, err := s.SaveUpload(f, h, MediaPDF); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("png as pdf err = %v", err)
	}

	f, h = formFile(t, "audio/mpeg", bytes.Repeat([]byte("a"), 64))
	if _, err := s.SaveUpload(f, h, MediaAudio); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("oversized audio err = %v", err)
	}
}

func TestMediaRemoveIgnoresForeignPaths(t *testing.T) {
	s := NewMediaService(&config.Config{UploadDir: t.TempDir()})
	for _, p := range []string{"", "/etc/passwd", "/uploads/../secret"} {
		if err := s.Remove(p); err != nil {
			t.Fatalf("Remove(%q) = %v", p, err)
		}
	}
}

// brokenUpload returns a few bytes and then fails, like a dropped client connection.
type brokenUpload struct {
	multipart.File
	sent bool
}

func (b *brokenUpload) Read(p []byte) (int, error) {
	if b.sent {
		return 0, errors.New("connection reset by peer")
	}
	b.sent = true
	return copy(p, "%PDF-1.7"), nil
}

func TestMediaSaveUploadLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	s := NewMediaService(&config.Config{UploadDir: dir, MaxUploadBytes: 16})
	header := func(size int64) *multipart.FileHeader {
		return &multipart.FileHeader{
			Filename: "paper.pdf",
			Size:     size,
			Header:   textproto.MIMEHeader{"Content-Type": {"application/pdf"}},
		}
	}

	if _, err := s.SaveUpload(&brokenUpload{}, header(8), MediaPDF); err == nil {
		t.Fatal("interrupted upload succeeded")
	}

	// The declared size is client supplied and may understate the body.
	f, _ := formFile(t, "application/pdf", bytes.Repeat([]byte("p"), 64))
	if _, err := s.SaveUpload(f, header(4), MediaPDF); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("understated size err = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "pdf"))
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("upload dir holds %d leftover files", len(entries))
	}
}
