package compliance

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"wathaci/internal/domain"
	"wathaci/pkg/zip"
)

// MaxDocumentBytes caps a single uploaded document.
const MaxDocumentBytes = 10 << 20

var allowedMIME = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// Upload is one file received from a multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

// AddDocument stores evidence against a task the user owns. The content type
// is sniffed from the bytes rather than trusted from the client.
func (s *Service) AddDocument(ctx context.Context, userID, taskID string, up Upload) (*domain.ComplianceDocument, error) {
	if s.files == nil {
		return nil, fmt.Errorf("document storage: %w", domain.ErrProviderDisabled)
	}
	if len(up.Data) == 0 {
		return nil, domain.NewValidationError("file", "is required")
	}
	if len(up.Data) > MaxDocumentBytes {
		return nil, domain.NewValidationError("file", "must be at most 10 MiB")
	}
	mime := strings.SplitN(http.DetectContentType(up.Data), ";", 2)[0]
	ext, ok := allowedMIME[mime]
	if !ok {
		return nil, domain.NewValidationError("file", "must be a PDF, PNG or JPEG")
	}
	if _, err := s.repo.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}

	name := cleanFilename(up.Filename, ext)
	key := path.Join("compliance", userID, taskID, uuid.NewString()+ext)
	stored, err := s.files.Write(ctx, key, up.Data)
	if err != nil {
		return nil, err
	}
	doc, err := s.repo.AddDocument(ctx, &domain.ComplianceDocument{
		TaskID:     taskID,
		UserID:     userID,
		Filename:   name,
		MIME:       mime,
		StorageKey: stored,
		Bytes:      int64(len(up.Data)),
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, stored); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", stored).Msg("compliance: remove orphaned document")
		}
		return nil, err
	}
	return doc, nil
}

// Documents lists the documents of a task.
func (s *Service) Documents(ctx context.Context, userID, taskID string) ([]domain.ComplianceDocument, error) {
	if _, err := s.repo.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, userID, taskID)
}

// Archive bundles every document of a task into a zip. A task without
// documents yields domain.ErrNotFound.
func (s *Service) Archive(ctx context.Context, userID, taskID string) ([]byte, string, error) {
	if s.files == nil {
		return nil, "", fmt.Errorf("document storage: %w", domain.ErrProviderDisabled)
	}
	task, err := s.repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, "", err
	}
	docs, err := s.repo.ListDocuments(ctx, userID, taskID)
	if err != nil {
		return nil, "", err
	}
	if len(docs) == 0 {
		return nil, "", domain.ErrNotFound
	}
	entries := make([]zip.Entry, 0, len(docs))
	for _, doc := range docs {
		data, err := s.files.Read(ctx, doc.StorageKey)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", doc.Filename, err)
		}
		entries = append(entries, zip.Entry{Filename: doc.Filename, Data: data, Modified: doc.CreatedAt})
	}
	archive, err := zip.Archive(entries)
	if err != nil {
		return nil, "", err
	}
	return archive, slug(task.Title) + "-documents.zip", nil
}

func cleanFilename(name, ext string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	if path.Ext(name) == "" {
		name += ext
	}
	if len(name) > 120 {
		name = name[len(name)-120:]
	}
	return name
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "task"
	}
	return out
}
