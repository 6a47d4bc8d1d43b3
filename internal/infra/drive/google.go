// Package drive implements the provider file-listing services. Only file
// metadata crosses this package; content download is out of scope.
package drive

import (
	"context"
	"strings"
	"time"

	"briefly/internal/domain/entity"
	"briefly/internal/domain/service"
	"briefly/internal/errors"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"golang.org/x/oauth2"
)

const defaultListLimit = 50

// googleDocumentQuery restricts listing to document-like files the chat
// pipeline can ingest.
const googleDocumentQuery = "(mimeType='application/vnd.google-apps.document'" +
	" or mimeType='application/pdf'" +
	" or mimeType='text/plain'" +
	" or mimeType='application/vnd.openxmlformats-officedocument.wordprocessingml.document')" +
	" and trashed=false"

type googleLister struct{}

// NewGoogleLister creates the Google Drive file lister.
func NewGoogleLister() service.DriveLister {
	return &googleLister{}
}

func (l *googleLister) Provider() entity.ProviderType {
	return entity.ProviderGoogle
}

// ListDocuments queries the Drive API with the caller's access token.
func (l *googleLister) ListDocuments(ctx context.Context, accessToken string, limit int) ([]*entity.DriveFile, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gdrive.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create drive service")
	}

	list, err := svc.Files.List().
		Q(googleDocumentQuery).
		PageSize(int64(limit)).
		OrderBy("modifiedTime desc").
		Fields("files(id, name, mimeType, size, modifiedTime, webViewLink)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "drive file listing failed")
	}

	files := make([]*entity.DriveFile, 0, len(list.Files))
	for _, f := range list.Files {
		modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
		files = append(files, &entity.DriveFile{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			SizeBytes:   f.Size,
			ModifiedAt:  modified,
			WebViewLink: f.WebViewLink,
		})
	}

	return files, nil
}

// isDocumentMime reports whether a MIME type is one the chat pipeline ingests.
// Shared by the Graph lister, which cannot filter server-side by MIME.
func isDocumentMime(mimeType string) bool {
	switch {
	case mimeType == "application/pdf",
		mimeType == "text/plain",
		mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		strings.HasPrefix(mimeType, "application/vnd.google-apps.document"):
		return true
	default:
		return false
	}
}
