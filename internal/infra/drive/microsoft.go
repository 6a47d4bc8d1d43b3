package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"briefly/internal/domain/entity"
	"briefly/internal/domain/service"
	"briefly/internal/errors"
)

const graphDriveChildrenURL = "https://graph.microsoft.com/v1.0/me/drive/root/children"

type microsoftLister struct {
	httpClient *http.Client
}

// NewMicrosoftLister creates the OneDrive file lister backed by the Graph API.
func NewMicrosoftLister() service.DriveLister {
	return &microsoftLister{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (l *microsoftLister) Provider() entity.ProviderType {
	return entity.ProviderMicrosoft
}

// graphDriveItem is the subset of the Graph driveItem resource we read.
type graphDriveItem struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Size                 int64     `json:"size"`
	WebURL               string    `json:"webUrl"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
	File                 *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
}

// ListDocuments queries the Graph API with the caller's access token. Graph
// cannot filter children by MIME type server-side, so folders and non-document
// files are dropped here.
func (l *microsoftLister) ListDocuments(ctx context.Context, accessToken string, limit int) ([]*entity.DriveFile, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		graphDriveChildrenURL+"?$top="+strconv.Itoa(limit)+"&$orderby=lastModifiedDateTime%20desc", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build drive listing request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "graph drive listing unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

		return nil, errors.Errorf("graph drive listing failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Value []graphDriveItem `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "malformed graph drive listing response")
	}

	files := make([]*entity.DriveFile, 0, len(payload.Value))
	for _, item := range payload.Value {
		if item.File == nil || !isDocumentMime(item.File.MimeType) {
			continue
		}
		files = append(files, &entity.DriveFile{
			ID:          item.ID,
			Name:        item.Name,
			MimeType:    item.File.MimeType,
			SizeBytes:   item.Size,
			ModifiedAt:  item.LastModifiedDateTime,
			WebViewLink: item.WebURL,
		})
	}

	return files, nil
}
