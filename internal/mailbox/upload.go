package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/modernmail/mmail/internal/model"
)

// uploadFile is one entry of the POST /upload/multiple request body.
type uploadFile struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// UploadAttachments reads the given local files and uploads them in one
// request, returning the stored attachment records to reference from a
// draft or send payload. A local read error surfaces before any network
// call.
func (s *Store) UploadAttachments(ctx context.Context, paths []string) ([]model.Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	files := make([]uploadFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %s: %w", path, err)
		}

		name := filepath.Base(path)
		fileType := mime.TypeByExtension(filepath.Ext(name))
		if fileType == "" {
			fileType = "application/octet-stream"
		}

		files = append(files, uploadFile{
			FileData: base64.StdEncoding.EncodeToString(data),
			FileName: name,
			FileType: fileType,
		})
	}

	body := struct {
		Files []uploadFile `json:"files"`
	}{Files: files}
	var result struct {
		Files []model.Attachment `json:"files"`
	}

	if err := s.api.Post(ctx, "/upload/multiple", body, &result); err != nil {
		return nil, userError(err, msgUploadFailed)
	}

	s.log.Debug().Int("count", len(result.Files)).Msg("attachments uploaded")
	return result.Files, nil
}
