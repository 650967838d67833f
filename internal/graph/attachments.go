package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxInlineAttachmentSize is the largest file Graph accepts as an inline
	// attachment in sendMail or a draft (3MB). Larger files need an upload
	// session.
	MaxInlineAttachmentSize = 3 * 1024 * 1024
)

// LoadAttachments reads files and encodes them as Graph file attachments.
func LoadAttachments(paths []string) ([]Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	attachments := make([]Attachment, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("attachment %s is a directory", path)
		}
		if info.Size() > MaxInlineAttachmentSize {
			return nil, fmt.Errorf("attachment %s is %d bytes, larger than the %d byte inline limit", path, info.Size(), MaxInlineAttachmentSize)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
		}

		attachments = append(attachments, Attachment{
			ODataType:    FileAttachmentType,
			Name:         filepath.Base(path),
			ContentBytes: base64.StdEncoding.EncodeToString(data),
		})
	}
	return attachments, nil
}

// DownloadAttachments writes every file attachment of messageID into dir,
// creating it when needed, and returns the written paths. Item and
// reference attachments carry no content and are skipped.
func (c *Client) DownloadAttachments(ctx context.Context, messageID, dir string) ([]string, error) {
	attachments, err := c.ListAttachments(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	var written []string
	for _, att := range attachments {
		if att.ODataType != FileAttachmentType {
			c.logger.Debug("skipping attachment", "name", att.Name, "type", att.ODataType)
			continue
		}

		data, err := base64.StdEncoding.DecodeString(att.ContentBytes)
		if err != nil {
			return written, fmt.Errorf("failed to decode attachment %s: %w", att.Name, err)
		}

		path := filepath.Join(dir, SanitizeFilename(att.Name))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write attachment %s: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}

// SanitizeFilename turns an attachment name into a safe base filename.
func SanitizeFilename(filename string) string {
	// Remove path separators and other potentially dangerous characters
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == "." {
		return "attachment"
	}
	return filename
}
