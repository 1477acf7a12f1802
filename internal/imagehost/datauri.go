package imagehost

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// EncodeDataURI renders raw file content the way browsers send images.
func EncodeDataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// decodeDataURI parses "data:<type>;base64,<payload>". A bare base64 payload is
// accepted as image/jpeg.
func decodeDataURI(s string) (contentType string, data []byte, err error) {
	payload := s
	contentType = "image/jpeg"

	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, fmt.Errorf("malformed data uri")
		}
		mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
		if !isBase64 {
			return "", nil, fmt.Errorf("data uri must be base64 encoded")
		}
		if mediaType != "" {
			contentType = mediaType
		}
		payload = body
	}

	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty image")
	}
	return contentType, data, nil
}

// extension picks a file extension for contentType, falling back to .bin.
func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
