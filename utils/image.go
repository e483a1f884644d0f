package utils

import (
	"encoding/base64"
	"errors"
	"mime"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// DecodeDataURI splits "data:<mime>;base64,<data>" into bytes and content type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:image") {
		return nil, "", ErrInvalidDataURI
	}
	meta, data, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", ErrInvalidDataURI
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", ErrInvalidDataURI
	}
	if len(raw) == 0 {
		return nil, "", ErrInvalidDataURI
	}
	return raw, contentType, nil
}

// ImageExt picks a file extension for contentType.
func ImageExt(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		return "." + sub
	}
	return ""
}
