package util

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
)

// SniffMimeType 按内容头部判断类型，allowedTypes 为前缀或完整类型，如 "audio/"
func SniffMimeType(data []byte, allowedTypes []string) (string, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mimeType := http.DetectContentType(head)

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

// LooksLikeJSON 供应商出错时常返回 JSON 错误体而非音频
func LooksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
