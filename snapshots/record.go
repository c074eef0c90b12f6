package snapshots

import (
	"regexp"
	"strings"
)

// Content hashes become object names and file paths, so separators and dots are never allowed.
var hashPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type Record struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	FileUrl string `json:"file"`
}

// FileUrl derives the public artifact URL for a content hash.
func FileUrl(baseUrl string, hash string, ext string) string {
	return strings.TrimSuffix(baseUrl, "/") + "/" + ObjectName(hash, ext)
}

// ObjectName is the blob store key for a content hash.
func ObjectName(hash string, ext string) string {
	if ext == "" {
		return hash
	}
	return hash + "." + strings.TrimPrefix(ext, ".")
}

func ValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}
