package objstore

import (
	"fmt"
	"strings"
)

// URI is a parsed s3:// location.
type URI struct {
	Bucket string
	Key    string
}

// String renders the location back to s3://bucket/key form.
func (u URI) String() string {
	if u.Key == "" {
		return "s3://" + u.Bucket
	}
	return "s3://" + u.Bucket + "/" + u.Key
}

// IsS3URI reports whether raw looks like an s3:// location.
func IsS3URI(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "s3://")
}

// ParseURI splits an s3://bucket/key string. The key may be empty.
func ParseURI(raw string) (URI, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "s3://") {
		return URI{}, fmt.Errorf("not an s3 URI: %q", raw)
	}
	rest := strings.TrimPrefix(trimmed, "s3://")
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("s3 URI missing bucket: %q", raw)
	}
	return URI{Bucket: bucket, Key: strings.Trim(key, "/")}, nil
}

// Join concatenates URI path segments onto a base location, normalizing
// trailing and leading slashes so doubled separators never appear.
func Join(base string, parts ...string) string {
	joined := strings.TrimRight(strings.TrimSpace(base), "/")
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), "/")
		if part == "" {
			continue
		}
		joined += "/" + part
	}
	return joined
}
