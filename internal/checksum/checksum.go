// Package checksum computes the content digests used as state-file ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats sum as a strong entity tag. An empty sum yields "".
func ETag(sum string) string {
	if sum == "" {
		return ""
	}
	return strconv.Quote(sum)
}

// FromIfMatch extracts the digest from an If-Match header value. Weak tags
// and unquoted values are accepted; "*" and empty values yield "".
func FromIfMatch(header string) string {
	v := strings.TrimSpace(header)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	if v == "*" {
		return ""
	}
	return v
}
