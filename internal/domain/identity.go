package domain

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentIdentity is the secondary dedup key of a story, derived from its canonical URL.
func ContentIdentity(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
