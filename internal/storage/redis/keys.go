package redis

import (
	"fmt"

	"github.com/mcoot/tournax/internal/storage"
)

// Key prefix for all frontend data
const keyPrefix = "tournax"

// sessionKey returns the Redis key for the session issued with token
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, storage.Fingerprint(token))
}
