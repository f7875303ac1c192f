package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashRequest produces a stable cache key for any JSON-encodable request.
func HashRequest(req interface{}) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
