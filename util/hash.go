package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateNodeID creates a deterministic hash for a type based on file path and canonical name.
func GenerateNodeID(filePath, typeName string) string {
	input := fmt.Sprintf("%s:%s", filePath, typeName)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// HashContent returns the hex SHA-256 of a file's content.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
