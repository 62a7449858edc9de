package gcp

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DocumentKey is where an uploaded résumé is stored.
func DocumentKey(userID, fileID uuid.UUID, extension string) string {
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extension)), ".")
	return fmt.Sprintf("users/%s/cv/%s.%s", userID, fileID, ext)
}

// ResponseKey is where the raw model response for a résumé is archived.
func ResponseKey(userID, fileID uuid.UUID) string {
	return fmt.Sprintf("users/%s/cv-responses/%s.json", userID, fileID)
}

// SplitKey separates an object key into its folder and file name.
func SplitKey(key string) (folder, file string) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ""
	}
	folder, file = path.Split(key)
	return strings.TrimSuffix(folder, "/"), file
}
