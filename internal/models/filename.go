package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobExt is appended to every generated blob key regardless of the
// uploaded content.
const BlobExt = ".jpg"

// RandomSuffix returns four hex characters taken from a random UUID.
// Collisions are not checked for.
func RandomSuffix() string {
	return uuid.New().String()[:4]
}

// BlobName builds "{base}_{suffix}.jpg".
func BlobName(base, suffix string) string {
	return fmt.Sprintf("%s_%s%s", base, suffix, BlobExt)
}

// TrimExt drops the extension from an uploaded file name.
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
