package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"standup/src/types"

	"github.com/gosimple/slug"
)

// PictureKey derives the object key for a user's or team's picture. The hash
// suffix keeps keys distinct when two ids slug to the same string.
func PictureKey(kind types.PictureKind, id string) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%s/%s-%x", kind, slug.Make(id), sum[:4])
}

// DecodePicture accepts raw base64 or a data URL.
func DecodePicture(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, types.NewValidationError("profilePicture", "profilePicture must be base64 encoded")
	}
	if len(body) == 0 {
		return nil, types.NewValidationError("profilePicture", "profilePicture is empty")
	}
	return body, nil
}

func IsProd(env string) bool {
	return env == string(types.Production)
}
