package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func GenerateID() string {
	id, err := gonanoid.Generate(idAlphabet, 7)
	if err != nil {
		return ""
	}
	return id
}

// GenerateHandle builds a URL-safe marketplace handle from a display name,
// e.g. "Trung Nguyen" -> "trung-nguyen-x3fK9a1".
func GenerateHandle(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "user"
	}
	return base + "-" + strings.ToLower(GenerateID())
}

// GenerateRandomString generates a cryptographically secure random string
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to nanoid if crypto/rand fails
		id, _ := gonanoid.Generate(idAlphabet, length)
		return id
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}
