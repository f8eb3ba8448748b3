package utils

import (
	"fmt"
	"net/mail"
	"strconv"

	"github.com/google/uuid"
)

func ToNumberWithDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func ToString(v any) string {
	return fmt.Sprint(v)
}

func ToUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
