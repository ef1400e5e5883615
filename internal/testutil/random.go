package testutil

import (
	"fmt"

	"github.com/google/uuid"
)

// RandomHandle returns a unique section handle with the given prefix.
func RandomHandle(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}
