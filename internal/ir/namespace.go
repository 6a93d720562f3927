package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewDocumentURI returns a unique SPDX document namespace of the form
// "<base>/<name>-<uuid>". The UUID is version 7, so namespaces minted by one
// process sort by creation time.
func NewDocumentURI(base, name string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", fmt.Errorf("document namespace base is required")
	}
	if strings.Contains(base, "#") {
		return "", fmt.Errorf("document namespace base must not contain '#': %q", base)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "document"
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate document namespace: %w", err)
	}
	return fmt.Sprintf("%s/%s-%s", base, name, id), nil
}
