package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows algorithm migration.
const (
	DomainObject = "spdxstore/object/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DigestObject computes a content digest of an object snapshot.
// Two snapshots have the same digest iff they have the same key, type and
// property contents (list order included), regardless of which store they came from.
func DigestObject(obj Object) (string, error) {
	canonical, err := MarshalCanonical(obj.Plain())
	if err != nil {
		return "", fmt.Errorf("DigestObject: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainObject, canonical), nil
}
