package ir

import (
	"fmt"
	"strings"
)

// IDType classifies IDs by how they are generated and namespaced.
// The set is closed; the zero value is not a valid kind.
type IDType int

const (
	// LicenseRef IDs start with "LicenseRef-".
	LicenseRef IDType = iota + 1
	// DocumentRef IDs start with "DocumentRef-".
	DocumentRef
	// SpdxID IDs start with "SPDXRef-".
	SpdxID
	// ListedLicense IDs name licenses from the SPDX license list.
	ListedLicense
	// Literal IDs name predefined literals such as NONE and NOASSERTION.
	Literal
	// Anonymous IDs name objects only referenced from within the store.
	Anonymous
)

// ID prefixes.
const (
	LicenseRefPrefix  = "LicenseRef-"
	DocumentRefPrefix = "DocumentRef-"
	SpdxIDPrefix      = "SPDXRef-"
	AnonymousPrefix   = "__anon__"

	// GeneratedMarker follows the prefix of every generated ID.
	GeneratedMarker = "gnrtd"
)

// Predefined literal IDs.
const (
	LiteralNone        = "NONE"
	LiteralNoAssertion = "NOASSERTION"
)

var idTypeNames = map[IDType]string{
	LicenseRef:    "LicenseRef",
	DocumentRef:   "DocumentRef",
	SpdxID:        "SpdxId",
	ListedLicense: "ListedLicense",
	Literal:       "Literal",
	Anonymous:     "Anonymous",
}

// AllIDTypes lists every IDType in declaration order.
func AllIDTypes() []IDType {
	return []IDType{LicenseRef, DocumentRef, SpdxID, ListedLicense, Literal, Anonymous}
}

func (t IDType) String() string {
	if name, ok := idTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("IDType(%d)", int(t))
}

// Valid reports whether t is one of the declared kinds.
func (t IDType) Valid() bool {
	_, ok := idTypeNames[t]
	return ok
}

// Prefix returns the required ID prefix, or "" for kinds without one.
func (t IDType) Prefix() string {
	switch t {
	case LicenseRef:
		return LicenseRefPrefix
	case DocumentRef:
		return DocumentRefPrefix
	case SpdxID:
		return SpdxIDPrefix
	case Anonymous:
		return AnonymousPrefix
	default:
		return ""
	}
}

// Generatable reports whether IDs of this kind can be minted by a store.
// Listed licenses and literals name externally defined objects.
func (t IDType) Generatable() bool {
	return t.Prefix() != ""
}

// ParseIDType parses a kind name case-insensitively ("SpdxId", "spdxid", "licenseref").
func ParseIDType(s string) (IDType, error) {
	for t, name := range idTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown id type %q", s)
}

// ClassifyID returns the kind an existing ID belongs to, by prefix.
// Unprefixed IDs that are not literals are treated as listed license IDs.
func ClassifyID(id string) IDType {
	switch {
	case strings.HasPrefix(id, LicenseRefPrefix):
		return LicenseRef
	case strings.HasPrefix(id, DocumentRefPrefix):
		return DocumentRef
	case strings.HasPrefix(id, SpdxIDPrefix):
		return SpdxID
	case strings.HasPrefix(id, AnonymousPrefix):
		return Anonymous
	case id == LiteralNone || id == LiteralNoAssertion:
		return Literal
	default:
		return ListedLicense
	}
}

// FormatGeneratedID returns the n-th generated ID candidate for a kind,
// e.g. "SPDXRef-gnrtd3".
func FormatGeneratedID(t IDType, n int64) string {
	return fmt.Sprintf("%s%s%d", t.Prefix(), GeneratedMarker, n)
}
