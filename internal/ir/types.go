package ir

import "sort"

// ObjectKey identifies an object: a document URI plus an ID unique within it.
type ObjectKey struct {
	DocumentURI string `json:"document_uri"`
	ID          string `json:"id"`
}

func (k ObjectKey) String() string {
	return k.DocumentURI + "#" + k.ID
}

// Object is a point-in-time snapshot of one stored object.
// Values and Lists never share a property name.
type Object struct {
	DocumentURI string             `json:"document_uri"`
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Values      map[string]Value   `json:"-"`
	Lists       map[string][]Value `json:"-"`
}

// NewObject creates an empty snapshot with initialized property maps.
func NewObject(documentURI, id, typ string) Object {
	return Object{
		DocumentURI: documentURI,
		ID:          id,
		Type:        typ,
		Values:      make(map[string]Value),
		Lists:       make(map[string][]Value),
	}
}

// Key returns the snapshot's object key.
func (o Object) Key() ObjectKey {
	return ObjectKey{DocumentURI: o.DocumentURI, ID: o.ID}
}

// References returns every reference value held by the object, scalar slots first,
// then list elements, each group in sorted property-name order.
func (o Object) References() []TypedValue {
	var refs []TypedValue
	for _, name := range sortedNames(o.Values) {
		if ref, ok := o.Values[name].(TypedValue); ok {
			refs = append(refs, ref)
		}
	}
	for _, name := range sortedNames(o.Lists) {
		for _, v := range o.Lists[name] {
			if ref, ok := v.(TypedValue); ok {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// Plain renders the snapshot as plain maps for JSON output and digests.
func (o Object) Plain() map[string]any {
	values := make(map[string]any, len(o.Values))
	for name, v := range o.Values {
		values[name] = Plain(v)
	}
	lists := make(map[string]any, len(o.Lists))
	for name, vals := range o.Lists {
		lists[name] = PlainList(vals)
	}
	return map[string]any{
		"document_uri": o.DocumentURI,
		"id":           o.ID,
		"type":         o.Type,
		"values":       values,
		"lists":        lists,
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
