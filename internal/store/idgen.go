package store

import "github.com/roach88/spdxstore/internal/ir"

// GenerateID returns the first generated ID of kind, counting from next, for
// which taken reports false. It also returns the counter value to persist.
// Callers hold whatever lock makes taken and the reservation atomic.
func GenerateID(kind ir.IDType, next int64, taken func(id string) (bool, error)) (string, int64, error) {
	for n := next; ; n++ {
		candidate := ir.FormatGeneratedID(kind, n)
		used, err := taken(candidate)
		if err != nil {
			return "", next, err
		}
		if !used {
			return candidate, n + 1, nil
		}
	}
}
