package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "full location",
			err:  ListSlotConflict("set value", "https://example/doc", "SPDXRef-1", "files"),
			want: "set value: TYPE_CONFLICT: property holds a list; use the list operations " +
				"(document=https://example/doc, id=SPDXRef-1, property=files)",
		},
		{
			name: "no location",
			err:  NewInvalidInputError("create", "type is required"),
			want: "create: INVALID_INPUT: type is required",
		},
		{
			name: "no op",
			err:  &Error{Code: CodeNotFound, Message: "object not found"},
			want: "NOT_FOUND: object not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	err := NewNotFoundError("type", "https://example/doc", "SPDXRef-1")
	wrapped := fmt.Errorf("loading package: %w", err)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrAlreadyExists)
	assert.NotErrorIs(t, wrapped, ErrTypeConflict)
	assert.NotErrorIs(t, wrapped, ErrInvalidInput)
	assert.False(t, errors.Is(errors.New("object not found"), ErrNotFound))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeAlreadyExists, CodeOf(NewAlreadyExistsError("create", "d", "i")))
	assert.Equal(t, CodeTypeConflict, CodeOf(fmt.Errorf("x: %w", ObjectTypeConflict("copy from", "d", "i", "File", "Package"))))
	assert.Equal(t, Code(""), CodeOf(errors.New("disk full")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("value", "d", "i")))
	assert.True(t, IsAlreadyExists(NewAlreadyExistsError("create", "d", "i")))
	assert.True(t, IsTypeConflict(ScalarSlotConflict("add value to list", "d", "i", "p")))
	assert.True(t, IsInvalidInput(NewInvalidInputError("next id", "bad kind")))

	assert.False(t, IsNotFound(NewAlreadyExistsError("create", "d", "i")))
	assert.False(t, IsInvalidInput(nil))
}

func TestObjectTypeConflict_Message(t *testing.T) {
	err := ObjectTypeConflict("copy from", "https://example/doc", "SPDXRef-1", "File", "Package")
	assert.Equal(t, CodeTypeConflict, err.Code)
	assert.Empty(t, err.Property)
	assert.Contains(t, err.Error(), `object has type "File", not "Package"`)
}
