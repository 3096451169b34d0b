package domain

import (
	"github.com/google/uuid"
)

// FieldType is the input kind of one registration form question
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeMobile   FieldType = "mobile"
	FieldTypeDate     FieldType = "date"
	FieldTypeDropdown FieldType = "dropdown"
)

// FieldTypes lists the supported field types in display order
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeMobile,
	FieldTypeDate,
	FieldTypeDropdown,
}

// Valid reports whether t is one of the supported field types
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether the field editor shows the options list for t.
// No other type carries per-type state.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeDropdown
}

// FieldSchema is one question in a registration form
type FieldSchema struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	IsPrimary bool      `json:"isPrimary"`
	Options   []string  `json:"options"`
}

// NewField returns a blank text field with a fresh id
func NewField() FieldSchema {
	return FieldSchema{
		ID:      "field_" + uuid.NewString(),
		Label:   "",
		Type:    FieldTypeText,
		Options: []string{},
	}
}

// Clone returns a copy that shares no option storage with f
func (f FieldSchema) Clone() FieldSchema {
	out := f
	out.Options = make([]string, len(f.Options))
	copy(out.Options, f.Options)
	return out
}
