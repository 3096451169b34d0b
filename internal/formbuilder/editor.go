// Package formbuilder edits the ordered field collection of a registration form.
//
// Every operation returns a new collection and leaves its input untouched, so
// a caller holding the previous slice never observes a partial edit.
package formbuilder

import (
	"encoding/json"
	"errors"
	"fmt"

	"qvent-console/internal/domain"
)

var (
	ErrFieldIndexOutOfRange  = errors.New("field index out of range")
	ErrOptionIndexOutOfRange = errors.New("option index out of range")
	ErrUnknownFieldKey       = errors.New("unknown field key")
	ErrInvalidFieldValue     = errors.New("invalid field value")
)

// Collection is an ordered list of form fields
type Collection []domain.FieldSchema

// clone copies c including every option slice
func clone(c Collection) Collection {
	out := make(Collection, len(c))
	for i, f := range c {
		out[i] = f.Clone()
	}
	return out
}

func checkField(c Collection, index int) error {
	if index < 0 || index >= len(c) {
		return fmt.Errorf("%w: %d (have %d)", ErrFieldIndexOutOfRange, index, len(c))
	}
	return nil
}

// AddField appends a blank text field
func AddField(c Collection) Collection {
	out := clone(c)
	return append(out, domain.NewField())
}

// RemoveField deletes the field at index. Remaining ids are kept and no
// replacement primary is chosen.
func RemoveField(c Collection, index int) (Collection, error) {
	if err := checkField(c, index); err != nil {
		return c, err
	}
	out := make(Collection, 0, len(c)-1)
	for i, f := range c {
		if i != index {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

// SetLabel replaces the label of the field at index
func SetLabel(c Collection, index int, label string) (Collection, error) {
	if err := checkField(c, index); err != nil {
		return c, err
	}
	out := clone(c)
	out[index].Label = label
	return out, nil
}

// SetType switches the field type. Options are kept so switching back to
// dropdown restores them.
func SetType(c Collection, index int, t domain.FieldType) (Collection, error) {
	if err := checkField(c, index); err != nil {
		return c, err
	}
	if !t.Valid() {
		return c, fmt.Errorf("%w: type %q", ErrInvalidFieldValue, t)
	}
	out := clone(c)
	out[index].Type = t
	return out, nil
}

// SetRequired toggles the required flag
func SetRequired(c Collection, index int, required bool) (Collection, error) {
	if err := checkField(c, index); err != nil {
		return c, err
	}
	out := clone(c)
	out[index].Required = required
	return out, nil
}

// SetPrimary sets the primary flag. Marking a field primary clears the flag
// on every other field in the same update.
func SetPrimary(c Collection, index int, primary bool) (Collection, error) {
	if err := checkField(c, index); err != nil {
		return c, err
	}
	out := clone(c)
	if primary {
		for i := range out {
			out[i].IsPrimary = false
		}
	}
	out[index].IsPrimary = primary
	return out, nil
}

// AddOption appends an empty option. The target does not have to be a
// dropdown; options on other types are kept until the type is switched.
func AddOption(c Collection, fieldIndex int) (Collection, error) {
	if err := checkField(c, fieldIndex); err != nil {
		return c, err
	}
	out := clone(c)
	out[fieldIndex].Options = append(out[fieldIndex].Options, "")
	return out, nil
}

// UpdateOption replaces one option value
func UpdateOption(c Collection, fieldIndex, optionIndex int, value string) (Collection, error) {
	if err := checkOption(c, fieldIndex, optionIndex); err != nil {
		return c, err
	}
	out := clone(c)
	out[fieldIndex].Options[optionIndex] = value
	return out, nil
}

// RemoveOption deletes one option, preserving the order of the rest
func RemoveOption(c Collection, fieldIndex, optionIndex int) (Collection, error) {
	if err := checkOption(c, fieldIndex, optionIndex); err != nil {
		return c, err
	}
	out := clone(c)
	opts := out[fieldIndex].Options
	out[fieldIndex].Options = append(opts[:optionIndex:optionIndex], opts[optionIndex+1:]...)
	return out, nil
}

func checkOption(c Collection, fieldIndex, optionIndex int) error {
	if err := checkField(c, fieldIndex); err != nil {
		return err
	}
	if n := len(c[fieldIndex].Options); optionIndex < 0 || optionIndex >= n {
		return fmt.Errorf("%w: %d (have %d)", ErrOptionIndexOutOfRange, optionIndex, n)
	}
	return nil
}

// PrimaryCount counts fields flagged primary
func PrimaryCount(c Collection) int {
	n := 0
	for _, f := range c {
		if f.IsPrimary {
			n++
		}
	}
	return n
}

// Primary returns the first primary field, if any
func Primary(c Collection) (domain.FieldSchema, bool) {
	for _, f := range c {
		if f.IsPrimary {
			return f, true
		}
	}
	return domain.FieldSchema{}, false
}

// Field keys accepted by Apply
const (
	KeyLabel     = "label"
	KeyType      = "type"
	KeyRequired  = "required"
	KeyIsPrimary = "isPrimary"
)

// FieldUpdate is the wire form of a single keyed field edit
type FieldUpdate struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Apply decodes u and routes it to the matching typed setter
func Apply(c Collection, index int, u FieldUpdate) (Collection, error) {
	switch u.Key {
	case KeyLabel:
		var v string
		if err := json.Unmarshal(u.Value, &v); err != nil {
			return c, fmt.Errorf("%w: label must be a string", ErrInvalidFieldValue)
		}
		return SetLabel(c, index, v)
	case KeyType:
		var v domain.FieldType
		if err := json.Unmarshal(u.Value, &v); err != nil {
			return c, fmt.Errorf("%w: type must be a string", ErrInvalidFieldValue)
		}
		return SetType(c, index, v)
	case KeyRequired:
		var v bool
		if err := json.Unmarshal(u.Value, &v); err != nil {
			return c, fmt.Errorf("%w: required must be a boolean", ErrInvalidFieldValue)
		}
		return SetRequired(c, index, v)
	case KeyIsPrimary:
		var v bool
		if err := json.Unmarshal(u.Value, &v); err != nil {
			return c, fmt.Errorf("%w: isPrimary must be a boolean", ErrInvalidFieldValue)
		}
		return SetPrimary(c, index, v)
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownFieldKey, u.Key)
	}
}
