package formbuilder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvent-console/internal/domain"
)

func threeFields() Collection {
	return Collection{
		{ID: "a", Label: "Name", Type: domain.FieldTypeText, Options: []string{}},
		{ID: "b", Label: "Mobile", Type: domain.FieldTypeMobile, IsPrimary: true, Options: []string{}},
		{ID: "c", Label: "T-shirt", Type: domain.FieldTypeDropdown, Options: []string{"S", "M", "L"}},
	}
}

func ids(c Collection) []string {
	out := make([]string, len(c))
	for i, f := range c {
		out[i] = f.ID
	}
	return out
}

func TestAddField(t *testing.T) {
	var c Collection
	c = AddField(c)
	c = AddField(c)

	require.Len(t, c, 2)
	assert.NotEqual(t, c[0].ID, c[1].ID)
	for _, f := range c {
		assert.Equal(t, domain.FieldTypeText, f.Type)
		assert.Empty(t, f.Label)
		assert.False(t, f.Required)
		assert.False(t, f.IsPrimary)
		assert.Empty(t, f.Options)
	}
}

func TestAddField_DoesNotAliasInput(t *testing.T) {
	c := threeFields()
	next := AddField(c)

	next[2].Options[0] = "XS"
	assert.Equal(t, "S", c[2].Options[0])
	assert.Len(t, c, 3)
}

func TestSetPrimary_SinglePrimary(t *testing.T) {
	for i := 0; i < 3; i++ {
		c, err := SetPrimary(threeFields(), i, true)
		require.NoError(t, err)

		assert.Equal(t, 1, PrimaryCount(c))
		assert.True(t, c[i].IsPrimary)
	}
}

func TestSetPrimary_FromConflictingInput(t *testing.T) {
	c := threeFields()
	c[0].IsPrimary = true
	c[2].IsPrimary = true
	require.Equal(t, 3, PrimaryCount(c))

	next, err := SetPrimary(c, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 1, PrimaryCount(next))
	assert.True(t, next[2].IsPrimary)

	// input untouched
	assert.Equal(t, 3, PrimaryCount(c))
}

func TestSetPrimary_Unset(t *testing.T) {
	c, err := SetPrimary(threeFields(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, PrimaryCount(c))
}

func TestRemoveField(t *testing.T) {
	c := threeFields()

	next, err := RemoveField(c, 1)
	require.NoError(t, err)

	assert.Len(t, next, len(c)-1)
	assert.Equal(t, []string{"a", "c"}, ids(next))
	// removing the primary does not promote another field
	assert.Equal(t, 0, PrimaryCount(next))
	assert.Len(t, c, 3)
}

func TestRemoveField_OutOfRange(t *testing.T) {
	c := threeFields()
	for _, idx := range []int{-1, 3, 10} {
		next, err := RemoveField(c, idx)
		assert.ErrorIs(t, err, ErrFieldIndexOutOfRange)
		assert.Equal(t, ids(c), ids(next))
	}
}

func TestSetters(t *testing.T) {
	c, err := SetLabel(threeFields(), 0, "Full name")
	require.NoError(t, err)
	assert.Equal(t, "Full name", c[0].Label)

	c, err = SetRequired(c, 0, true)
	require.NoError(t, err)
	assert.True(t, c[0].Required)

	c, err = SetType(c, 0, domain.FieldTypeDate)
	require.NoError(t, err)
	assert.Equal(t, domain.FieldTypeDate, c[0].Type)

	_, err = SetType(c, 0, domain.FieldType("checkbox"))
	assert.ErrorIs(t, err, ErrInvalidFieldValue)

	_, err = SetLabel(c, 7, "x")
	assert.ErrorIs(t, err, ErrFieldIndexOutOfRange)
}

func TestSetType_KeepsOptions(t *testing.T) {
	c, err := SetType(threeFields(), 2, domain.FieldTypeText)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "L"}, c[2].Options)
	assert.False(t, c[2].Type.HasOptions())
}

func TestOptions(t *testing.T) {
	c, err := AddOption(threeFields(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "L", ""}, c[2].Options)

	c, err = UpdateOption(c, 2, 3, "XL")
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "L", "XL"}, c[2].Options)

	c, err = RemoveOption(c, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "L", "XL"}, c[2].Options)

	_, err = UpdateOption(c, 2, 3, "XXL")
	assert.ErrorIs(t, err, ErrOptionIndexOutOfRange)

	_, err = RemoveOption(c, 5, 0)
	assert.ErrorIs(t, err, ErrFieldIndexOutOfRange)
}

func TestAddOption_NonDropdown(t *testing.T) {
	c, err := AddOption(threeFields(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, c[0].Options)
}

func TestRemoveOption_DoesNotAliasInput(t *testing.T) {
	c := threeFields()
	_, err := RemoveOption(c, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "L"}, c[2].Options)
}

func TestApply(t *testing.T) {
	raw := func(v interface{}) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}

	tests := []struct {
		name    string
		index   int
		update  FieldUpdate
		wantErr error
		check   func(t *testing.T, c Collection)
	}{
		{
			name:   "label",
			index:  0,
			update: FieldUpdate{Key: KeyLabel, Value: raw("Your name")},
			check:  func(t *testing.T, c Collection) { assert.Equal(t, "Your name", c[0].Label) },
		},
		{
			name:   "type",
			index:  0,
			update: FieldUpdate{Key: KeyType, Value: raw("number")},
			check:  func(t *testing.T, c Collection) { assert.Equal(t, domain.FieldTypeNumber, c[0].Type) },
		},
		{
			name:   "required",
			index:  2,
			update: FieldUpdate{Key: KeyRequired, Value: raw(true)},
			check:  func(t *testing.T, c Collection) { assert.True(t, c[2].Required) },
		},
		{
			name:   "isPrimary moves the flag",
			index:  0,
			update: FieldUpdate{Key: KeyIsPrimary, Value: raw(true)},
			check: func(t *testing.T, c Collection) {
				assert.True(t, c[0].IsPrimary)
				assert.Equal(t, 1, PrimaryCount(c))
			},
		},
		{
			name:    "unknown key",
			index:   0,
			update:  FieldUpdate{Key: "options", Value: raw([]string{"x"})},
			wantErr: ErrUnknownFieldKey,
		},
		{
			name:    "wrong value type",
			index:   0,
			update:  FieldUpdate{Key: KeyRequired, Value: raw("yes")},
			wantErr: ErrInvalidFieldValue,
		},
		{
			name:    "index out of range",
			index:   9,
			update:  FieldUpdate{Key: KeyLabel, Value: raw("x")},
			wantErr: ErrFieldIndexOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Apply(threeFields(), tt.index, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestPrimary(t *testing.T) {
	f, ok := Primary(threeFields())
	require.True(t, ok)
	assert.Equal(t, "b", f.ID)

	_, ok = Primary(Collection{})
	assert.False(t, ok)
}
