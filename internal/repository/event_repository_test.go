package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvent-console/internal/domain"
	"qvent-console/internal/session"
	apperrors "qvent-console/pkg/errors"
)

// fakeRow assigns values positionally, the way pgx does for simple types
type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	if len(dest) != len(f.values) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(f.values), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = f.values[i].(string)
		case *int64:
			*p = f.values[i].(int64)
		case *bool:
			*p = f.values[i].(bool)
		case *time.Time:
			*p = f.values[i].(time.Time)
		case *[]byte:
			if f.values[i] != nil {
				*p = f.values[i].([]byte)
			}
		case **float64:
			if f.values[i] != nil {
				v := f.values[i].(float64)
				*p = &v
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func TestScanEvent(t *testing.T) {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	date := time.Date(2026, 4, 1, 18, 30, 0, 0, time.UTC)

	row := fakeRow{values: []any{
		"e1", "u1", "Community Meetup", "desc", date, "Hall 2", "manual",
		"Jordan", "9876543210", "j@x.io", "paid", float64(250), "ACTIVE",
		[]byte(`[{"id":"f1","label":"Mobile","type":"mobile","required":true,"isPrimary":true,"options":[]}]`),
		created, created, int64(7),
	}}

	ev, err := scanEvent(row)
	require.NoError(t, err)

	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, "u1", ev.OwnerID)
	assert.Equal(t, date, ev.EventDate)
	assert.Equal(t, domain.LocationManual, ev.LocationType)
	assert.Equal(t, domain.CategoryPaid, ev.Category)
	assert.Equal(t, domain.StatusActive, ev.Status)
	require.NotNil(t, ev.Amount)
	assert.Equal(t, 250.0, *ev.Amount)
	assert.Equal(t, 7, ev.SubmissionCount)
	require.Len(t, ev.Fields, 1)
	assert.True(t, ev.Fields[0].IsPrimary)
}

func TestScanEvent_NullAmountAndFields(t *testing.T) {
	now := time.Now().UTC()
	row := fakeRow{values: []any{
		"e2", "u1", "Free Yoga Morning", "", now, "", "",
		"Jordan", "", "j@x.io", "free", nil, "DISABLED",
		nil, now, now, int64(0),
	}}

	ev, err := scanEvent(row)
	require.NoError(t, err)
	assert.Nil(t, ev.Amount)
	assert.NotNil(t, ev.Fields)
	assert.Empty(t, ev.Fields)
}

func TestScanEvent_BadFields(t *testing.T) {
	now := time.Now().UTC()
	row := fakeRow{values: []any{
		"e3", "u1", "Broken fields", "", now, "", "",
		"Jordan", "", "j@x.io", "free", nil, "ACTIVE",
		[]byte(`{not json`), now, now, int64(0),
	}}

	_, err := scanEvent(row)
	assert.Error(t, err)
}

func TestScanEvent_ScanError(t *testing.T) {
	_, err := scanEvent(fakeRow{err: errors.New("conn reset")})
	assert.EqualError(t, err, "conn reset")
}

func TestScanSubmission(t *testing.T) {
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	row := fakeRow{values: []any{"s1", []byte(`{"Name":"Asha","Age":31}`), "9876543210", at}}

	sub, err := scanSubmission(row)
	require.NoError(t, err)
	assert.Equal(t, "s1", sub.ID)
	assert.Equal(t, "Asha", sub.Data["Name"])
	assert.Equal(t, float64(31), sub.Data["Age"])
	assert.Equal(t, at.Unix(), sub.SubmittedAt.Seconds())
}

func TestEncodeFields(t *testing.T) {
	got, err := encodeFields(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = encodeFields([]domain.FieldSchema{{ID: "f1", Label: "Name", Type: domain.FieldTypeText, Options: []string{}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"f1","label":"Name","type":"text","required":false,"isPrimary":false,"options":[]}]`, got)
}

func TestStatusOrActive(t *testing.T) {
	assert.Equal(t, "ACTIVE", statusOrActive(""))
	assert.Equal(t, "DISABLED", statusOrActive(domain.StatusDisabled))
}

func TestRequireAdmin(t *testing.T) {
	assert.True(t, apperrors.IsType(requireAdmin(nil), apperrors.ErrorTypeAuthorization))
	assert.True(t, apperrors.IsType(requireAdmin(&session.Session{}), apperrors.ErrorTypeAuthorization))
	assert.NoError(t, requireAdmin(&session.Session{IsAdmin: true}))
}

func TestEventQueries_OwnerScoped(t *testing.T) {
	queries := map[string]string{
		"list":    listEventsQuery,
		"update":  updateEventQuery,
		"delete":  deleteEventQuery,
		"visible": eventVisibleQuery,
	}

	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, q, "owner_id = $", "query must filter by owner")
			assert.NotContains(t, strings.ToLower(q), "is_admin")
			assert.NotRegexp(t, `owner_id = \$\d+\s+OR`, q)
		})
	}

	assert.True(t, strings.HasSuffix(strings.TrimSpace(updateEventQuery), ownedBy))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(deleteEventQuery), ownedBy))
}
