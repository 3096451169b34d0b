// Package submissions filters, sorts and paginates the rows of an event's
// submission table. Every function is pure over its inputs.
package submissions

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"qvent-console/internal/domain"
)

// SortSubmittedAt is the pseudo-column for the submission timestamp
const SortSubmittedAt = "submittedAt"

// DefaultPageSize is the number of rows per table page
const DefaultPageSize = 10

// Order is a sort direction
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder maps anything other than "asc" to descending
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Query is the table state the user controls
type Query struct {
	Search    string
	SortField string
	SortOrder Order
	Page      int
	PageSize  int
}

// DefaultQuery is newest first on page 1
func DefaultQuery() Query {
	return Query{
		SortField: SortSubmittedAt,
		SortOrder: Desc,
		Page:      1,
		PageSize:  DefaultPageSize,
	}
}

// Page is one page of the filtered, sorted rows
type Page struct {
	Rows          []domain.SubmissionRow `json:"rows"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"pageSize"`
	TotalPages    int                    `json:"totalPages"`
	FilteredCount int                    `json:"filteredCount"`
	StartIndex    int                    `json:"startIndex"`
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// Filter keeps rows where term appears, case-insensitively, in any data value
// or in the primary value. An empty term keeps every row.
func Filter(rows []domain.SubmissionRow, term string) []domain.SubmissionRow {
	out := make([]domain.SubmissionRow, 0, len(rows))
	if term == "" {
		return append(out, rows...)
	}

	needle := strings.ToLower(term)
	for _, row := range rows {
		if matches(row, needle) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row domain.SubmissionRow, needle string) bool {
	for _, v := range row.Data {
		if strings.Contains(strings.ToLower(stringify(v)), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(row.PrimaryValue), needle)
}

// Sort orders rows by field. Ties keep their original relative order.
func Sort(rows []domain.SubmissionRow, field string, order Order) []domain.SubmissionRow {
	out := make([]domain.SubmissionRow, len(rows))
	copy(out, rows)

	if field == "" {
		field = SortSubmittedAt
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], field)
		if order == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compare(a, b domain.SubmissionRow, field string) int {
	if field == SortSubmittedAt {
		return cmpInt64(a.SubmittedAt.Seconds(), b.SubmittedAt.Seconds())
	}

	av, bv := a.Data[field], b.Data[field]
	if an, ok := av.(float64); ok {
		if bn, ok := bv.(float64); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(stringify(av)), strings.ToLower(stringify(bv)))
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Paginate slices out one page. page is 1-indexed and clamped silently to the
// available range.
func Paginate(rows []domain.SubmissionRow, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]domain.SubmissionRow, end-start)
	copy(items, rows[start:end])

	return Page{
		Rows:          items,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
		FilteredCount: total,
		StartIndex:    start,
	}
}

// FilterAndSort runs the first two pipeline stages
func FilterAndSort(rows []domain.SubmissionRow, search, field string, order Order) []domain.SubmissionRow {
	return Sort(Filter(rows, search), field, order)
}

// Run applies filter, sort and pagination for q
func Run(rows []domain.SubmissionRow, q Query) Page {
	return Paginate(FilterAndSort(rows, q.Search, q.SortField, q.SortOrder), q.Page, q.PageSize)
}

// Headers returns the table columns: the event's field labels in form order,
// then any other data keys found in the rows, sorted.
func Headers(rows []domain.SubmissionRow, fields []domain.FieldSchema) []string {
	seen := make(map[string]bool)
	headers := make([]string, 0, len(fields))

	for _, f := range fields {
		if f.Label == "" || seen[f.Label] {
			continue
		}
		seen[f.Label] = true
		headers = append(headers, f.Label)
	}

	var extra []string
	for _, row := range rows {
		for k := range row.Data {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)

	return append(headers, extra...)
}

// Summary backs the stats cards above the table
type Summary struct {
	TotalResponses int        `json:"totalResponses"`
	LatestResponse *time.Time `json:"latestResponse,omitempty"`
}

// Summarize counts rows and finds the most recent submission
func Summarize(rows []domain.SubmissionRow) Summary {
	s := Summary{TotalResponses: len(rows)}
	for _, row := range rows {
		if row.SubmittedAt.IsZero() {
			continue
		}
		ts := row.SubmittedAt.Time
		if s.LatestResponse == nil || ts.After(*s.LatestResponse) {
			s.LatestResponse = &ts
		}
	}
	return s
}
