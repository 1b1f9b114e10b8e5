// Package pagination implements the keyset (cursor) pagination algorithm used
// by policy and history listings, plus the offset pagination used by customer
// search. Both operate over an ordered int64 id space.
package pagination

import (
	"strconv"

	dErrors "coverbase/pkg/domain-errors"
)

const (
	// DefaultPerPage is used when the caller does not specify a page size.
	DefaultPerPage = 10
	// MaxPerPage caps page sizes regardless of what the caller asks for.
	MaxPerPage = 100
)

// Direction selects how the keyset filter and ordering are applied.
type Direction int

const (
	// Ascending pages by id ascending; the cursor is the smallest id to include.
	Ascending Direction = iota
	// Descending pages by id descending; the cursor is the largest id to include.
	Descending
)

// ParsePerPage parses a per_page query value. Empty input yields the default;
// a non-integer value is a request error; the result is clamped to [1, MaxPerPage].
func ParsePerPage(raw string) (int, error) {
	if raw == "" {
		return DefaultPerPage, nil
	}
	perPage, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "query parameter per_page must be an integer")
	}
	if perPage < 1 {
		return 1, nil
	}
	if perPage > MaxPerPage {
		return MaxPerPage, nil
	}
	return perPage, nil
}

// ParseCursor parses a next_cursor query value. Empty input means "no cursor".
// An unparsable cursor is treated as "no cursor" in lenient mode, so listing
// restarts from the beginning; strict mode rejects it instead, surfacing
// client bugs rather than masking them.
func ParseCursor(raw string, strict bool) (cursor int64, ok bool, err error) {
	if raw == "" {
		return 0, false, nil
	}
	cursor, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil {
		if strict {
			return 0, false, dErrors.New(dErrors.CodeValidation, "query parameter next_cursor must be an integer")
		}
		return 0, false, nil
	}
	return cursor, true, nil
}

// Page is one keyset page. NextCursor is nil at the end of the stream.
type Page[T any] struct {
	Items      []T
	NextCursor *int64
}

// Trim turns a fetched slice of up to perPage+1 records into a page. When an
// extra record is present it is popped and its id becomes the next cursor.
func Trim[T any](items []T, perPage int, idOf func(T) int64) Page[T] {
	if len(items) > perPage {
		next := idOf(items[perPage])
		return Page[T]{Items: items[:perPage], NextCursor: &next}
	}
	return Page[T]{Items: items}
}

// OffsetPage describes one offset-paginated result window.
type OffsetPage struct {
	Offset       int
	TotalPages   int
	PreviousPage *int
	NextPage     *int
}

// ParsePage parses a page query value, defaulting to the first page.
func ParsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "page must be a positive integer")
	}
	return page, nil
}

// OffsetWindow computes the offset window for a page over total records.
// An out-of-range page is a validation error, not an empty result. The first
// page is always in range, even when there are no records at all.
func OffsetWindow(total, page, perPage int) (OffsetPage, error) {
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 || page > totalPages {
		return OffsetPage{}, dErrors.New(dErrors.CodeValidation, "page is out of range")
	}

	window := OffsetPage{
		Offset:     (page - 1) * perPage,
		TotalPages: totalPages,
	}
	if page > 1 {
		prev := page - 1
		window.PreviousPage = &prev
	}
	if page < totalPages {
		next := page + 1
		window.NextPage = &next
	}
	return window, nil
}
