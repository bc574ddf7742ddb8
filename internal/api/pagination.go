package api

import (
	"math"
	"net/url"
	"strconv"

	"vidshare/internal/storage"
)

// DefaultPerPage applies when the client omits per_page.
const DefaultPerPage = 5

// Pager is the listing metadata block of the response envelope.
type Pager struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// parsePagination converts the 1-based page / per_page query parameters into
// an offset/limit pair. per_page must parse as an integer >= 0 and page as an
// integer >= 1; each violation has its own code.
func parsePagination(query url.Values) (storage.Page, *ValidationError) {
	page := storage.Page{Offset: 0, Limit: DefaultPerPage}

	if raw := query.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			return storage.Page{}, &ValidationError{
				Code:    codePerPageNotNumber,
				Reasons: []string{"Invalid per_page parameter, must be a number, got '" + raw + "'"},
			}
		}
		if perPage < 0 {
			return storage.Page{}, &ValidationError{
				Code:    codePerPageNegative,
				Reasons: []string{"Invalid per_page parameter, must be greater than 0, got '" + raw + "'"},
			}
		}
		page.Limit = perPage
	}

	if raw := query.Get("page"); raw != "" {
		pageNumber, err := strconv.Atoi(raw)
		if err != nil {
			return storage.Page{}, &ValidationError{
				Code:    codePageNotNumber,
				Reasons: []string{"Invalid page parameter, must be a number, got '" + raw + "'"},
			}
		}
		if pageNumber < 1 {
			return storage.Page{}, &ValidationError{
				Code:    codePageTooSmall,
				Reasons: []string{"Invalid page parameter, must be greater than 0, got '" + raw + "'"},
			}
		}
		// The offset multiplication must not wrap: an absurd page number
		// addresses past the end, it never becomes a negative offset.
		if page.Limit > 0 && pageNumber-1 > math.MaxInt/page.Limit {
			page.Offset = math.MaxInt
		} else {
			page.Offset = (pageNumber - 1) * page.Limit
		}
	}

	return page, nil
}

// buildPager derives the envelope pager from the applied bounds and the total
// row count of the filtered set.
func buildPager(page storage.Page, total int) Pager {
	limit := page.Limit
	if limit <= 0 {
		return Pager{Current: 1, Total: 1}
	}
	return Pager{
		Current: page.Offset/limit + 1,
		Total:   total/limit + 1,
	}
}

// pageExists enforces the shared listing contract: a non-zero offset that
// yields no items addresses a page beyond the end of the result set.
func pageExists(page storage.Page, itemCount int) bool {
	return page.Offset == 0 || itemCount > 0
}
