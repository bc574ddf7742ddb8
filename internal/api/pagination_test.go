package api

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"vidshare/internal/storage"
)

func TestParsePaginationDefaults(t *testing.T) {
	page, verr := parsePagination(url.Values{})
	if verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if page.Offset != 0 || page.Limit != DefaultPerPage {
		t.Fatalf("defaults: got %+v", page)
	}
}

func TestParsePaginationOffsets(t *testing.T) {
	page, verr := parsePagination(url.Values{"per_page": {"2"}, "page": {"3"}})
	if verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if page.Offset != 4 || page.Limit != 2 {
		t.Fatalf("page 3 of 2: got %+v", page)
	}
}

func TestParsePaginationErrors(t *testing.T) {
	cases := []struct {
		name  string
		query url.Values
		code  int
	}{
		{"per_page not a number", url.Values{"per_page": {"abc"}}, codePerPageNotNumber},
		{"per_page negative", url.Values{"per_page": {"-1"}}, codePerPageNegative},
		{"page not a number", url.Values{"page": {"xyz"}}, codePageNotNumber},
		{"page zero", url.Values{"page": {"0"}}, codePageTooSmall},
		{"page negative", url.Values{"page": {"-2"}}, codePageTooSmall},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, verr := parsePagination(tc.query)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Code != tc.code {
				t.Fatalf("code: got %d, want %d", verr.Code, tc.code)
			}
			if len(verr.Reasons) == 0 {
				t.Fatal("missing reason")
			}
		})
	}
}

func TestParsePaginationClampsHugeOffsets(t *testing.T) {
	page, verr := parsePagination(url.Values{
		"per_page": {"1000000"},
		"page":     {strconv.Itoa(math.MaxInt)},
	})
	if verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if page.Offset < 0 {
		t.Fatalf("offset wrapped negative: %d", page.Offset)
	}
	if page.Offset != math.MaxInt {
		t.Fatalf("offset: got %d, want clamp to %d", page.Offset, math.MaxInt)
	}
}

func TestParsePaginationAllowsZeroPerPage(t *testing.T) {
	page, verr := parsePagination(url.Values{"per_page": {"0"}})
	if verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if page.Limit != 0 {
		t.Fatalf("limit: got %d, want 0", page.Limit)
	}
}

func TestBuildPager(t *testing.T) {
	pager := buildPager(storage.Page{Offset: 4, Limit: 2}, 5)
	if pager.Current != 3 {
		t.Fatalf("current: got %d, want 3", pager.Current)
	}
	if pager.Total != 3 {
		t.Fatalf("total: got %d, want 3", pager.Total)
	}

	pager = buildPager(storage.Page{Offset: 0, Limit: 5}, 0)
	if pager.Current != 1 || pager.Total != 1 {
		t.Fatalf("empty set pager: %+v", pager)
	}

	pager = buildPager(storage.Page{Offset: 0, Limit: 0}, 9)
	if pager.Current != 1 || pager.Total != 1 {
		t.Fatalf("zero limit pager: %+v", pager)
	}
}

func TestPageExists(t *testing.T) {
	if !pageExists(storage.Page{Offset: 0, Limit: 5}, 0) {
		t.Fatal("first page of empty set must exist")
	}
	if pageExists(storage.Page{Offset: 10, Limit: 5}, 0) {
		t.Fatal("offset past end with no items must not exist")
	}
	if !pageExists(storage.Page{Offset: 10, Limit: 5}, 3) {
		t.Fatal("offset with items must exist")
	}
}
