package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func searchContext(t *testing.T, rawQuery string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/search/shows?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestShowSearchQueryDefaults(t *testing.T) {
	q := showSearchQuery(searchContext(t, ""))

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize, "absent page_size must fall back to a usable default, never a zero limit")
	assert.Empty(t, q.Title)
	assert.Empty(t, q.TimeFilter)
}

func TestShowSearchQueryClamps(t *testing.T) {
	cases := []struct {
		name     string
		rawQuery string
		page     int
		pageSize int
	}{
		{"zero page_size", "page_size=0", 1, 20},
		{"negative page_size", "page_size=-5", 1, 20},
		{"oversized page_size", "page_size=5000", 1, 100},
		{"non-numeric", "page=abc&page_size=abc", 1, 20},
		{"negative page", "page=-3&page_size=10", 1, 10},
		{"in range", "page=3&page_size=50", 3, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := showSearchQuery(searchContext(t, tc.rawQuery))
			assert.Equal(t, tc.page, q.Page)
			assert.Equal(t, tc.pageSize, q.PageSize)
		})
	}
}

func TestShowSearchQueryTrimsFilters(t *testing.T) {
	q := showSearchQuery(searchContext(t, "title=+hamlet+&city=+oslo+&venue=opera&when=upcoming"))

	assert.Equal(t, "hamlet", q.Title)
	assert.Equal(t, "oslo", q.City)
	assert.Equal(t, "opera", q.Venue)
	assert.Equal(t, "upcoming", q.TimeFilter)
}
