package query

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parse(rawQuery string) FilterParams {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return ParseQueryParams(c)
}

func TestParseQueryParamsDefaults(t *testing.T) {
	p := parse("")

	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, DefaultTake, p.Take)
	assert.Empty(t, p.Search)
	assert.Empty(t, p.Filters)
	assert.Equal(t, SortParams{Field: "", Order: "asc"}, p.Sort)
}

func TestParseQueryParamsPaging(t *testing.T) {
	tests := []struct {
		query string
		skip  int
		take  int
	}{
		{"skip=10&take=20", 10, 20},
		{"take=1000", 0, MaxTake},
		{"take=-3", 0, 1},
		{"skip=-1&take=5", 0, 5},
		{"skip=abc&take=xyz", 0, DefaultTake},
		{"page=3&limit=10", 20, 10},
		{"page=0", 0, DefaultTake},
		{"skip=7&page=3", 7, DefaultTake},
		{"page=9223372036854775807&take=10", (MaxSkip / 10) * 10, 10},
		{"skip=9223372036854775807", MaxSkip, DefaultTake},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := parse(tt.query)
			assert.Equal(t, tt.skip, p.Skip)
			assert.Equal(t, tt.take, p.Take)
		})
	}
}

func TestParseQueryParamsFiltersAndSort(t *testing.T) {
	p := parse("filters[email]=ash@example.com&filters[name]=&search=%20Pika%20&sort[field]=name&sort[order]=DESC")

	assert.Equal(t, map[string]string{"email": "ash@example.com"}, p.Filters)
	assert.Equal(t, "Pika", p.Search)
	assert.Equal(t, SortParams{Field: "name", Order: "desc"}, p.Sort)

	p = parse("sort[field]=name&sort[order]=sideways")
	assert.Equal(t, "asc", p.Sort.Order)
}

func TestBuildPaginationResponse(t *testing.T) {
	assert.Equal(t, PaginationResponse{
		Page: 1, TotalPages: 3, PageSize: 5, TotalRecords: 12, HasNext: true, HasPrev: false,
	}, BuildPaginationResponse(0, 5, 12))

	assert.Equal(t, PaginationResponse{
		Page: 3, TotalPages: 3, PageSize: 5, TotalRecords: 12, HasNext: false, HasPrev: true,
	}, BuildPaginationResponse(10, 5, 12))

	assert.Equal(t, PaginationResponse{
		Page: 1, TotalPages: 0, PageSize: 5, TotalRecords: 0, HasNext: false, HasPrev: false,
	}, BuildPaginationResponse(0, 5, 0))

	assert.Equal(t, DefaultTake, BuildPaginationResponse(0, 0, 3).PageSize)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "pika", EscapeLike("pika"))
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `mr\_mime`, EscapeLike("mr_mime"))
	assert.Equal(t, `a\\b`, EscapeLike(`a\b`))
}
