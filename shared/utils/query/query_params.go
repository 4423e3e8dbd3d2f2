package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultTake = 5
	MaxTake     = 100
	// MaxSkip keeps skip+take and page arithmetic clear of int overflow
	MaxSkip = math.MaxInt32
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// EscapeLike makes s match literally inside a LIKE pattern using '\' as the escape
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// FilterParams represents filtering parameters
type FilterParams struct {
	Filters map[string]string `json:"filters"`
	Sort    SortParams        `json:"sort"`
	Skip    int               `json:"skip"`
	Take    int               `json:"take"`
	Search  string            `json:"search"`
}

// SortParams represents sorting parameters
type SortParams struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	Page         int   `json:"page"`
	TotalPages   int64 `json:"totalPages"`
	PageSize     int   `json:"pageSize"`
	TotalRecords int64 `json:"totalRecords"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// ParseQueryParams extracts standardized query parameters from Gin context.
// Pagination is skip/take; page/limit is accepted as an alternative.
func ParseQueryParams(c *gin.Context) FilterParams {
	take := atoiOr(c.Query("take"), 0)
	if take == 0 {
		take = atoiOr(c.Query("limit"), DefaultTake)
	}
	if take < 1 {
		take = 1
	}
	if take > MaxTake {
		take = MaxTake
	}

	skip := atoiOr(c.Query("skip"), -1)
	if skip < 0 {
		page := atoiOr(c.Query("page"), 1)
		if page < 1 {
			page = 1
		}
		if maxPage := MaxSkip/take + 1; page > maxPage {
			page = maxPage
		}
		skip = (page - 1) * take
	}
	if skip > MaxSkip {
		skip = MaxSkip
	}

	search := strings.TrimSpace(c.Query("search"))

	// Parse filters - format: filters[field_name]=value
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "filters[") && strings.HasSuffix(key, "]") {
			fieldName := key[8 : len(key)-1]
			if len(values) > 0 && values[0] != "" {
				filters[fieldName] = values[0]
			}
		}
	}

	// Parse sorting - format: sort[field]=field_name&sort[order]=asc|desc
	sortField := c.Query("sort[field]")
	sortOrder := strings.ToLower(c.Query("sort[order]"))
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}

	return FilterParams{
		Filters: filters,
		Sort: SortParams{
			Field: sortField,
			Order: sortOrder,
		},
		Skip:   skip,
		Take:   take,
		Search: search,
	}
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// ApplyFilters applies filters to a GORM query
func ApplyFilters(query *gorm.DB, filters map[string]string, allowedFields map[string]string) *gorm.DB {
	for field, value := range filters {
		if dbField, allowed := allowedFields[field]; allowed && value != "" {
			query = query.Where(fmt.Sprintf("%s = ?", dbField), value)
		}
	}
	return query
}

// ApplySearch applies a case-insensitive search to specified fields
func ApplySearch(query *gorm.DB, search string, searchFields []string) *gorm.DB {
	if search == "" || len(searchFields) == 0 {
		return query
	}

	conditions := make([]string, len(searchFields))
	args := make([]interface{}, len(searchFields))

	for i, field := range searchFields {
		conditions[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, field)
		args[i] = "%" + EscapeLike(strings.ToLower(search)) + "%"
	}

	whereClause := strings.Join(conditions, " OR ")
	return query.Where(whereClause, args...)
}

// ApplySort applies sorting to a GORM query, falling back to defaultOrder
func ApplySort(query *gorm.DB, sort SortParams, allowedSortFields map[string]string, defaultOrder string) *gorm.DB {
	if dbField, allowed := allowedSortFields[sort.Field]; allowed {
		orderClause := fmt.Sprintf("%s %s", dbField, strings.ToUpper(sort.Order))
		return query.Order(orderClause)
	}
	return query.Order(defaultOrder)
}

// ApplyPagination applies pagination to a GORM query
func ApplyPagination(query *gorm.DB, skip, take int) *gorm.DB {
	return query.Offset(skip).Limit(take)
}

// BuildPaginationResponse creates pagination metadata
func BuildPaginationResponse(skip, take int, total int64) PaginationResponse {
	if take < 1 {
		take = DefaultTake
	}
	totalPages := (total + int64(take) - 1) / int64(take)
	page := skip/take + 1

	return PaginationResponse{
		Page:         page,
		TotalPages:   totalPages,
		PageSize:     take,
		TotalRecords: total,
		HasNext:      int64(skip+take) < total,
		HasPrev:      skip > 0,
	}
}
