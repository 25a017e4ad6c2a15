package catalog

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListParams carries the common list controls (search/sort/pagination) every
// catalog listing accepts.
type ListParams struct {
	Search   string
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

func ParseListParams(c *fiber.Ctx) ListParams {
	p := ListParams{
		Search:   strings.TrimSpace(c.Query("search")),
		SortBy:   strings.TrimSpace(c.Query("sort_by")),
		SortDir:  strings.ToLower(strings.TrimSpace(c.Query("sort_dir"))),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 25),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 200 {
		p.PageSize = 25
	}
	return p
}

// QuerySpec is a per-entity whitelist of searchable and sortable columns.
// User input never reaches the SQL text: search terms are bound parameters
// and sort keys are looked up here, so an unknown sort_by falls back to the
// default instead of being interpolated.
type QuerySpec struct {
	SearchColumns []string
	SortColumns   map[string]string
	DefaultSort   string // column name, must appear in SortColumns values
}

// ApplySearch adds only the search predicate. List handlers use it for the
// total count, which must ignore sorting and pagination.
func (s QuerySpec) ApplySearch(dbq *gorm.DB, p ListParams) *gorm.DB {
	if p.Search != "" && len(s.SearchColumns) > 0 {
		pattern := "%" + p.Search + "%"
		conds := make([]string, 0, len(s.SearchColumns))
		args := make([]interface{}, 0, len(s.SearchColumns))
		for _, col := range s.SearchColumns {
			conds = append(conds, col+" ILIKE ?")
			args = append(args, pattern)
		}
		dbq = dbq.Where(strings.Join(conds, " OR "), args...)
	}
	return dbq
}

func (s QuerySpec) Apply(dbq *gorm.DB, p ListParams) *gorm.DB {
	dbq = s.ApplySearch(dbq, p)

	column := s.DefaultSort
	if mapped, ok := s.SortColumns[p.SortBy]; ok {
		column = mapped
	}
	dir := "asc"
	if p.SortDir == "desc" {
		dir = "desc"
	}
	dbq = dbq.Order(fmt.Sprintf("%s %s", column, dir))

	return dbq.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}
