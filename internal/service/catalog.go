package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

const (
	CategoryRequestType = "request_type"
	CategoryServiceType = "service_type"
	CategoryStatus      = "status"
	CategoryChannel     = "channel"
	CategoryDepartment  = "department"
	CategoryDetail      = "detail"
)

var categoryAliases = map[string]string{
	"requesttype":   CategoryRequestType,
	"request":       CategoryRequestType,
	"loaiyeucau":    CategoryRequestType,
	"servicetype":   CategoryServiceType,
	"service":       CategoryServiceType,
	"dichvu":        CategoryServiceType,
	"status":        CategoryStatus,
	"trangthai":     CategoryStatus,
	"channel":       CategoryChannel,
	"kenh":          CategoryChannel,
	"department":    CategoryDepartment,
	"phongban":      CategoryDepartment,
	"detail":        CategoryDetail,
	"details":       CategoryDetail,
	"requestdetail": CategoryDetail,
	"chitiet":       CategoryDetail,
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Catalog is the dropdown taxonomy. Details maps a request type to the
// detail options allowed for it.
type Catalog struct {
	Categories map[string][]Option `json:"categories"`
	Details    map[string][]Option `json:"details"`
	LoadedAt   time.Time           `json:"loaded_at"`
}

func normalizeCategory(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	compact := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if c, ok := categoryAliases[compact]; ok {
		return c
	}
	return key
}

// BuildCatalog partitions config rows by dropdown name, keeping row order
// and dropping repeated values.
func BuildCatalog(rows []models.ConfigRow) *Catalog {
	cat := &Catalog{
		Categories: map[string][]Option{},
		Details:    map[string][]Option{},
	}
	seen := map[string]map[string]bool{}
	add := func(m map[string][]Option, scope, key string, opt Option) {
		if seen[scope] == nil {
			seen[scope] = map[string]bool{}
		}
		if seen[scope][opt.Value] {
			return
		}
		seen[scope][opt.Value] = true
		m[key] = append(m[key], opt)
	}

	for _, row := range rows {
		value := strings.TrimSpace(row.Value1)
		extra := strings.TrimSpace(row.Value2)
		category := normalizeCategory(row.DropdownName)
		if value == "" || category == "" {
			continue
		}
		if category == CategoryDetail {
			add(cat.Categories, CategoryDetail, CategoryDetail, Option{Value: value, Label: value})
			if extra != "" {
				add(cat.Details, "detail:"+extra, extra, Option{Value: value, Label: value})
			}
			continue
		}
		label := extra
		if label == "" {
			label = value
		}
		add(cat.Categories, category, category, Option{Value: value, Label: label})
	}
	return cat
}

func (c *Catalog) Options(category string) []Option {
	if c == nil {
		return nil
	}
	return c.Categories[category]
}

// Allows reports whether value is valid for category. Categories the
// catalog does not define accept any value.
func (c *Catalog) Allows(category, value string) bool {
	opts := c.Options(category)
	if len(opts) == 0 {
		return true
	}
	return containsOption(opts, value)
}

// AllowsDetail reports whether detail belongs to requestType. Request types
// without a detail list accept any detail.
func (c *Catalog) AllowsDetail(requestType, detail string) bool {
	if c == nil {
		return true
	}
	opts := c.Details[requestType]
	if len(opts) == 0 {
		return true
	}
	return containsOption(opts, detail)
}

func containsOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// CatalogCache holds the loaded catalog; readers share it by pointer.
type CatalogCache struct {
	Store  db.Repository
	Logger zerolog.Logger

	current atomic.Pointer[Catalog]
}

func (c *CatalogCache) Load(ctx context.Context) (*Catalog, error) {
	rows, err := c.Store.ListConfigRows(ctx)
	if err != nil {
		return nil, err
	}
	cat := BuildCatalog(rows)
	cat.LoadedAt = time.Now().UTC()
	c.current.Store(cat)
	c.Logger.Info().Int("rows", len(rows)).Int("categories", len(cat.Categories)).Msg("catalog loaded")
	return cat, nil
}

// Get returns the last loaded catalog, or an empty one before the first load.
func (c *CatalogCache) Get() *Catalog {
	if cat := c.current.Load(); cat != nil {
		return cat
	}
	return BuildCatalog(nil)
}
