package crud

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"property-service/prometheus"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup or write matches no row
var ErrNotFound = gorm.ErrRecordNotFound

// Filter binds a query parameter to a column
type Filter struct {
	Param  string
	Column string
}

// Query describes a denormalised read over one table and its joins
type Query struct {
	Table   string // table with alias, e.g. "properties p"
	Select  string
	Joins   []string
	Filters []Filter
	Order   string
}

func (q Query) from(ctx context.Context, db *gorm.DB) *gorm.DB {
	tx := db.WithContext(ctx).Table(q.Table)
	for _, j := range q.Joins {
		tx = tx.Joins(j)
	}
	return tx
}

func (q Query) filtered(ctx context.Context, db *gorm.DB, params url.Values, scopes []func(*gorm.DB) *gorm.DB) *gorm.DB {
	tx := q.from(ctx, db)
	for _, f := range q.Filters {
		if v := strings.TrimSpace(params.Get(f.Param)); v != "" {
			tx = tx.Where(f.Column+" = ?", v)
		}
	}
	if len(scopes) > 0 {
		tx = tx.Scopes(scopes...)
	}
	return tx
}

// List counts the rows matching the whitelisted filters in params and scans
// one page of them into dest, which must point to a slice.
func (q Query) List(ctx context.Context, db *gorm.DB, params url.Values, page Page, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	start := time.Now()
	if err := q.filtered(ctx, db, params, scopes).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Table, err)
	}
	prometheus.TrackDBOperation("count")(start)

	defer prometheus.TrackDBOperation("query")(time.Now())
	tx := q.filtered(ctx, db, params, scopes).Select(q.Select)
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if err := tx.Limit(page.Limit).Offset(page.Offset).Scan(dest).Error; err != nil {
		return 0, fmt.Errorf("list %s: %w", q.Table, err)
	}
	return total, nil
}

// All scans every row matching the whitelisted filters in params
func (q Query) All(ctx context.Context, db *gorm.DB, params url.Values, dest interface{}) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	tx := q.filtered(ctx, db, params, nil).Select(q.Select)
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if err := tx.Scan(dest).Error; err != nil {
		return fmt.Errorf("all %s: %w", q.Table, err)
	}
	return nil
}

// Find scans every row matching where, without pagination
func (q Query) Find(ctx context.Context, db *gorm.DB, dest interface{}, where string, args ...interface{}) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	tx := q.from(ctx, db).Select(q.Select).Where(where, args...)
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if err := tx.Scan(dest).Error; err != nil {
		return fmt.Errorf("find %s: %w", q.Table, err)
	}
	return nil
}

// Page scans one page of rows matching where
func (q Query) Page(ctx context.Context, db *gorm.DB, page Page, dest interface{}, where string, args ...interface{}) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	tx := q.from(ctx, db).Select(q.Select).Where(where, args...)
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if err := tx.Limit(page.Limit).Offset(page.Offset).Scan(dest).Error; err != nil {
		return fmt.Errorf("page %s: %w", q.Table, err)
	}
	return nil
}

// Get scans the single row whose id column equals id into dest.
// idColumn is qualified with the table alias, e.g. "p.id".
func (q Query) Get(ctx context.Context, db *gorm.DB, idColumn, id string, dest interface{}) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	res := q.from(ctx, db).Select(q.Select).Where(idColumn+" = ?", id).Limit(1).Scan(dest)
	if res.Error != nil {
		return fmt.Errorf("get %s: %w", q.Table, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts a model row
func Create(ctx context.Context, db *gorm.DB, value interface{}) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.WithContext(ctx).Create(value).Error; err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Update applies changes to the row of model with id and refreshes
// updated_at. Omitted fields keep their stored values.
func Update(ctx context.Context, db *gorm.DB, model interface{}, id string, changes map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	if changes == nil {
		changes = map[string]interface{}{}
	}
	changes["updated_at"] = time.Now()

	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row of model with id
func Delete(ctx context.Context, db *gorm.DB, model interface{}, id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Load reads the model row with id into dest
func Load(ctx context.Context, db *gorm.DB, dest interface{}, id string) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	err := db.WithContext(ctx).Where("id = ?", id).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Exists reports whether a row with id exists in model's table
func Exists(ctx context.Context, db *gorm.DB, model interface{}, id string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
