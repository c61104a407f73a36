// internal/app/system/paging/paging.go
package paging

import (
	"net/http"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the number of rows returned per page of a keyset list.
const PageSize = 50

// LimitPlusOne returns PageSize+1 for look-ahead pagination (fetch one
// extra document to detect another page).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// Params are the ?before= / ?after= cursors of a list request.
type Params struct {
	Before string
	After  string
}

// FromRequest reads the cursor query parameters.
func FromRequest(r *http.Request) Params {
	return Params{Before: query.Get(r, "before"), After: query.Get(r, "after")}
}

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims rows fetched with LimitPlusOne to one page.
//
// Going backwards (before set) the extra row is at the front and a next page
// always exists. Otherwise the extra row is at the end and a previous page
// exists only when after was set.
func TrimPage[T any](rows *[]T, p Params) Result {
	var res Result
	if p.Before != "" {
		if len(*rows) > PageSize {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}
	if len(*rows) > PageSize {
		*rows = (*rows)[:PageSize]
		res.HasNext = true
	}
	res.HasPrev = p.After != ""
	return res
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // ascending, cursor uses $gt
	Backward                  // descending, cursor uses $lt
)

// KeysetConfig is a decoded cursor plus the sort it implies.
type KeysetConfig struct {
	Direction Direction
	SortOrder int
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset decodes the cursor. An undecodable cursor starts from
// the first page.
func ConfigureKeyset(p Params) KeysetConfig {
	cfg := KeysetConfig{Direction: Forward, SortOrder: 1}
	switch {
	case p.Before != "":
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(p.Before); ok {
			cfg.Cursor = &c
		}
	case p.After != "":
		if c, ok := wafflemongo.DecodeCursor(p.After); ok {
			cfg.Cursor = &c
		}
	}
	return cfg
}

// ApplyToFind sets sort (sortField, _id) and the look-ahead limit.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(LimitPlusOne())
}

// KeysetWindow returns the filter condition that starts after the cursor,
// or nil on the first page.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Reverse reverses a slice in place; rows fetched backwards are reversed
// to restore display order.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// Page is the cursor block of a list response. Empty cursors are omitted.
type Page struct {
	PrevCursor string `json:"prevCursor,omitempty"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// BuildPage encodes cursors for the first and last rows, keeping only the
// directions that have more rows.
func BuildPage[T any](rows []T, res Result, keyFn func(T) string, idFn func(T) primitive.ObjectID) Page {
	if len(rows) == 0 {
		return Page{}
	}
	var p Page
	if res.HasPrev {
		first := rows[0]
		p.PrevCursor = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
	}
	if res.HasNext {
		last := rows[len(rows)-1]
		p.NextCursor = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	}
	return p
}
