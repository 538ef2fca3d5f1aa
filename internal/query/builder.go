// Package query builds filter/sort/pagination payloads, dispatches record
// and list entry queries, and normalizes the results.
package query

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Params holds the optional parts of a query.
type Params struct {
	Filter models.Filter
	Sorts  []models.Sort
	Limit  int
	Offset int
}

// Result is a normalized page of records or list entries. A query with no
// matches is a Result with Empty set, not an error.
type Result struct {
	Records []models.Record `json:"records"`
	Count   int             `json:"count"`
	Empty   bool            `json:"empty"`
}

// Builder runs queries through a Gateway.
type Builder struct {
	gw platform.Gateway
}

// New creates a Builder.
func New(gw platform.Gateway) *Builder {
	return &Builder{gw: gw}
}

// ClampLimit applies the default for values below 1 and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Body encodes a query request body. filter and sorts are omitted when
// empty; limit is always present.
func Body(p Params) map[string]interface{} {
	body := map[string]interface{}{"limit": ClampLimit(p.Limit)}
	if f := p.Filter.Payload(); len(f) > 0 {
		body["filter"] = f
	}
	if len(p.Sorts) > 0 {
		body["sorts"] = p.Sorts
	}
	if p.Offset > 0 {
		body["offset"] = p.Offset
	}
	return body
}

type queryResponse struct {
	Data []map[string]interface{} `json:"data"`
}

// RawRecords runs POST /objects/{type}/records/query and returns raw records.
func (b *Builder) RawRecords(ctx context.Context, objectType string, p Params) ([]map[string]interface{}, error) {
	if objectType == "" {
		return nil, platform.BadRequest("object type is required")
	}
	path := fmt.Sprintf("/objects/%s/records/query", url.PathEscape(objectType))
	return b.run(ctx, path, p)
}

// RawEntries runs POST /lists/{id}/entries/query and returns raw entries.
func (b *Builder) RawEntries(ctx context.Context, listID string, p Params) ([]map[string]interface{}, error) {
	if listID == "" {
		return nil, platform.BadRequest("list id is required")
	}
	path := fmt.Sprintf("/lists/%s/entries/query", url.PathEscape(listID))
	return b.run(ctx, path, p)
}

// QueryRecords queries records of one object type and normalizes them.
func (b *Builder) QueryRecords(ctx context.Context, objectType string, p Params) (*Result, error) {
	raws, err := b.RawRecords(ctx, objectType, p)
	if err != nil {
		return nil, err
	}
	records, err := NormalizeRecords(raws)
	if err != nil {
		return nil, err
	}
	return newResult(records), nil
}

// QueryListEntries queries entries of one list and normalizes them.
func (b *Builder) QueryListEntries(ctx context.Context, listID string, p Params) (*Result, error) {
	raws, err := b.RawEntries(ctx, listID, p)
	if err != nil {
		return nil, err
	}
	entries, err := NormalizeEntries(raws)
	if err != nil {
		return nil, err
	}
	return newResult(entries), nil
}

func (b *Builder) run(ctx context.Context, path string, p Params) ([]map[string]interface{}, error) {
	var resp queryResponse
	if err := b.gw.DoJSON(ctx, http.MethodPost, path, Body(p), &resp); err != nil {
		return nil, explain(err)
	}
	return resp.Data, nil
}

func newResult(records []models.Record) *Result {
	return &Result{Records: records, Count: len(records), Empty: len(records) == 0}
}
