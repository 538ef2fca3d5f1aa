// Package bulk adds many records to a list, isolating per-item failures.
package bulk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
	"github.com/rflorenc/crm-workbench/internal/resolve"
)

// Options tunes a bulk run. The zero value runs sequentially, unpaced.
type Options struct {
	Workers       int
	RatePerSecond float64
	// ParentObject overrides the list's parent object type.
	ParentObject string
	// Progress receives one human-readable line per finished item. It must be
	// safe for concurrent use when Workers > 1.
	Progress func(string)
	Logger   *log.Logger
}

// Coordinator runs bulk list additions.
type Coordinator struct {
	gw       platform.Gateway
	resolver *resolve.Resolver
	opts     Options
	logger   *log.Logger
}

// New creates a Coordinator.
func New(gw platform.Gateway, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{gw: gw, resolver: resolve.New(gw), opts: opts, logger: logger}
}

type entryResponse struct {
	Data map[string]interface{} `json:"data"`
}

// AddToList resolves the list once, then resolves and adds every item.
// Only a list resolution failure is returned as an error; item failures are
// reported in the summary, in submission order.
func (c *Coordinator) AddToList(ctx context.Context, list models.Identifier, items []models.Identifier, entryValues map[string]interface{}) (models.ListInfo, models.BulkSummary, error) {
	info, err := c.resolver.ResolveList(ctx, list)
	if err != nil {
		return models.ListInfo{}, models.BulkSummary{}, err
	}
	parent := c.opts.ParentObject
	if parent == "" {
		if parent, err = c.resolver.ListParent(ctx, info); err != nil {
			return info, models.BulkSummary{}, err
		}
	}
	if entryValues == nil {
		entryValues = map[string]interface{}{}
	}
	c.logger.Info("bulk add started", "list", info.Name, "list_id", info.ID, "parent_object", parent, "items", len(items))

	var limiter *rate.Limiter
	if c.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.opts.RatePerSecond), 1)
	}

	results := make([]models.BulkItemResult, len(items))
	run := func(i int) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = models.BulkItemResult{Identifier: items[i].Value, Message: err.Error()}
				c.report(i, len(items), results[i])
				return
			}
		}
		results[i] = c.addOne(ctx, info.ID, parent, items[i], entryValues)
		c.report(i, len(items), results[i])
	}

	if c.opts.Workers <= 1 {
		for i := range items {
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.opts.Workers)
		for i := range items {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		// workers never return an error; item failures live in results
		_ = g.Wait()
	}

	summary := models.NewBulkSummary(results)
	c.logger.Info("bulk add finished", "list_id", info.ID, "successful", summary.Successful, "failed", summary.Failed)
	return info, summary, nil
}

func (c *Coordinator) addOne(ctx context.Context, listID, parent string, item models.Identifier, entryValues map[string]interface{}) models.BulkItemResult {
	res := models.BulkItemResult{Identifier: item.Value}
	if err := ctx.Err(); err != nil {
		res.Message = err.Error()
		return res
	}
	if item.IsEmpty() {
		res.Message = "identifier is empty"
		return res
	}

	recordID, name, err := c.resolver.ResolveRecord(ctx, parent, item)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	res.RecordID = recordID

	body := map[string]interface{}{
		"data": map[string]interface{}{
			"parent_record_id": recordID,
			"parent_object":    parent,
			"entry_values":     entryValues,
		},
	}
	var resp entryResponse
	path := fmt.Sprintf("/lists/%s/entries", url.PathEscape(listID))
	if err := c.gw.DoJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		res.Message = err.Error()
		return res
	}
	res.Success = true
	res.EntryID = models.NestedID(resp.Data, "entry_id")
	res.Message = "added " + name
	return res
}

func (c *Coordinator) report(i, total int, r models.BulkItemResult) {
	status := "ok"
	if !r.Success {
		status = "failed"
	}
	c.logger.Debug("bulk item", "index", i, "identifier", r.Identifier, "status", status)
	if c.opts.Progress != nil {
		c.opts.Progress(fmt.Sprintf("[%d/%d] %s %s: %s", i+1, total, status, r.Identifier, r.Message))
	}
}
