// Package operations is the caller-facing capability surface. Every
// operation takes plain structured arguments and returns a structured
// result; failures are reported in the result, never returned as errors.
package operations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rflorenc/crm-workbench/internal/bulk"
	"github.com/rflorenc/crm-workbench/internal/catalog"
	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
	"github.com/rflorenc/crm-workbench/internal/query"
	"github.com/rflorenc/crm-workbench/internal/resolve"
)

// DefaultObjectType is used when a record operation names no object type.
const DefaultObjectType = "people"

// Options configures a Service.
type Options struct {
	Logger            *log.Logger
	BulkWorkers       int
	BulkRatePerSecond float64
}

// Service runs operations against one configured gateway.
type Service struct {
	client *platform.Client
	opts   Options
	logger *log.Logger
}

// NewService creates a Service. client carries the configured credential;
// each operation may override it with an api_key argument.
func NewService(client *platform.Client, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{client: client, opts: opts, logger: logger}
}

func (s *Service) gateway(apiKey string) *platform.Client {
	return s.client.WithAPIKey(apiKey)
}

func (s *Service) fail(op string, err error) Outcome {
	out := Failure(err)
	s.logger.Warn("operation failed", "op", op, "code", out.ErrorCode, "err", err)
	return out
}

// listIdentifier prefers the explicit list_id argument over the untyped list.
func listIdentifier(list, listID string) models.Identifier {
	if strings.TrimSpace(listID) != "" {
		return models.IDOf(listID)
	}
	return models.ParseIdentifier(list)
}

func recordIdentifier(record, recordID string) models.Identifier {
	if strings.TrimSpace(recordID) != "" {
		return models.IDOf(recordID)
	}
	return models.ParseIdentifier(record)
}

func objectTypeOrDefault(t string) string {
	if t = strings.TrimSpace(t); t != "" {
		return t
	}
	return DefaultObjectType
}

func buildParams(filter map[string]interface{}, sorts []interface{}, limit, offset int) (query.Params, error) {
	p := query.Params{Limit: limit, Offset: offset}
	if len(filter) > 0 {
		f, err := models.ParseFilter(filter)
		if err != nil {
			return p, invalidFilter(err)
		}
		p.Filter = f
	}
	if len(sorts) > 0 {
		ss, err := models.ParseSorts(sorts)
		if err != nil {
			return p, invalidFilter(err)
		}
		p.Sorts = ss
	}
	return p, nil
}

// QueryRecordsArgs are the arguments of resolve_and_query_records.
type QueryRecordsArgs struct {
	ObjectType string                 `json:"object_type"`
	Search     string                 `json:"search,omitempty"`
	Filter     map[string]interface{} `json:"filter,omitempty"`
	Sorts      []interface{}          `json:"sorts,omitempty"`
	Limit      int                    `json:"limit,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
	APIKey     string                 `json:"api_key,omitempty"`
}

// RecordsResult carries normalized records.
type RecordsResult struct {
	Outcome
	ObjectType string          `json:"object_type"`
	Records    []models.Record `json:"records"`
	Count      int             `json:"count"`
}

// ResolveAndQueryRecords queries records of one object type. Search adds a
// contains condition on name, or on email_addresses when it looks like an
// email.
func (s *Service) ResolveAndQueryRecords(ctx context.Context, args QueryRecordsArgs) *RecordsResult {
	res := &RecordsResult{ObjectType: objectTypeOrDefault(args.ObjectType), Records: []models.Record{}}
	p, err := buildParams(args.Filter, args.Sorts, args.Limit, args.Offset)
	if err != nil {
		res.Outcome = s.fail("resolve_and_query_records", err)
		return res
	}
	if search := strings.TrimSpace(args.Search); search != "" {
		attr := "name"
		if strings.Contains(search, "@") {
			attr = "email_addresses"
		}
		p.Filter = append(p.Filter, models.Condition{Attribute: attr, Operator: models.OpContains, Value: search})
	}

	out, err := query.New(s.gateway(args.APIKey)).QueryRecords(ctx, res.ObjectType, p)
	if err != nil {
		res.Outcome = s.fail("resolve_and_query_records", err)
		return res
	}
	res.Records, res.Count = out.Records, out.Count
	if out.Empty {
		res.Outcome = OK("no %s records matched", res.ObjectType)
		return res
	}
	res.Outcome = OK("found %d %s records", out.Count, res.ObjectType)
	return res
}

// QueryEntriesArgs are the arguments of resolve_and_query_list_entries.
type QueryEntriesArgs struct {
	List   string                 `json:"list"`
	ListID string                 `json:"list_id,omitempty"`
	Filter map[string]interface{} `json:"filter,omitempty"`
	Sorts  []interface{}          `json:"sorts,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
	APIKey string                 `json:"api_key,omitempty"`
}

// EntriesResult carries normalized list entries.
type EntriesResult struct {
	Outcome
	ListID   string          `json:"list_id,omitempty"`
	ListName string          `json:"list_name,omitempty"`
	Entries  []models.Record `json:"entries"`
	Count    int             `json:"count"`
}

// ResolveAndQueryListEntries resolves a list by name or ID and queries its
// entries.
func (s *Service) ResolveAndQueryListEntries(ctx context.Context, args QueryEntriesArgs) *EntriesResult {
	res := &EntriesResult{Entries: []models.Record{}}
	p, err := buildParams(args.Filter, args.Sorts, args.Limit, args.Offset)
	if err != nil {
		res.Outcome = s.fail("resolve_and_query_list_entries", err)
		return res
	}
	gw := s.gateway(args.APIKey)
	list, err := resolve.New(gw).ResolveList(ctx, listIdentifier(args.List, args.ListID))
	if err != nil {
		res.Outcome = s.fail("resolve_and_query_list_entries", err)
		return res
	}
	res.ListID, res.ListName = list.ID, list.Name

	out, err := query.New(gw).QueryListEntries(ctx, list.ID, p)
	if err != nil {
		res.Outcome = s.fail("resolve_and_query_list_entries", err)
		return res
	}
	res.Entries, res.Count = out.Records, out.Count
	if out.Empty {
		res.Outcome = OK("no entries in %s matched", list.Name)
		return res
	}
	res.Outcome = OK("found %d entries in %s", out.Count, list.Name)
	return res
}

// ListStatusesArgs are the arguments of list_statuses.
type ListStatusesArgs struct {
	List   string `json:"list"`
	ListID string `json:"list_id,omitempty"`
	APIKey string `json:"api_key,omitempty"`
}

// StatusesResult carries the status catalog of a list.
type StatusesResult struct {
	Outcome
	ListID   string               `json:"list_id,omitempty"`
	ListName string               `json:"list_name,omitempty"`
	Statuses []models.StatusValue `json:"statuses"`
	Count    int                  `json:"count"`
}

// ListStatuses returns the distinct statuses observed on a list's entries.
func (s *Service) ListStatuses(ctx context.Context, args ListStatusesArgs) *StatusesResult {
	res := &StatusesResult{Statuses: []models.StatusValue{}}
	list, statuses, err := catalog.New(s.gateway(args.APIKey)).ListStatuses(ctx, listIdentifier(args.List, args.ListID))
	res.ListID, res.ListName = list.ID, list.Name
	if err != nil {
		res.Outcome = s.fail("list_statuses", err)
		return res
	}
	res.Statuses, res.Count = statuses, len(statuses)
	if len(statuses) == 0 {
		res.Outcome = OK("no statuses found in the first %d entries of %s", catalog.SampleSize, list.Name)
		return res
	}
	res.Outcome = OK("found %d statuses in %s (sampled %d entries)", len(statuses), list.Name, catalog.SampleSize)
	return res
}

// AddManyArgs are the arguments of add_many_to_list.
type AddManyArgs struct {
	List         string                 `json:"list"`
	ListID       string                 `json:"list_id,omitempty"`
	Identifiers  []string               `json:"identifiers,omitempty"`
	RecordIDs    []string               `json:"record_ids,omitempty"`
	EntryValues  map[string]interface{} `json:"entry_values,omitempty"`
	ParentObject string                 `json:"parent_object,omitempty"`
	APIKey       string                 `json:"api_key,omitempty"`
}

// Items returns the identifiers to add, untyped ones first, in order.
func (a AddManyArgs) Items() []models.Identifier {
	items := make([]models.Identifier, 0, len(a.Identifiers)+len(a.RecordIDs))
	for _, s := range a.Identifiers {
		items = append(items, models.ParseIdentifier(s))
	}
	for _, s := range a.RecordIDs {
		items = append(items, models.IDOf(s))
	}
	return items
}

// BulkResult carries a bulk summary.
type BulkResult struct {
	Outcome
	ListID   string `json:"list_id,omitempty"`
	ListName string `json:"list_name,omitempty"`
	models.BulkSummary
}

// AddManyToList adds records to a list one item at a time. progress, when
// non-nil, receives one line per finished item.
func (s *Service) AddManyToList(ctx context.Context, args AddManyArgs, progress func(string)) *BulkResult {
	res := &BulkResult{BulkSummary: models.NewBulkSummary(nil)}
	items := args.Items()
	if len(items) == 0 {
		res.Outcome = s.fail("add_many_to_list", platform.BadRequest("identifiers is empty"))
		return res
	}
	coord := bulk.New(s.gateway(args.APIKey), bulk.Options{
		Workers:       s.opts.BulkWorkers,
		RatePerSecond: s.opts.BulkRatePerSecond,
		ParentObject:  strings.TrimSpace(args.ParentObject),
		Progress:      progress,
		Logger:        s.logger,
	})
	list, summary, err := coord.AddToList(ctx, listIdentifier(args.List, args.ListID), items, args.EntryValues)
	if err != nil {
		res.Outcome = s.fail("add_many_to_list", err)
		return res
	}
	res.ListID, res.ListName, res.BulkSummary = list.ID, list.Name, summary
	res.Outcome = bulkOutcome(list.Name, summary)
	return res
}

func bulkOutcome(listName string, summary models.BulkSummary) Outcome {
	switch {
	case summary.Failed == 0:
		return OK("added %d of %d to %s", summary.Successful, summary.Attempted, listName)
	case summary.Successful > 0:
		out := OK("added %d of %d to %s; %d failed", summary.Successful, summary.Attempted, listName, summary.Failed)
		out.ErrorCode = platform.CodePartialFailure
		out.Suggestion = "check the failed results and resubmit them with a more specific name or the record ID"
		return out
	}
	return Outcome{
		Message:    fmt.Sprintf("none of the %d items could be added to %s", summary.Attempted, listName),
		ErrorCode:  platform.CodePartialFailure,
		Suggestion: "check the per-item messages; resolve names with resolve_and_query_records first",
	}
}

// CreateNoteArgs are the arguments of create_note_on_record.
type CreateNoteArgs struct {
	ObjectType string `json:"object_type,omitempty"`
	Record     string `json:"record"`
	RecordID   string `json:"record_id,omitempty"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	APIKey     string `json:"api_key,omitempty"`
}

// NoteResult carries a created note.
type NoteResult struct {
	Outcome
	ObjectType string                 `json:"object_type"`
	RecordID   string                 `json:"record_id,omitempty"`
	RecordName string                 `json:"record_name,omitempty"`
	Note       map[string]interface{} `json:"note,omitempty"`
}

type dataResponse struct {
	Data map[string]interface{} `json:"data"`
}

// CreateNoteOnRecord resolves a record and attaches a plaintext note to it.
func (s *Service) CreateNoteOnRecord(ctx context.Context, args CreateNoteArgs) *NoteResult {
	res := &NoteResult{ObjectType: objectTypeOrDefault(args.ObjectType)}
	if strings.TrimSpace(args.Title) == "" {
		res.Outcome = s.fail("create_note_on_record", platform.BadRequest("title is required"))
		return res
	}
	gw := s.gateway(args.APIKey)
	recordID, name, err := resolve.New(gw).ResolveRecord(ctx, res.ObjectType, recordIdentifier(args.Record, args.RecordID))
	if err != nil {
		res.Outcome = s.fail("create_note_on_record", err)
		return res
	}
	res.RecordID, res.RecordName = recordID, name

	body := map[string]interface{}{
		"data": map[string]interface{}{
			"parent_object":    res.ObjectType,
			"parent_record_id": recordID,
			"title":            args.Title,
			"format":           "plaintext",
			"content":          args.Content,
		},
	}
	var resp dataResponse
	if err := gw.DoJSON(ctx, http.MethodPost, "/notes", body, &resp); err != nil {
		res.Outcome = s.fail("create_note_on_record", err)
		return res
	}
	res.Note = noteSummary(resp.Data)
	res.Outcome = OK("note %q added to %s", args.Title, name)
	return res
}

func noteSummary(raw map[string]interface{}) map[string]interface{} {
	note := map[string]interface{}{"note_id": models.NestedID(raw, "note_id")}
	for _, k := range []string{"title", "parent_object", "parent_record_id", "content_plaintext", "created_at"} {
		if v := models.StringField(raw, k); v != "" {
			note[k] = v
		}
	}
	return note
}

// UpdateEntryArgs are the arguments of update_list_entry_attributes.
type UpdateEntryArgs struct {
	List        string                 `json:"list"`
	ListID      string                 `json:"list_id,omitempty"`
	EntryID     string                 `json:"entry_id"`
	EntryValues map[string]interface{} `json:"entry_values"`
	APIKey      string                 `json:"api_key,omitempty"`
}

// EntryResult carries one normalized list entry.
type EntryResult struct {
	Outcome
	ListID   string        `json:"list_id,omitempty"`
	ListName string        `json:"list_name,omitempty"`
	Entry    models.Record `json:"entry,omitempty"`
}

// UpdateListEntryAttributes overwrites entry attribute values on one entry.
func (s *Service) UpdateListEntryAttributes(ctx context.Context, args UpdateEntryArgs) *EntryResult {
	res := &EntryResult{}
	switch {
	case strings.TrimSpace(args.EntryID) == "":
		res.Outcome = s.fail("update_list_entry_attributes", platform.BadRequest("entry_id is required"))
		return res
	case len(args.EntryValues) == 0:
		res.Outcome = s.fail("update_list_entry_attributes", platform.BadRequest("entry_values is empty"))
		return res
	}
	gw := s.gateway(args.APIKey)
	list, err := resolve.New(gw).ResolveList(ctx, listIdentifier(args.List, args.ListID))
	if err != nil {
		res.Outcome = s.fail("update_list_entry_attributes", err)
		return res
	}
	res.ListID, res.ListName = list.ID, list.Name

	body := map[string]interface{}{"data": map[string]interface{}{"entry_values": args.EntryValues}}
	path := fmt.Sprintf("/lists/%s/entries/%s", url.PathEscape(list.ID), url.PathEscape(strings.TrimSpace(args.EntryID)))
	var resp dataResponse
	if err := gw.DoJSON(ctx, http.MethodPut, path, body, &resp); err != nil {
		res.Outcome = s.fail("update_list_entry_attributes", err)
		return res
	}
	entry, err := query.NormalizeEntry(resp.Data)
	if err != nil {
		res.Outcome = s.fail("update_list_entry_attributes", err)
		return res
	}
	res.Entry = entry
	res.Outcome = OK("updated entry %s in %s", entry.ID(), list.Name)
	return res
}
