package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rflorenc/crm-workbench/internal/platform"
)

// Handler runs one operation from JSON-encoded arguments.
type Handler func(ctx context.Context, s *Service, args json.RawMessage) interface{}

// Operation is one named capability. Aliases are older names kept for
// existing callers; they share the handler.
type Operation struct {
	Name        string
	Aliases     []string
	Description string
	Invoke      Handler
}

// Operations lists every capability in display order.
var Operations = []Operation{
	{
		Name:        "resolve_and_query_records",
		Aliases:     []string{"search_records", "query_records"},
		Description: "Query records of one object type with an optional filter, sorts and name/email search.",
		Invoke:      bind((*Service).ResolveAndQueryRecords),
	},
	{
		Name:        "resolve_and_query_list_entries",
		Aliases:     []string{"get_list_entries", "query_list_entries"},
		Description: "Resolve a list by name or ID and query its entries with an optional filter.",
		Invoke:      bind((*Service).ResolveAndQueryListEntries),
	},
	{
		Name:        "list_statuses",
		Aliases:     []string{"get_list_statuses"},
		Description: "List the distinct status values seen on a list's entries (sampled from 100 entries).",
		Invoke:      bind((*Service).ListStatuses),
	},
	{
		Name:        "add_many_to_list",
		Aliases:     []string{"bulk_add_to_list", "add_to_list"},
		Description: "Resolve many people or companies by name, email or ID and add each to a list.",
		Invoke: bind(func(s *Service, ctx context.Context, args AddManyArgs) *BulkResult {
			return s.AddManyToList(ctx, args, nil)
		}),
	},
	{
		Name:        "create_note_on_record",
		Aliases:     []string{"create_note"},
		Description: "Resolve a record by name, email or ID and attach a plaintext note.",
		Invoke:      bind((*Service).CreateNoteOnRecord),
	},
	{
		Name:        "update_list_entry_attributes",
		Aliases:     []string{"update_list_entry"},
		Description: "Overwrite entry attribute values (such as status) on one list entry.",
		Invoke:      bind((*Service).UpdateListEntryAttributes),
	},
	{
		Name:        "list_lists",
		Description: "List every list in the workspace.",
		Invoke:      bind((*Service).ListLists),
	},
	{
		Name:        "list_objects",
		Description: "List every object type in the workspace.",
		Invoke:      bind((*Service).ListObjects),
	},
	{
		Name:        "list_attributes",
		Description: "List the attributes of one object type with their types.",
		Invoke:      bind((*Service).ListAttributes),
	},
	{
		Name:        "who_am_i",
		Aliases:     []string{"get_workspace_info"},
		Description: "Show the workspace and scopes behind the active API key.",
		Invoke:      bind((*Service).WhoAmI),
	},
}

// bind adapts a typed operation method to a Handler.
func bind[A any, R any](fn func(*Service, context.Context, A) R) Handler {
	return func(ctx context.Context, s *Service, raw json.RawMessage) interface{} {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return invalidArguments(err)
			}
		}
		return fn(s, ctx, args)
	}
}

func invalidArguments(err error) Outcome {
	return Outcome{
		Message:    fmt.Sprintf("invalid arguments: %v", err),
		ErrorCode:  platform.CodeInvalidArgument,
		Suggestion: "arguments must be a JSON object matching the operation's fields",
	}
}

// Lookup finds an operation by canonical name or alias.
func Lookup(name string) (Operation, bool) {
	for _, op := range Operations {
		if op.Name == name {
			return op, true
		}
		for _, a := range op.Aliases {
			if a == name {
				return op, true
			}
		}
	}
	return Operation{}, false
}

// Names returns every canonical name and alias, sorted.
func Names() []string {
	var names []string
	for _, op := range Operations {
		names = append(names, op.Name)
		names = append(names, op.Aliases...)
	}
	sort.Strings(names)
	return names
}

// Invoke runs an operation by name. Unknown names yield an
// invalid_argument result.
func (s *Service) Invoke(ctx context.Context, name string, args json.RawMessage) interface{} {
	op, ok := Lookup(name)
	if !ok {
		return Outcome{
			Message:    fmt.Sprintf("unknown operation %q", name),
			ErrorCode:  platform.CodeInvalidArgument,
			Suggestion: "use one of the listed operation names",
			Candidates: Names(),
		}
	}
	return op.Invoke(ctx, s, args)
}
