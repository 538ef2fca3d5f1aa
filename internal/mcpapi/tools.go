package mcpapi

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rflorenc/crm-workbench/internal/operations"
)

const filterHelp = `Filter mapping {"<attribute_slug>": {"<operator>": value}}. Operators: $eq, $neq, $contains, ` +
	`$starts_with, $ends_with, $gt, $gte, $lt, $lte, $in, $not_empty. A plain value means $eq. ` +
	`Use {"<slug>": {"<property>": {...}}} for sub-properties such as name.full_name. ` +
	`Allowed operators depend on the attribute type; see list_attributes.`

func apiKeyOption() mcp.ToolOption {
	return mcp.WithString("api_key", mcp.Description("Optional API key overriding the configured one"))
}

func listOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("list", mcp.Description("List display name (case-insensitive substring) or list ID")),
		mcp.WithString("list_id", mcp.Description("Explicit list ID; skips name resolution")),
	}
}

func pagingOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithObject("filter", mcp.Description(filterHelp)),
		mcp.WithArray("sorts", mcp.Description(`Sort specs [{"attribute": slug, "field": optional, "direction": "asc"|"desc"}]`),
			mcp.Items(map[string]any{"type": "object"})),
		mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 500"), mcp.Min(1), mcp.Max(500)),
		mcp.WithNumber("offset", mcp.Description("Rows to skip"), mcp.Min(0)),
	}
}

// toolSpec pairs tool options with the handler shared by all names of one
// operation.
type toolSpec struct {
	options []mcp.ToolOption
	handler mcpserver.ToolHandlerFunc
}

func toolSpecs(svc *operations.Service) map[string]toolSpec {
	concat := func(groups ...[]mcp.ToolOption) []mcp.ToolOption {
		var out []mcp.ToolOption
		for _, g := range groups {
			out = append(out, g...)
		}
		return append(out, apiKeyOption())
	}

	return map[string]toolSpec{
		"resolve_and_query_records": {
			options: concat([]mcp.ToolOption{
				mcp.WithString("object_type", mcp.Description("Object slug such as people or companies (default people)")),
				mcp.WithString("search", mcp.Description("Name fragment or email to search for")),
			}, pagingOptions()),
			handler: toolHandler("resolve_and_query_records", svc.ResolveAndQueryRecords),
		},
		"resolve_and_query_list_entries": {
			options: concat(listOptions(), pagingOptions()),
			handler: toolHandler("resolve_and_query_list_entries", svc.ResolveAndQueryListEntries),
		},
		"list_statuses": {
			options: concat(listOptions()),
			handler: toolHandler("list_statuses", svc.ListStatuses),
		},
		"add_many_to_list": {
			options: concat(listOptions(), []mcp.ToolOption{
				mcp.WithArray("identifiers", mcp.Description("Names, emails or record IDs to add"), mcp.WithStringItems()),
				mcp.WithArray("record_ids", mcp.Description("Explicit record IDs to add"), mcp.WithStringItems()),
				mcp.WithObject("entry_values", mcp.Description("Initial entry attribute values, e.g. {\"stage\": \"Lead\"}")),
				mcp.WithString("parent_object", mcp.Description("Override the list's parent object type")),
			}),
			handler: toolHandler("add_many_to_list", func(ctx context.Context, args operations.AddManyArgs) *operations.BulkResult {
				return svc.AddManyToList(ctx, args, nil)
			}),
		},
		"create_note_on_record": {
			options: concat([]mcp.ToolOption{
				mcp.WithString("object_type", mcp.Description("Object slug of the record (default people)")),
				mcp.WithString("record", mcp.Description("Record name, email or ID")),
				mcp.WithString("record_id", mcp.Description("Explicit record ID; skips name resolution")),
				mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
				mcp.WithString("content", mcp.Description("Plaintext note body")),
			}),
			handler: toolHandler("create_note_on_record", svc.CreateNoteOnRecord),
		},
		"update_list_entry_attributes": {
			options: concat(listOptions(), []mcp.ToolOption{
				mcp.WithString("entry_id", mcp.Required(), mcp.Description("List entry ID")),
				mcp.WithObject("entry_values", mcp.Required(), mcp.Description("Entry attribute values to write")),
			}),
			handler: toolHandler("update_list_entry_attributes", svc.UpdateListEntryAttributes),
		},
		"list_lists": {
			options: concat(),
			handler: toolHandler("list_lists", svc.ListLists),
		},
		"list_objects": {
			options: concat(),
			handler: toolHandler("list_objects", svc.ListObjects),
		},
		"list_attributes": {
			options: concat([]mcp.ToolOption{
				mcp.WithString("object_type", mcp.Description("Object slug (default people)")),
			}),
			handler: toolHandler("list_attributes", svc.ListAttributes),
		},
		"who_am_i": {
			options: concat(),
			handler: toolHandler("who_am_i", svc.WhoAmI),
		},
	}
}

// registerTools adds one tool per operation name and alias.
func registerTools(srv *mcpserver.MCPServer, svc *operations.Service) {
	specs := toolSpecs(svc)
	for _, op := range operations.Operations {
		spec, ok := specs[op.Name]
		if !ok {
			continue
		}
		srv.AddTool(newTool(op.Name, op.Description, spec.options), spec.handler)
		for _, alias := range op.Aliases {
			srv.AddTool(newTool(alias, "Alias of "+op.Name+". "+op.Description, spec.options), spec.handler)
		}
	}
}

func newTool(name, description string, options []mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, options...)
	return mcp.NewTool(name, opts...)
}
