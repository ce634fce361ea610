package apidoc

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// schemaOption converts a documented field into an MCP tool argument
func schemaOption(schema *openapi3.SchemaRef, name string, required bool) mcp.ToolOption {
	if schema == nil || schema.Value == nil || schema.Value.Type == nil {
		return mcp.WithString(name, propertyOpts("", required)...)
	}

	s := schema.Value
	opts := propertyOpts(s.Description, required)

	switch {
	case s.Type.Includes(openapi3.TypeInteger) || s.Type.Includes(openapi3.TypeNumber):
		if s.Min != nil {
			opts = append(opts, mcp.Min(*s.Min))
		}
		if s.Max != nil {
			opts = append(opts, mcp.Max(*s.Max))
		}
		return mcp.WithNumber(name, opts...)

	case s.Type.Includes(openapi3.TypeBoolean):
		return mcp.WithBoolean(name, opts...)

	case s.Type.Includes(openapi3.TypeArray):
		if s.Items != nil && s.Items.Value != nil && s.Items.Value.Type != nil {
			opts = append(opts, mcp.Items(map[string]any{"type": s.Items.Value.Type.Slice()[0]}))
		}
		return mcp.WithArray(name, opts...)

	default:
		return mcp.WithString(name, append(opts, stringConstraints(s)...)...)
	}
}

func propertyOpts(description string, required bool) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if description != "" {
		opts = append(opts, mcp.Description(description))
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return opts
}

func stringConstraints(s *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if len(s.Enum) > 0 {
		values := make([]string, 0, len(s.Enum))
		for _, v := range s.Enum {
			if str, ok := v.(string); ok {
				values = append(values, str)
			}
		}
		if len(values) > 0 {
			opts = append(opts, mcp.Enum(values...))
		}
	}
	if s.MinLength != 0 {
		opts = append(opts, mcp.MinLength(int(s.MinLength)))
	}
	if s.MaxLength != nil {
		opts = append(opts, mcp.MaxLength(int(*s.MaxLength)))
	}
	if s.Pattern != "" {
		opts = append(opts, mcp.Pattern(s.Pattern))
	}
	return opts
}
