package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ToolPermission holds the schema definition for the ToolPermission entity —
// per-agent, per-tool enablement and configuration (spec §4.C Security
// Context, allowlists sourced from config JSON here).
type ToolPermission struct {
	ent.Schema
}

// Fields of the ToolPermission.
func (ToolPermission) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.String("tool_name").
			Immutable(),
		field.Bool("is_enabled").
			Default(true),
		field.JSON("config", map[string]interface{}{}).
			Optional().
			Comment("Tool-specific security context overrides, e.g. write allowlist, command allowlist"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the ToolPermission.
func (ToolPermission) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("agent", Agent.Type).
			Ref("tool_permissions").
			Field("agent_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ToolPermission.
func (ToolPermission) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_id", "tool_name").Unique(),
	}
}
