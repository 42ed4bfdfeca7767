package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Agent holds the schema definition for the Agent entity. Sub-agents created
// dynamically during orchestration (via create_sub_agent) are ordinary rows
// in this same table, owned by the workflow rather than by the
// OrchestrationRun that created them — see spec §3 Ownership.
type Agent struct {
	ent.Schema
}

// Fields of the Agent.
func (Agent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("workflow_id").
			Immutable(),
		field.String("llm_provider_id").
			Immutable(),
		field.String("name"),
		field.Text("description").
			Optional().
			Nillable(),
		field.Text("system_prompt").
			Optional().
			Nillable(),
		field.String("model"),
		field.Float("temperature").
			Default(0.7),
		field.Int("max_tokens").
			Default(4096),
		field.Bool("is_active").
			Default(true),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Agent.
func (Agent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("workflow", Workflow.Type).
			Ref("agents").
			Field("workflow_id").
			Unique().
			Required().
			Immutable(),
		edge.To("tool_permissions", ToolPermission.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Agent.
func (Agent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("workflow_id"),
	}
}
