package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentExecution holds the schema definition for the AgentExecution entity —
// one call to a single agent, owned by a WorkflowRun (spec §3).
type AgentExecution struct {
	ent.Schema
}

// Fields of the AgentExecution.
func (AgentExecution) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.String("workflow_run_id").
			Immutable(),
		field.String("parent_execution_id").
			Optional().
			Nillable().
			Comment("Optional link to a parent execution; sub-agent runs started by execute_sub_agent leave it unset"),
		field.Enum("status").
			Values("running", "completed", "failed").
			Default("running"),
		field.Text("input_text").
			Optional().
			Nillable(),
		field.Text("output_text").
			Optional().
			Nillable(),
		field.JSON("token_usage", map[string]interface{}{}).
			Optional(),
		field.Int64("duration_ms").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable(),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the AgentExecution.
func (AgentExecution) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("workflow_run", WorkflowRun.Type).
			Ref("agent_executions").
			Field("workflow_run_id").
			Unique().
			Required().
			Immutable(),
		edge.To("messages", AgentMessage.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("orchestration_run", OrchestrationRun.Type).
			Unique(),
	}
}

// Indexes of the AgentExecution.
func (AgentExecution) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_id"),
		index.Fields("workflow_run_id"),
		index.Fields("status"),
	}
}
