package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// OrchestrationRun holds the schema definition for the OrchestrationRun
// entity — the Tool Loop Engine's persisted state for one controller-agent
// run, including the suspended plan awaiting approval (spec §4.E/§4.F).
type OrchestrationRun struct {
	ent.Schema
}

// Fields of the OrchestrationRun.
func (OrchestrationRun) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("orchestrator_agent_id").
			Immutable(),
		field.String("workflow_run_id").
			Immutable(),
		field.String("execution_id").
			Unique().
			Immutable(),
		field.Enum("mode").
			Values("automatic", "approval").
			Immutable(),
		field.Enum("status").
			Values("running", "awaiting_approval", "completed", "failed", "rejected").
			Default("running"),
		field.JSON("plan_json", map[string]interface{}{}).
			Optional().
			Comment("Proposed plan (pending tool_use steps plus assistant text), set when the run suspends for approval and kept afterwards"),
		field.JSON("messages_json", []interface{}{}).
			Optional().
			Comment("Full persisted conversation history, reloaded on resume"),
		field.Text("final_output").
			Optional().
			Nillable(),
		field.String("error_message").
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

// Edges of the OrchestrationRun.
func (OrchestrationRun) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("execution", AgentExecution.Type).
			Ref("orchestration_run").
			Field("execution_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the OrchestrationRun.
func (OrchestrationRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("workflow_run_id"),
		index.Fields("status"),
	}
}
