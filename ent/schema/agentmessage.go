package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentMessage holds the schema definition for the AgentMessage entity — one
// block-structured turn (text / tool_use / tool_result) in an execution's
// conversation, ordered by sequence_order (spec §3).
type AgentMessage struct {
	ent.Schema
}

// Fields of the AgentMessage.
func (AgentMessage) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("execution_id").
			Immutable(),
		field.Enum("role").
			Values("system", "user", "assistant", "tool").
			Immutable(),
		field.JSON("content", []interface{}{}).
			Comment("Ordered content blocks: text / tool_use{id,name,input} / tool_result{tool_use_id,content,is_error}"),
		field.Int("sequence_order").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the AgentMessage.
func (AgentMessage) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("execution", AgentExecution.Type).
			Ref("messages").
			Field("execution_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AgentMessage.
func (AgentMessage) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("execution_id", "sequence_order").Unique(),
	}
}
