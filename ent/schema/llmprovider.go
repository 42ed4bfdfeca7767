package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// LLMProvider holds the schema definition for the LLMProvider entity —
// the administrative record backing the Model Provider Registry's
// "provider enabled" precondition (spec §4.F).
type LLMProvider struct {
	ent.Schema
}

// Fields of the LLMProvider.
func (LLMProvider) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			Unique().
			Comment("Registry key, e.g. 'anthropic', 'google'"),
		field.String("display_name"),
		field.String("api_base_url").
			Optional().
			Nillable(),
		field.Bool("is_enabled").
			Default(true),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}
