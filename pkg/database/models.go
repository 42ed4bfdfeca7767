package database

import "time"

// Row types mirror the ent/schema descriptors field-for-field; the SQL in
// this package is written by hand to the exact shape those descriptors
// declare (see DESIGN.md).

type Workflow struct {
	ID          string
	UserID      string
	Name        string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Agent struct {
	ID            string
	WorkflowID    string
	LLMProviderID string
	Name          string
	Description   *string
	SystemPrompt  *string
	Model         string
	Temperature   float64
	MaxTokens     int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type WorkflowRun struct {
	ID           string
	WorkflowID   string
	Status       string
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AgentExecution struct {
	ID                string
	AgentID           string
	WorkflowRunID     string
	ParentExecutionID *string
	Status            string
	InputText         *string
	OutputText        *string
	TokenUsage        map[string]any
	DurationMs        *int64
	ErrorMessage      *string
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrchestrationRun struct {
	ID                  string
	OrchestratorAgentID string
	WorkflowRunID       string
	ExecutionID         string
	Mode                string
	Status              string
	PlanJSON            map[string]any
	MessagesJSON        []any
	FinalOutput         *string
	ErrorMessage        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type AgentMessage struct {
	ID            string
	ExecutionID   string
	Role          string
	Content       []any
	SequenceOrder int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ToolPermission struct {
	ID        string
	AgentID   string
	ToolName  string
	IsEnabled bool
	Config    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
