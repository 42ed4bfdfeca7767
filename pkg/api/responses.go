package api

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Database *DatabaseHealth   `json:"database,omitempty"`
	Bus      BusStats          `json:"event_bus"`
	LLM      map[string]string `json:"llm_providers"`
}

// DatabaseHealth mirrors the Persistence Gateway's own health shape.
type DatabaseHealth struct {
	Status        string `json:"status"`
	AcquiredConns int32  `json:"acquired_conns"`
	IdleConns     int32  `json:"idle_conns"`
	MaxConns      int32  `json:"max_conns"`
}

// BusStats reports Event Bus subscriber counts for the health endpoint.
type BusStats struct {
	Subscribers int `json:"subscribers"`
}
