// Package responses defines the JSON payloads returned by the API and admin servers.
package responses

import "time"

// MessageResponse is the generic acknowledgement payload for mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// DocumentListResponse lists the documents inside a collection.
type DocumentListResponse struct {
	Collection string   `json:"collection"`
	Documents  []string `json:"documents"`
}

// HealthResponse reports overall service health.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       float64   `json:"uptime_seconds"`
	DaemonStatus string    `json:"daemon_status,omitempty"`
	ExistDB      string    `json:"existdb,omitempty"`
	LastProbe    time.Time `json:"last_probe,omitempty"`
}

// StatusResponse reports daemon runtime state.
type StatusResponse struct {
	Status         string    `json:"status"`
	Version        string    `json:"version"`
	StartTime      time.Time `json:"start_time"`
	Uptime         float64   `json:"uptime_seconds"`
	ExistDBHealthy bool      `json:"existdb_healthy"`
	EventsEnabled  bool      `json:"events_enabled"`
	ArchiveEnabled bool      `json:"archive_enabled"`
}

// ConfigSummary is a sanitized view of the running configuration. Credentials
// are never included.
type ConfigSummary struct {
	Port           int      `json:"port"`
	AdminPort      int      `json:"admin_port"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	ExistDBURL     string   `json:"existdb_url"`
	ExistDBUser    string   `json:"existdb_user"`
	NLPURL         string   `json:"nlp_url"`
	EventsEnabled  bool     `json:"events_enabled"`
	EventsSubject  string   `json:"events_subject,omitempty"`
	ArchiveEnabled bool     `json:"archive_enabled"`
	ArchiveDir     string   `json:"archive_directory,omitempty"`
	FusekiURL      string   `json:"fuseki_url,omitempty"`
	ElasticURL     string   `json:"elasticsearch_url,omitempty"`
	LogLevel       string   `json:"log_level"`
}
