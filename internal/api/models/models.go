package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Devices int    `json:"devices" example:"3" doc:"Number of indexed audio devices"`
}

type HealthResponse struct {
	Body HealthData
}

// LogEntry is one record from the in-memory log history.
type LogEntry struct {
	Timestamp string         `json:"timestamp" example:"2026-01-27T10:30:00.123Z"`
	Level     string         `json:"level" example:"info"`
	Module    string         `json:"module,omitempty" example:"registry"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

type LogsResponse struct {
	Body struct {
		Entries []LogEntry `json:"entries" doc:"Most recent entries, oldest first"`
		Count   int        `json:"count"`
	}
}

type LogLevelsResponse struct {
	Body struct {
		Levels map[string]string `json:"levels" doc:"Effective level per module; the empty key is the default level"`
	}
}

type SetLogLevelRequest struct {
	Body struct {
		Module string `json:"module,omitempty" doc:"Module name; empty changes the default level"`
		Level  string `json:"level" enum:"debug,info,warn,error" doc:"New level"`
	}
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" doc:"Git commit the binary was built from"`
	BuildDate string `json:"build_date" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"darwin/arm64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}
