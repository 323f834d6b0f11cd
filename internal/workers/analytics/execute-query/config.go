// internal/workers/analytics/execute-query/config.go
package executequery

import "time"

type Config struct {
	Timeout time.Duration
	// Directory for generated Excel exports. Workbooks never travel
	// through process variables; only the file path does.
	ExportDir string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   45 * time.Second,
		ExportDir: "/tmp/analytics-exports",
	}
}
