// internal/workers/analytics/handle-query/config.go
package handlequery

import "time"

type Config struct {
	Timeout time.Duration

	// ExportDir receives rendered Excel workbooks. Workbooks never
	// travel through process variables; only the file path does.
	ExportDir string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   60 * time.Second,
		ExportDir: "/tmp/analytics-exports",
	}
}
