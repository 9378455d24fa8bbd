// File: pkg/bundle/report.go
package bundle

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WriteReport writes result to path as YAML.
func WriteReport(result *MergeResult, path string) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return ioFailure(err, "encode report", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ioFailure(err, "write report", path)
	}
	return nil
}
