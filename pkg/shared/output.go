package shared

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/shared/files"
)

// WriteResult prints v as indented JSON to out, or stores it under outputPath when set.
// outputPath may be a folder, in which case nameTemplate names the file.
func WriteResult(out io.Writer, outputPath, nameTemplate string, v interface{}, logger hclog.Logger) error {
	if outputPath != "" {
		path, err := files.WriteJSON(outputPath, nameTemplate, v)
		if err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		if logger != nil {
			logger.Info("results saved to file", "path", path)
		}
		return nil
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
