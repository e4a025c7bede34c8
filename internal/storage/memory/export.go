package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// exportJSON writes each game to <exportDir>/<id>.json, gzipped when configured.
// Callers hold the read lock.
func (b *Backend) exportJSON() error {
	if err := os.MkdirAll(b.cfg.ExportDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ids := make([]string, 0, len(b.games))
	for id := range b.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		path, err := b.writeGame(id)
		if err != nil {
			return err
		}
		if b.log != nil {
			b.log.WriteLog("memory:exportJSON", fmt.Sprintf("Exported game to %s", path), "DEBUG")
		}
	}
	return nil
}

func (b *Backend) writeGame(id string) (string, error) {
	filename := id + ".json"
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.ExportDir, filename)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if b.cfg.CompressOutput {
		gw := gzip.NewWriter(f)
		defer gw.Close()
		w = gw
	}

	if err := json.NewEncoder(w).Encode(b.games[id]); err != nil {
		return "", fmt.Errorf("failed to encode game %s: %w", id, err)
	}
	return outputPath, nil
}
