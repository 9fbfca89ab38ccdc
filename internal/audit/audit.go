package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Archive writes point-in-time JSON reports, such as reconciliation findings,
// to a directory so they survive audit event retention.
type Archive struct {
	Dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{Dir: dir}
}

// report wraps archived data with when and what it is.
type report struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	Data      any       `json:"data"`
}

// Save writes data as <kind>-<uuid>.json and returns the file name.
func (a *Archive) Save(kind string, data any) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	id := uuid.New().String()
	filename := fmt.Sprintf("%s-%s.json", kind, id)
	path := filepath.Join(a.Dir, filename)

	jsonData, err := json.MarshalIndent(report{ID: id, Kind: kind, CreatedAt: time.Now().UTC(), Data: data}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Printf("Saved %s report: %s", kind, path)
	return filename, nil
}
