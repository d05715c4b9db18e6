package taskstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"folio/internal/models"
)

// CurrentVersion is the blob layout written by this build.
const CurrentVersion = 1

// ErrUnsupportedVersion marks a blob written by an unknown layout.
var ErrUnsupportedVersion = errors.New("unsupported blob version")

type blob struct {
	Version int           `json:"version"`
	Tasks   []models.Task `json:"tasks"`
	SavedAt time.Time     `json:"savedAt"`
}

func encode(tasks []models.Task, now time.Time) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	b, err := json.Marshal(blob{Version: CurrentVersion, Tasks: tasks, SavedAt: now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return b, nil
}

// decode reads both the versioned envelope and the legacy bare array.
func decode(data []byte) ([]models.Task, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, fmt.Errorf("empty blob")
	}

	var tasks []models.Task
	version := 0
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, 0, fmt.Errorf("decode legacy tasks: %w", err)
		}
	} else {
		var b blob
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return nil, 0, fmt.Errorf("decode tasks: %w", err)
		}
		if b.Version != CurrentVersion {
			return nil, b.Version, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b.Version)
		}
		tasks, version = b.Tasks, b.Version
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, version, err
		}
		if _, dup := seen[t.ID]; dup {
			return nil, version, fmt.Errorf("duplicate task id %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return tasks, version, nil
}
