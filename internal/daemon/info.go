package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"pomo/internal/fileutil"
)

// InfoVersion is the schema version written to daemon.yaml.
const InfoVersion = 1

// Info describes a running daemon. It is written to daemon.yaml in the data
// directory while the daemon is up.
type Info struct {
	Version   int       `yaml:"version"`
	PID       int       `yaml:"pid"`
	RunID     string    `yaml:"run_id"`
	Build     string    `yaml:"build,omitempty"`
	Socket    string    `yaml:"socket"`
	Lock      string    `yaml:"lock"`
	State     string    `yaml:"state"`
	Config    string    `yaml:"config,omitempty"`
	LogPath   string    `yaml:"log_path,omitempty"`
	StartedAt time.Time `yaml:"started_at"`
}

// WriteInfo stores info at path, replacing any previous file.
func WriteInfo(path string, info Info) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode daemon info: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create daemon info directory: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write daemon info: %w", err)
	}
	return nil
}

// ReadInfo loads daemon.yaml. It returns nil with no error when the file
// does not exist.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read daemon info: %w", err)
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse daemon info: %w", err)
	}
	return &info, nil
}

// RemoveInfo deletes daemon.yaml if present.
func RemoveInfo(path string) error {
	if err := fileutil.RemoveIfExists(path); err != nil {
		return fmt.Errorf("remove daemon info: %w", err)
	}
	return nil
}
