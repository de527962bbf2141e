package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

const maxError = 256

// Build results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// BuildRecord is written as a single JSON object per compilation.
type BuildRecord struct {
	Timestamp           time.Time `json:"ts"`
	Grammar             string    `json:"grammar"`
	Structure           string    `json:"structure"`
	Trigger             string    `json:"trigger"`
	Rules               int       `json:"rules"`
	NFAStates           int       `json:"nfa_states"`
	RawStates           int       `json:"raw_states"`
	States              int       `json:"states"`
	Ranges              int       `json:"ranges"`
	Layout              string    `json:"layout"`
	InterfaceBytes      int       `json:"interface_bytes"`
	ImplementationBytes int       `json:"implementation_bytes"`
	Result              string    `json:"result"`
	ErrorKind           string    `json:"error_kind,omitempty"`
	Error               string    `json:"error,omitempty"`
	DurationMS          int64     `json:"duration_ms"`
}

type BuildLogger struct {
	w io.Writer
}

func NewBuildLogger(w io.Writer) *BuildLogger {
	return &BuildLogger{w: w}
}

func OpenBuildLog(path string) (*BuildLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewBuildLogger(file), file.Close, nil
}

func (l *BuildLogger) Write(record BuildRecord) error {
	if l == nil {
		return nil
	}
	if len(record.Error) > maxError {
		record.Error = record.Error[:maxError]
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(data, '\n'))
	return err
}
