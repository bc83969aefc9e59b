// Package audit appends privileged-operation records to a plain-text log.
// The format is one line per event: "[<rfc3339>] <EVENT> key=value ...".
// Plain text keeps the log greppable and independently verifiable; each
// append is fsynced before the file is closed.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("audit")

// Event names.
const (
	EventInstall   = "INSTALL"
	EventUninstall = "UNINSTALL"
	EventSecurity  = "SECURITY"
)

// Logger appends events to the audit log file.
type Logger struct {
	path string

	// now is swappable in tests.
	now func() time.Time
}

// New returns a logger writing to path.
func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Append writes one event line. Keys are emitted in sorted order so lines
// are stable for the same event.
func (l *Logger) Append(event string, fields map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create audit log directory")
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to open audit log %s", l.path)
	}
	defer func() { _ = f.Close() }()

	line := FormatLine(l.now(), event, fields)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return errors.Wrap(err, errors.ErrIO, "failed to append audit record")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, errors.ErrIO, "failed to sync audit log")
	}

	log.Debug().Str("event", event).Msg("Audit record appended")
	return nil
}

// FormatLine renders one audit record.
func FormatLine(ts time.Time, event string, fields map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", ts.UTC().Format(time.RFC3339), event)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, fields[k])
	}
	return b.String()
}
