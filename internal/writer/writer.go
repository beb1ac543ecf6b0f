// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"strings"

	"github.com/tamzrod/bydbox-reader/internal/status"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

type multiWriter struct {
	writers []Writer
}

// Multi fans one snapshot out to every writer. Nil writers are skipped.
// A failing writer does not stop the others; errors are joined.
func Multi(ws ...Writer) Writer {
	m := &multiWriter{}
	for _, w := range ws {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

func (m *multiWriter) Write(ctx context.Context, values map[string]telemetry.Value) error {
	var errs []string
	for _, w := range m.writers {
		if err := w.Write(ctx, values); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

type multiStatusWriter struct {
	writers []StatusWriter
}

// MultiStatus is Multi for status writers.
func MultiStatus(ws ...StatusWriter) StatusWriter {
	m := &multiStatusWriter{}
	for _, w := range ws {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

func (m *multiStatusWriter) WriteStatus(s status.Snapshot) error {
	var errs []string
	for _, w := range m.writers {
		if err := w.WriteStatus(s); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
