// internal/writer/writer_test.go
package writer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/bydbox-reader/internal/config"
	"github.com/tamzrod/bydbox-reader/internal/status"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// ---- fakes ----

type fakeWriter struct {
	err   error
	calls int
	last  map[string]telemetry.Value
}

func (f *fakeWriter) Write(_ context.Context, values map[string]telemetry.Value) error {
	f.calls++
	f.last = values
	return f.err
}

type fakeStatusWriter struct {
	err    error
	writes []status.Snapshot
}

func (f *fakeStatusWriter) WriteStatus(s status.Snapshot) error {
	f.writes = append(f.writes, s)
	return f.err
}

// ---- tests ----

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	a := &fakeWriter{err: errors.New("a down")}
	b := &fakeWriter{}
	c := &fakeWriter{err: errors.New("c down")}

	w := Multi(a, nil, b, c)
	err := w.Write(context.Background(), map[string]telemetry.Value{"soc": telemetry.Int(1)})

	require.Error(t, err)
	assert.Equal(t, "a down | c down", err.Error())
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
	assert.Contains(t, b.last, "soc")
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi().Write(context.Background(), nil))
	assert.NoError(t, MultiStatus().WriteStatus(status.Snapshot{}))
}

func TestOnChange_SkipsUnchanged(t *testing.T) {
	next := &fakeStatusWriter{}
	sw := OnChange(next)

	ok := status.Snapshot{Health: status.HealthOK}
	require.NoError(t, sw.WriteStatus(ok))
	require.NoError(t, sw.WriteStatus(ok))
	require.Len(t, next.writes, 1)

	bad := status.Snapshot{Health: status.HealthError, LastErrorCode: 2, SecondsInError: 1}
	require.NoError(t, sw.WriteStatus(bad))
	assert.Len(t, next.writes, 2)
}

func TestOnChange_ReassertsAfterFailure(t *testing.T) {
	next := &fakeStatusWriter{err: errors.New("broker gone")}
	sw := OnChange(next)

	s := status.Snapshot{Health: status.HealthOK}
	assert.Error(t, sw.WriteStatus(s))

	next.err = nil
	require.NoError(t, sw.WriteStatus(s))
	assert.Len(t, next.writes, 2)

	require.NoError(t, sw.WriteStatus(s))
	assert.Len(t, next.writes, 2)
}

func TestBuild_MetricsOnly(t *testing.T) {
	c := cfg.Config{Metrics: cfg.MetricsConfig{Enabled: true, Namespace: "byd"}}

	out, err := Build(c, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, out.Metrics)

	require.NoError(t, out.Data.Write(context.Background(), map[string]telemetry.Value{"soc": telemetry.Int(50)}))
	require.NoError(t, out.Status.WriteStatus(status.Snapshot{Health: status.HealthOK}))
	assert.NoError(t, out.Listen(func(int, int) {}))
	assert.NoError(t, out.Close())
}

func TestBuild_NothingEnabled(t *testing.T) {
	out, err := Build(cfg.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, out.Metrics)
	assert.NoError(t, out.Data.Write(context.Background(), nil))
}
