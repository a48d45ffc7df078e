package dashboard

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"experiment-logger/internal/config"
	"experiment-logger/internal/counter"
	"experiment-logger/internal/form"
	"experiment-logger/internal/model"
	"experiment-logger/internal/store"
)

var runKey = form.FieldKey{Group: "General", Variable: "Run ID"}

func testSchema() *config.Schema {
	return &config.Schema{Groups: []config.GroupSpec{
		{
			Name:     "General",
			AlwaysOn: true,
			Variables: []config.VariableSpec{
				{Name: "Run ID", Required: true, Type: config.AutoIncrementType{Spec: counter.Spec{Start: 1, Pad: 4, Prefix: "RUN-", Format: counter.FormatPrefixed}}},
				{Name: "Operator", Required: true, Type: config.TextType{}},
			},
		},
		{
			Name:       "Laser",
			Filterable: true,
			Variables: []config.VariableSpec{
				{Name: "Power", Type: config.FloatType{Default: 1.5}},
				{Name: "Mode", Type: config.SelectType{Options: []string{"CW", "Pulsed"}, Default: "CW"}},
			},
		},
	}}
}

type fixture struct {
	sheet *store.MemorySheet
	svc   *Service
	now   time.Time
}

func newFixture(t *testing.T, rows ...[]string) *fixture {
	t.Helper()
	f := &fixture{
		sheet: store.NewMemorySheet(rows...),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(testSchema(), store.NewLogStore(f.sheet, nil), zap.NewNop(), Options{
		Now: func() time.Time { return f.now },
	})
	return f
}

func counterOf(t *testing.T, svc *Service, id string) string {
	t.Helper()
	st, err := svc.State(id)
	require.NoError(t, err)
	return st.Value(runKey).String()
}

func history() [][]string {
	return [][]string{
		{"Timestamp", "General — Run ID", "General — Operator"},
		{"2024-04-01 10:00:00", "RUN-0007", "ada"},
		{"2024-04-02 10:00:00", "RUN-0012", "ada"},
		{"2024-04-03 10:00:00", "bad", "ada"},
	}
}

func TestNewSession_SeedsCountersFromLog(t *testing.T) {
	f := newFixture(t, history()...)
	id := f.svc.NewSession(context.Background())

	assert.Equal(t, "RUN-0013", counterOf(t, f.svc, id))
	assert.Empty(t, f.svc.TakeFlash(id))
}

func TestNewSession_UnreadableLogStartsFromDefaults(t *testing.T) {
	f := newFixture(t, history()...)
	f.sheet.ReadErr = errors.New("offline")

	id := f.svc.NewSession(context.Background())
	assert.Equal(t, "RUN-0001", counterOf(t, f.svc, id))

	flash := f.svc.TakeFlash(id)
	require.Len(t, flash, 1)
	assert.Equal(t, model.LevelWarning, flash[0].Level)
	assert.Empty(t, f.svc.TakeFlash(id), "flash is cleared once taken")
}

func TestSubmit_WritesRowAndAdvancesCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)
	id := f.svc.NewSession(ctx)

	_, err := f.svc.Dispatch(ctx, id, form.SetValue{Field: form.FieldKey{Group: "General", Variable: "Operator"}, Raw: "grace"})
	require.NoError(t, err)

	before := f.svc.Snapshot(ctx)
	require.Equal(t, 3, before.Table.Len())

	msgs, err := f.svc.Submit(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.LevelSuccess, msgs[0].Level)
	assert.Equal(t, "Run 'RUN-0013' logged at 2024-05-01 12:00:00", msgs[0].Text)
	assert.Equal(t, "RUN-0014", counterOf(t, f.svc, id))

	values, err := f.sheet.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp", "General — Run ID", "General — Operator", "Laser — Power", "Laser — Mode"}, values[0])
	assert.Equal(t, []string{"2024-05-01 12:00:00", "RUN-0013", "grace", "1.5", "CW"}, values[4])

	// The cached snapshot was dropped by the write
	assert.Equal(t, 4, f.svc.Snapshot(ctx).Table.Len())
}

func TestSubmit_MissingRequiredFieldWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)
	id := f.svc.NewSession(ctx)

	msgs, err := f.svc.Submit(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Please fill in required fields: Operator", msgs[0].Text)

	n, err := f.svc.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSubmit_WriteFailureKeepsCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)
	id := f.svc.NewSession(ctx)
	_, err := f.svc.Dispatch(ctx, id, form.SetValue{Field: form.FieldKey{Group: "General", Variable: "Operator"}, Raw: "grace"})
	require.NoError(t, err)

	f.sheet.WriteErr = errors.New("quota exceeded")
	msgs, err := f.svc.Submit(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.LevelError, msgs[0].Level)
	assert.Contains(t, msgs[0].Text, "quota exceeded")
	assert.Equal(t, "RUN-0013", counterOf(t, f.svc, id))
}

func TestDispatch_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Dispatch(ctx, "missing", form.Reset{})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	id := f.svc.NewSession(ctx)
	_, err = f.svc.Dispatch(ctx, id, form.SetValue{Field: form.FieldKey{Group: "Laser", Variable: "Power"}, Raw: "hot"})
	assert.ErrorIs(t, err, form.ErrInvalidValue)
}

func TestResync_PicksUpOtherSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)
	a := f.svc.NewSession(ctx)
	b := f.svc.NewSession(ctx)

	for _, id := range []string{a, b} {
		_, err := f.svc.Dispatch(ctx, id, form.SetValue{Field: form.FieldKey{Group: "General", Variable: "Operator"}, Raw: "ada"})
		require.NoError(t, err)
	}

	_, err := f.svc.Submit(ctx, a)
	require.NoError(t, err)

	// b still trusts its local counter until it resyncs
	assert.Equal(t, "RUN-0013", counterOf(t, f.svc, b))

	msgs, err := f.svc.Resync(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{{Level: model.LevelInfo, Text: "Synchronized 1 counter(s) with the log"}}, msgs)
	assert.Equal(t, "RUN-0014", counterOf(t, f.svc, b))
}

func TestResync_NoCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.SetSchema(&config.Schema{Groups: []config.GroupSpec{{Name: "Cryo", Variables: []config.VariableSpec{{Name: "Temp", Type: config.FloatType{}}}}}})
	id := f.svc.NewSession(ctx)

	msgs, err := f.svc.Resync(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{{Level: model.LevelInfo, Text: "No counters to synchronize"}}, msgs)
}

func TestResync_ReadFailureKeepsLocalCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)
	id := f.svc.NewSession(ctx)

	f.sheet.ReadErr = errors.New("timeout")
	msgs, err := f.svc.Resync(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.LevelWarning, msgs[0].Level)
	assert.Equal(t, "RUN-0013", counterOf(t, f.svc, id))
}

func TestSetSchema_OnlyNewSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	old := f.svc.NewSession(ctx)

	f.svc.SetSchema(&config.Schema{Groups: []config.GroupSpec{{Name: "Cryo", Variables: []config.VariableSpec{{Name: "Temp", Type: config.FloatType{}}}}}})
	fresh := f.svc.NewSession(ctx)

	st, err := f.svc.State(old)
	require.NoError(t, err)
	_, ok := st.Schema.Group("General")
	assert.True(t, ok)

	st, err = f.svc.State(fresh)
	require.NoError(t, err)
	_, ok = st.Schema.Group("Cryo")
	assert.True(t, ok)
}

func TestSessions_ExpireAfterTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stale := f.svc.NewSession(ctx)

	f.now = f.now.Add(DefaultSessionTTL + time.Minute)
	live := f.svc.NewSession(ctx)

	assert.Equal(t, 1, f.svc.SessionCount())
	_, err := f.svc.State(stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	id, created := f.svc.Ensure(ctx, live)
	assert.False(t, created)
	assert.Equal(t, live, id)

	id, created = f.svc.Ensure(ctx, stale)
	assert.True(t, created)
	assert.NotEqual(t, stale, id)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)

	var buf bytes.Buffer
	res, err := f.svc.Export(ctx, &buf, "csv")
	require.NoError(t, err)
	assert.Equal(t, "experiment_log_20240501.csv", res.FileName)
	assert.Equal(t, 3, res.RecordCount)
	assert.Contains(t, buf.String(), "RUN-0012")

	f.sheet.ReadErr = errors.New("offline")
	_, err = f.svc.Export(ctx, &buf, "csv")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRecent(t *testing.T) {
	f := newFixture(t, history()...)
	summary, warning := f.svc.Recent(context.Background())
	assert.Empty(t, warning)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, "bad", summary.Recent.Rows[0][1])
}

func TestRefresh_FailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, history()...)

	f.sheet.ReadErr = errors.New("offline")
	snap := f.svc.Snapshot(ctx)
	assert.NotEmpty(t, snap.Warning)

	f.sheet.ReadErr = nil
	snap = f.svc.Snapshot(ctx)
	assert.Empty(t, snap.Warning)
	assert.Equal(t, 3, snap.Table.Len())
}
