package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mamadbah2/alquemist/internal/config"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

var fixedNow = time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)

type fakeExpirer struct {
	calls []time.Time
}

func (f *fakeExpirer) ExpireLots(_ context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return 2, nil
}

type fakeFacilities []models.Facility

func (f fakeFacilities) ListFacilities(_ context.Context, filter repository.FacilityFilter) ([]models.Facility, error) {
	var out []models.Facility
	for _, fac := range f {
		if filter.Status == "" || fac.Status == filter.Status {
			out = append(out, fac)
		}
	}
	return out, nil
}

type fakeReporter struct {
	exports    bool
	failFor    string
	exportFail string
	inventory  []string
	since      []time.Time
	windows    map[string][]time.Time
}

func (f *fakeReporter) InventoryReport(_ context.Context, facilityID string, _ time.Time) (string, error) {
	if facilityID == f.failFor {
		return "", errors.New("render failed")
	}
	return "report " + facilityID, nil
}

func (f *fakeReporter) ExportInventory(_ context.Context, facilityID string, _ time.Time) (int, error) {
	f.inventory = append(f.inventory, facilityID)
	return 1, nil
}

func (f *fakeReporter) ExportActivities(_ context.Context, facilityID string, after, _ time.Time) (int, error) {
	f.since = append(f.since, after)
	if f.windows == nil {
		f.windows = make(map[string][]time.Time)
	}
	f.windows[facilityID] = append(f.windows[facilityID], after)
	if facilityID == f.exportFail {
		return 0, errors.New("sheets unavailable")
	}
	return 1, nil
}

func (f *fakeReporter) ExportsEnabled() bool { return f.exports }

type fakeSender struct {
	titles []string
}

func (f *fakeSender) SendReport(_ context.Context, title, _ string) error {
	f.titles = append(f.titles, title)
	return nil
}

func cfg() config.ReportingConfig {
	return config.ReportingConfig{CronSchedule: "0 20 * * 5", ExpiryCronSchedule: "0 2 * * *", Timezone: "UTC"}
}

func newTestScheduler(t *testing.T, rep Reporter, sender ReportSender) (*Scheduler, *fakeExpirer) {
	t.Helper()
	exp := &fakeExpirer{}
	facilities := fakeFacilities{
		{ID: "f1", Name: "North", Status: models.StatusActive},
		{ID: "f2", Name: "South", Status: models.StatusActive},
		{ID: "f3", Name: "Closed", Status: models.StatusInactive},
	}
	s, err := NewScheduler(cfg(), exp, facilities, rep, sender, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s, exp
}

func TestRunExpiry(t *testing.T) {
	s, exp := newTestScheduler(t, &fakeReporter{}, nil)
	require.NoError(t, s.RunExpiry(context.Background()))
	assert.Equal(t, []time.Time{fixedNow}, exp.calls)
}

func TestRunReportsExportsAndSends(t *testing.T) {
	rep := &fakeReporter{exports: true}
	sender := &fakeSender{}
	s, _ := newTestScheduler(t, rep, sender)

	require.NoError(t, s.RunReports(context.Background()))
	assert.Equal(t, []string{"f1", "f2"}, rep.inventory)
	assert.Equal(t, []string{"Weekly inventory: North", "Weekly inventory: South"}, sender.titles)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), rep.since[0])

	later := fixedNow.Add(7 * 24 * time.Hour)
	s.now = func() time.Time { return later }
	require.NoError(t, s.RunReports(context.Background()))
	assert.Equal(t, fixedNow, rep.since[2])
}

func TestRunReportsRetriesFailedWindow(t *testing.T) {
	rep := &fakeReporter{exports: true, exportFail: "f1"}
	sender := &fakeSender{}
	s, _ := newTestScheduler(t, rep, sender)
	weekAgo := fixedNow.Add(-7 * 24 * time.Hour)

	err := s.RunReports(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facility f1")
	assert.Equal(t, []string{"Weekly inventory: South"}, sender.titles)

	rep.exportFail = ""
	later := fixedNow.Add(7 * 24 * time.Hour)
	s.now = func() time.Time { return later }
	require.NoError(t, s.RunReports(context.Background()))
	assert.Equal(t, []time.Time{weekAgo, weekAgo}, rep.windows["f1"])
	assert.Equal(t, []time.Time{weekAgo, fixedNow}, rep.windows["f2"])

	evenLater := later.Add(7 * 24 * time.Hour)
	s.now = func() time.Time { return evenLater }
	require.NoError(t, s.RunReports(context.Background()))
	assert.Equal(t, later, rep.windows["f1"][2])
}

func TestRunReportsContinuesAfterFailure(t *testing.T) {
	rep := &fakeReporter{failFor: "f1"}
	sender := &fakeSender{}
	s, _ := newTestScheduler(t, rep, sender)

	err := s.RunReports(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facility f1")
	assert.Equal(t, []string{"Weekly inventory: South"}, sender.titles)
	assert.Empty(t, rep.inventory)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := cfg()
	c.ExpiryCronSchedule = "not a schedule"
	s, err := NewScheduler(c, &fakeExpirer{}, fakeFacilities{}, &fakeReporter{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestNewSchedulerRejectsBadTimezone(t *testing.T) {
	c := cfg()
	c.Timezone = "Mars/Olympus"
	_, err := NewScheduler(c, &fakeExpirer{}, fakeFacilities{}, &fakeReporter{}, nil, nil)
	assert.Error(t, err)
}

func TestStartStopDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _ := newTestScheduler(t, &fakeReporter{}, nil)
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
