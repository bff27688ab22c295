package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdiag/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(v float64) *float64 { return &v }

func upResult(host string, ts time.Time, avg, loss float64) models.ProbeResult {
	return models.ProbeResult{
		Timestamp:       ts,
		Host:            host,
		Status:          models.StatusUp,
		MinMS:           ptr(avg - 1),
		AvgMS:           ptr(avg),
		MaxMS:           ptr(avg + 1),
		PacketLossPct:   loss,
		PacketsSent:     4,
		PacketsReceived: 4,
	}
}

func appendCycle(t *testing.T, db *DB, id string, results ...models.ProbeResult) {
	t.Helper()
	c := models.ScanCycle{ID: id}
	for _, r := range results {
		c.Timestamp = r.Timestamp
		c.Hosts = append(c.Hosts, r.Host)
		c.Results = append(c.Results, r)
	}
	require.NoError(t, db.Append(context.Background(), c))
}

func TestNew_CreatesParentDir(t *testing.T) {
	path := t.TempDir() + "/nested/dir/netdiag.db"
	db, err := New(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.InitSchema())
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.InitSchema())
}

func TestAppendQuery_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		appendCycle(t, db, fmt.Sprintf("c%d", i), upResult("10.0.0.1", ts, float64(10+i), 0))
	}

	recs, err := db.Query(context.Background(), "10.0.0.1", base.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "c2", recs[0].CycleID)
	assert.Equal(t, "c0", recs[2].CycleID)
	assert.True(t, recs[0].Timestamp.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, 12.0, *recs[0].AvgMS)
	assert.Equal(t, models.StatusUp, recs[0].Status)
	assert.Equal(t, 4, recs[0].PacketsReceived)
}

func TestQuery_SinceIsExclusive(t *testing.T) {
	db := newTestDB(t)
	ts := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
	appendCycle(t, db, "c1", upResult("h", ts, 10, 0))

	recs, err := db.Query(context.Background(), "h", ts)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = db.Query(context.Background(), "h", ts.Add(-time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestQuery_SubMillisecondOrdering(t *testing.T) {
	db := newTestDB(t)
	since := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond).Add(100 * time.Microsecond)
	ts := since.Add(500 * time.Microsecond)
	appendCycle(t, db, "c1", upResult("h", ts, 10, 0))

	recs, err := db.Query(context.Background(), "h", since)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Timestamp.Equal(ts), "stored %v, want %v", recs[0].Timestamp, ts)
}

func TestFormatTS_FixedWidthKeepsNanoseconds(t *testing.T) {
	a := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := a.Add(time.Nanosecond)
	assert.Len(t, formatTS(a), len(formatTS(b)))
	assert.Less(t, formatTS(a), formatTS(b))

	got, err := parseTS(formatTS(b))
	require.NoError(t, err)
	assert.True(t, got.Equal(b))
}

func TestQuery_ExactHostMatch(t *testing.T) {
	db := newTestDB(t)
	ts := time.Now().UTC()
	appendCycle(t, db, "c1",
		upResult("10.0.0.1", ts, 10, 0),
		upResult("10.0.0.10", ts, 20, 0),
	)

	recs, err := db.Query(context.Background(), "10.0.0.1", ts.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "10.0.0.1", recs[0].Host)
}

func TestAppend_DownResultHasNoLatency(t *testing.T) {
	db := newTestDB(t)
	ts := time.Now().UTC()
	appendCycle(t, db, "c1", models.DownResult("h", ts))

	recs, err := db.Query(context.Background(), "h", ts.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.StatusDown, recs[0].Status)
	assert.Nil(t, recs[0].MinMS)
	assert.Nil(t, recs[0].AvgMS)
	assert.Nil(t, recs[0].MaxMS)
	assert.Equal(t, 100.0, recs[0].PacketLossPct)
}

func TestAppend_EmptyCycleIsNoop(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Append(context.Background(), models.ScanCycle{}))
}

func TestAppend_ConcurrentCycles(t *testing.T) {
	db := newTestDB(t)
	ts := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := models.ScanCycle{ID: fmt.Sprintf("c%d", i), Timestamp: ts}
			for j := 0; j < 5; j++ {
				c.Results = append(c.Results, upResult(fmt.Sprintf("h%d", j), ts, 1, 0))
			}
			assert.NoError(t, db.Append(context.Background(), c))
		}(i)
	}
	wg.Wait()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM ping_results`).Scan(&n))
	assert.Equal(t, 40, n)
}

func TestRange(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 4; i++ {
		appendCycle(t, db, fmt.Sprintf("c%d", i), upResult("h", base.Add(time.Duration(i)*time.Minute), 1, 0))
	}

	recs, err := db.Range(context.Background(), base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c1", recs[0].CycleID)
	assert.Equal(t, "c2", recs[1].CycleID)
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	ts := time.Now().Add(-time.Minute).UTC()
	appendCycle(t, db, "c1", upResult("a", ts, 10, 0), upResult("b", ts, 50, 0))
	appendCycle(t, db, "c2", upResult("a", ts.Add(time.Second), 20, 0), models.DownResult("b", ts.Add(time.Second)))
	appendCycle(t, db, "c3", models.DownResult("a", ts.Add(2*time.Second)))

	stats, err := db.GetStats(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	a := stats[0]
	assert.Equal(t, "a", a.Host)
	assert.Equal(t, 3, a.TotalScans)
	assert.Equal(t, 2, a.UpScans)
	assert.InDelta(t, 15.0, a.AvgRTT, 0.001)
	assert.InDelta(t, 21.0, a.MaxRTT, 0.001)
	assert.InDelta(t, 9.0, a.MinRTT, 0.001)
	assert.InDelta(t, 33.33, a.PacketLossPct, 0.01)
}

func TestGetStats_AllDownHasZeroRTT(t *testing.T) {
	db := newTestDB(t)
	appendCycle(t, db, "c1", models.DownResult("a", time.Now().UTC()))

	stats, err := db.GetStats(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Zero(t, stats[0].AvgRTT)
	assert.Equal(t, 0, stats[0].UpScans)
}

func TestGetOutages(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
	statuses := []bool{true, false, false, true, false}
	for i, isUp := range statuses {
		ts := base.Add(time.Duration(i) * time.Minute)
		r := models.DownResult("a", ts)
		if isUp {
			r = upResult("a", ts, 10, 0)
		}
		appendCycle(t, db, fmt.Sprintf("c%d", i), r)
	}

	outages, err := db.GetOutages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, outages, 2)

	assert.Equal(t, 1, outages[0].DownResults)
	assert.True(t, outages[0].StartTime.Equal(base.Add(4*time.Minute)))

	assert.Equal(t, 2, outages[1].DownResults)
	assert.True(t, outages[1].StartTime.Equal(base.Add(time.Minute)))
	assert.True(t, outages[1].EndTime.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, "1m0s", outages[1].Duration)
}

func TestHourlyPatterns(t *testing.T) {
	db := newTestDB(t)
	ts := time.Now().Add(-time.Hour).UTC().Truncate(time.Hour).Add(10 * time.Minute)
	appendCycle(t, db, "c1", upResult("a", ts, 10, 0))
	appendCycle(t, db, "c2", upResult("a", ts.Add(time.Minute), 30, 50))
	appendCycle(t, db, "c3", models.DownResult("a", ts.Add(2*time.Minute)))
	appendCycle(t, db, "c4", models.DownResult("a", ts.Add(3*time.Minute)))

	ctx := context.Background()
	require.NoError(t, db.AggregateHourlyPatterns(ctx))
	// Re-aggregation replaces rows instead of duplicating them.
	require.NoError(t, db.AggregateHourlyPatterns(ctx))

	heat, err := db.GetHeatmapData(ctx, 7)
	require.NoError(t, err)
	require.Len(t, heat, 1)
	assert.Equal(t, ts.Hour(), heat[0].Hour)
	assert.Equal(t, "a", heat[0].Host)
	assert.Equal(t, 4, heat[0].TotalScans)
	assert.Equal(t, 2, heat[0].TotalDown)
	assert.InDelta(t, 50.0, heat[0].DownRate, 0.001)
	assert.InDelta(t, 20.0, heat[0].AvgLatency, 0.001)
	assert.InDelta(t, 31.0, heat[0].MaxLatency, 0.001)
	assert.InDelta(t, 62.5, heat[0].AvgLossPct, 0.001)
	assert.Equal(t, 1, heat[0].DaysWithData)

	patterns, err := db.GetPatterns(ctx, ts.Hour())
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, ts.Format(time.DateOnly), patterns[0].Date)
	assert.Equal(t, 2, patterns[0].DownScans)

	none, err := db.GetPatterns(ctx, (ts.Hour()+1)%24)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPruneBefore(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	appendCycle(t, db, "old", upResult("a", now.AddDate(0, 0, -40), 1, 0))
	appendCycle(t, db, "new", upResult("a", now, 1, 0))

	n, err := db.PruneBefore(context.Background(), now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := db.Query(context.Background(), "a", now.AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].CycleID)
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{sqlDB}, mock
}

func TestAppend_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err := db.Append(context.Background(), models.ScanCycle{
		ID:      "c1",
		Results: []models.ProbeResult{models.DownResult("a", time.Now())},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFailure))
	assert.Contains(t, err.Error(), "DB.Append")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO ping_results")).
		ExpectExec().
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := db.Append(context.Background(), models.ScanCycle{
		ID:      "c1",
		Results: []models.ProbeResult{models.DownResult("a", time.Now())},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFailure))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_Failure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM ping_results").WillReturnError(errors.New("no such table"))

	_, err := db.Query(context.Background(), "a", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFailure))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStats_Failure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM ping_results").WillReturnError(errors.New("boom"))

	_, err := db.GetStats(context.Background(), 24)
	require.ErrorIs(t, err, ErrStoreFailure)
}
