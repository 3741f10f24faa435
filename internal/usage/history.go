package usage

import (
	"context"
	"fmt"
	"time"

	"laundry-booking-backend/internal/errs"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	topRooms  = 10
	statsDays = 7
)

type HistoryQuery struct {
	Limit      int
	RoomNumber string
	MachineID  int64
}

// DailyUsage summarises the sessions that ended on one calendar day.
type DailyUsage struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	TotalDuration int    `json:"totalDuration"`
}

type Statistics struct {
	Totals         store.HistoryAggregate     `json:"totals"`
	ByMachineType  []store.HistoryAggregate   `json:"byMachineType"`
	TopRooms       []store.HistoryAggregate   `json:"topRooms"`
	Last7Days      []DailyUsage               `json:"last7Days"`
	Today          DailyUsage                 `json:"today"`
	Machines       []store.MachineStatusCount `json:"machines"`
	ActiveSessions int64                      `json:"activeSessions"`
	Queue          []store.QueueCount         `json:"queue"`
	GeneratedAt    time.Time                  `json:"generatedAt"`
}

// History returns completed sessions, newest first.
func (m *Manager) History(ctx context.Context, q HistoryQuery) ([]model.HistoryEntry, error) {
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	room, err := roomFilter(q.RoomNumber)
	if err != nil {
		return nil, err
	}
	entries, err := m.store.ListHistory(ctx, store.HistoryFilter{
		RoomNumber: room,
		MachineID:  q.MachineID,
		Limit:      limit,
	})
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("list history: %w", err))
	}
	return entries, nil
}

// Statistics aggregates the history log together with current machine, session and queue
// counts. Days are calendar days in the manager's location.
func (m *Manager) Statistics(ctx context.Context) (*Statistics, error) {
	var (
		stats = &Statistics{GeneratedAt: m.clock()}
		err   error
	)
	if stats.Totals, err = m.store.HistoryTotals(ctx); err != nil {
		return nil, errs.Internal(fmt.Errorf("history totals: %w", err))
	}
	if stats.ByMachineType, err = m.store.HistoryByType(ctx); err != nil {
		return nil, errs.Internal(fmt.Errorf("history by type: %w", err))
	}
	if stats.TopRooms, err = m.store.HistoryByRoom(ctx, topRooms); err != nil {
		return nil, errs.Internal(fmt.Errorf("history by room: %w", err))
	}
	if stats.Machines, err = m.store.MachineStatusCounts(ctx); err != nil {
		return nil, errs.Internal(fmt.Errorf("machine counts: %w", err))
	}
	if stats.ActiveSessions, err = m.store.CountActiveSessions(ctx, 0); err != nil {
		return nil, errs.Internal(fmt.Errorf("active sessions: %w", err))
	}
	if stats.Queue, err = m.store.QueueCounts(ctx); err != nil {
		return nil, errs.Internal(fmt.Errorf("queue counts: %w", err))
	}

	days, err := m.dailyUsage(ctx, stats.GeneratedAt)
	if err != nil {
		return nil, err
	}
	stats.Last7Days = days
	stats.Today = days[len(days)-1]
	return stats, nil
}

// dailyUsage returns one bucket per day for the last statsDays days, oldest first,
// including days without sessions.
func (m *Manager) dailyUsage(ctx context.Context, now time.Time) ([]DailyUsage, error) {
	local := now.In(m.loc)
	y, mo, d := local.Date()
	first := time.Date(y, mo, d, 0, 0, 0, 0, m.loc).AddDate(0, 0, -(statsDays - 1))

	entries, err := m.store.ListHistorySince(ctx, first.UTC())
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("recent history: %w", err))
	}

	days := make([]DailyUsage, statsDays)
	index := make(map[string]int, statsDays)
	for i := range days {
		key := first.AddDate(0, 0, i).Format(time.DateOnly)
		days[i].Date = key
		index[key] = i
	}
	for _, e := range entries {
		i, ok := index[e.EndTime.In(m.loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		days[i].Count++
		days[i].TotalDuration += e.DurationMinutes
	}
	return days, nil
}

// PruneHistory deletes history entries older than keepDays and returns how many went.
func (m *Manager) PruneHistory(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, errs.Validation("keepDays must be positive")
	}
	cutoff := m.clock().AddDate(0, 0, -keepDays)
	res, err := m.store.DeleteHistoryBefore(ctx, cutoff)
	if err != nil {
		return 0, errs.Internal(fmt.Errorf("prune history: %w", err))
	}
	return res.RowsAffected, nil
}
