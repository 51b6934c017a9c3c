package schedules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/effects"
	"github.com/xelth-com/eckassets/internal/services/notify"
)

// Sweeper reminds technicians of upcoming maintenance. It only reads
// schedules and enqueues notifications, so it can run alongside requests.
type Sweeper struct {
	repos      *repository.Repositories
	notifier   Notifier
	withinDays int
	log        *zap.Logger
	now        func() time.Time
}

func NewSweeper(repos *repository.Repositories, n Notifier, withinDays int, log *zap.Logger) *Sweeper {
	return &Sweeper{
		repos:      repos,
		notifier:   n,
		withinDays: withinDays,
		log:        log.Named("sweeper"),
		now:        time.Now,
	}
}

// Run sends one notification per technician with pending maintenance due
// within the window, across every company. Unassigned items are skipped.
// It returns how many notifications were enqueued.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	due, err := s.repos.Schedules.Due(ctx, access.AllCompanies, dueLimit(s.now(), s.withinDays))
	if err != nil {
		return 0, fmt.Errorf("load due maintenance: %w", err)
	}

	byTech := make(map[uint][]models.ScheduledMaintenance)
	for _, item := range due {
		if item.TechnicianID == nil {
			continue
		}
		byTech[*item.TechnicianID] = append(byTech[*item.TechnicianID], item)
	}

	techIDs := make([]uint, 0, len(byTech))
	for id := range byTech {
		techIDs = append(techIDs, id)
	}
	sort.Slice(techIDs, func(i, j int) bool { return techIDs[i] < techIDs[j] })

	sent := 0
	for _, techID := range techIDs {
		items := byTech[techID]
		msg := notify.Message{
			UserID: techID,
			Kind:   models.NotificationMaintenance,
			Title:  fmt.Sprintf("%d maintenance due soon", len(items)),
			Body:   summarize(items),
			Link:   "/maintenance/scheduled",
		}
		if effects.Run(s.log, "notify", func() error { return s.notifier.Notify(ctx, msg) }) {
			sent++
		}
	}

	s.log.Info("Maintenance sweep finished",
		zap.Int("due", len(due)),
		zap.Int("technicians", len(techIDs)),
		zap.Int("notified", sent))
	return sent, nil
}

// Start runs the sweep once and then on every tick until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		s.log.Info("Maintenance sweeper started", zap.Duration("interval", interval))
		s.runLogged(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runLogged(ctx)
			case <-ctx.Done():
				s.log.Info("Maintenance sweeper stopped")
				return
			}
		}
	}()
}

func (s *Sweeper) runLogged(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil {
		s.log.Error("Maintenance sweep failed", zap.Error(err))
	}
}

func summarize(items []models.ScheduledMaintenance) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		name := fmt.Sprintf("asset %d", item.AssetID)
		if item.Asset != nil {
			name = item.Asset.Name
		}
		lines = append(lines, fmt.Sprintf("%s: %s", repository.DateKey(item.ScheduledDate), name))
	}
	return strings.Join(lines, "\n")
}
