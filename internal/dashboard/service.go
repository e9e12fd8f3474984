package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hkf/crm/internal/models"
)

// RecentLimit is how many applications the recent widget shows.
const RecentLimit = 10

// Source is the aggregate data the service reads; *Repository satisfies it.
type Source interface {
	TotalPeople(ctx context.Context, orgID uuid.UUID) (int64, error)
	PeopleCreatedBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int64, error)
	InterviewsWithStatus(ctx context.Context, orgID uuid.UUID, status models.InterviewStatus) (int64, error)
	InterviewsScheduledBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int64, error)
	EnrollmentsWithStatus(ctx context.Context, orgID uuid.UUID, status models.EnrollmentStatus) (int64, error)
	CompletedPaymentsTotal(ctx context.Context, orgID uuid.UUID) (int64, error)
	RecentEnrollments(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.Enrollment, error)
}

// Stats is the dashboard summary. Amounts are minor units.
type Stats struct {
	TotalPeople            int64 `json:"totalPeople"`
	PendingInterviews      int64 `json:"pendingInterviews"`
	AcceptedEnrollments    int64 `json:"acceptedEnrollments"`
	CompletedPaymentsTotal int64 `json:"completedPaymentsTotal"`
	NewPeopleThisWeek      int64 `json:"newPeopleThisWeek"`
	InterviewsToday        int64 `json:"interviewsToday"`
}

// Windows are the time ranges the stats are computed over.
type Windows struct {
	DayStart  time.Time // local midnight today
	DayEnd    time.Time // next local midnight
	WeekStart time.Time // now - 7 days
	Now       time.Time
}

// WindowsAt computes the windows for now in loc.
func WindowsAt(now time.Time, loc *time.Location) Windows {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Windows{
		DayStart:  start,
		DayEnd:    start.AddDate(0, 0, 1),
		WeekStart: local.AddDate(0, 0, -7),
		Now:       local,
	}
}

// Service computes dashboard aggregates per request. Nothing is stored or cached.
type Service struct {
	src Source
	loc *time.Location
	now func() time.Time
}

// NewService creates a dashboard service. loc nil means the server's local zone.
func NewService(src Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{src: src, loc: loc, now: time.Now}
}

// Stats runs the six aggregates concurrently. The first error cancels the rest.
func (s *Service) Stats(ctx context.Context, orgID uuid.UUID) (*Stats, error) {
	w := WindowsAt(s.now(), s.loc)
	var out Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalPeople, err = s.src.TotalPeople(ctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingInterviews, err = s.src.InterviewsWithStatus(ctx, orgID, models.InterviewScheduled)
		return err
	})
	g.Go(func() (err error) {
		out.AcceptedEnrollments, err = s.src.EnrollmentsWithStatus(ctx, orgID, models.EnrollmentAccepted)
		return err
	})
	g.Go(func() (err error) {
		out.CompletedPaymentsTotal, err = s.src.CompletedPaymentsTotal(ctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		out.NewPeopleThisWeek, err = s.src.PeopleCreatedBetween(ctx, orgID, w.WeekStart, w.Now)
		return err
	})
	g.Go(func() (err error) {
		out.InterviewsToday, err = s.src.InterviewsScheduledBetween(ctx, orgID, w.DayStart, w.DayEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recent returns the latest applications for the dashboard.
func (s *Service) Recent(ctx context.Context, orgID uuid.UUID) ([]*models.Enrollment, error) {
	return s.src.RecentEnrollments(ctx, orgID, RecentLimit)
}
