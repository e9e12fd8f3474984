package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository runs the aggregate queries behind the dashboard. Every query is a
// COUNT or COALESCE(SUM) so empty tables read as zero.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a dashboard repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) scalar(ctx context.Context, what, q string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, database.MapError(err, what)
	}
	return n, nil
}

// TotalPeople counts every person of the organization.
func (r *Repository) TotalPeople(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return r.scalar(ctx, "count people", `SELECT COUNT(*) FROM people WHERE organization_id = $1`, orgID)
}

// PeopleCreatedBetween counts people created in [from, to].
func (r *Repository) PeopleCreatedBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int64, error) {
	return r.scalar(ctx, "count new people",
		`SELECT COUNT(*) FROM people WHERE organization_id = $1 AND created_at >= $2 AND created_at <= $3`, orgID, from, to)
}

// InterviewsWithStatus counts interviews in status.
func (r *Repository) InterviewsWithStatus(ctx context.Context, orgID uuid.UUID, status models.InterviewStatus) (int64, error) {
	return r.scalar(ctx, "count interviews",
		`SELECT COUNT(*) FROM interviews WHERE organization_id = $1 AND status = $2`, orgID, status)
}

// InterviewsScheduledBetween counts non-cancelled interviews scheduled in [from, to).
func (r *Repository) InterviewsScheduledBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int64, error) {
	return r.scalar(ctx, "count interviews today",
		`SELECT COUNT(*) FROM interviews
		WHERE organization_id = $1 AND status <> 'cancelled' AND scheduled_at >= $2 AND scheduled_at < $3`, orgID, from, to)
}

// EnrollmentsWithStatus counts enrollments in status.
func (r *Repository) EnrollmentsWithStatus(ctx context.Context, orgID uuid.UUID, status models.EnrollmentStatus) (int64, error) {
	return r.scalar(ctx, "count enrollments",
		`SELECT COUNT(*) FROM enrollments WHERE organization_id = $1 AND status = $2`, orgID, status)
}

// CompletedPaymentsTotal sums completed payment amounts in minor units.
func (r *Repository) CompletedPaymentsTotal(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return r.scalar(ctx, "sum payments",
		`SELECT COALESCE(SUM(amount), 0)::bigint FROM payments WHERE organization_id = $1 AND status = 'completed'`, orgID)
}

// RecentEnrollments returns the latest applications with person and program names.
func (r *Repository) RecentEnrollments(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.Enrollment, error) {
	const q = `SELECT e.id, e.person_id, e.program_id, e.status, e.applied_at, e.created_at, p.name, pr.name
		FROM enrollments e
		INNER JOIN people p ON p.id = e.person_id
		INNER JOIN programs pr ON pr.id = e.program_id
		WHERE e.organization_id = $1
		ORDER BY e.created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, orgID, limit)
	if err != nil {
		return nil, database.MapError(err, "recent enrollments")
	}
	defer rows.Close()
	list := []*models.Enrollment{}
	for rows.Next() {
		e := models.Enrollment{OrganizationID: orgID}
		if err := rows.Scan(&e.ID, &e.PersonID, &e.ProgramID, &e.Status, &e.AppliedAt, &e.CreatedAt, &e.PersonName, &e.ProgramName); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
