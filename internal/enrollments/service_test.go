package enrollments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/notify"
	"github.com/hkf/crm/internal/realtime"
)

type fakeStore struct {
	rows        map[uuid.UUID]*models.Enrollment
	listErr     error
	decisionErr error
	decisions   int
}

func newFakeStore(rows ...*models.Enrollment) *fakeStore {
	s := &fakeStore{rows: map[uuid.UUID]*models.Enrollment{}}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (f *fakeStore) List(context.Context, uuid.UUID, models.EnrollmentFilter) ([]*models.Enrollment, error) {
	return nil, f.listErr
}

func (f *fakeStore) Get(_ context.Context, orgID, id uuid.UUID) (*models.Enrollment, error) {
	e, ok := f.rows[id]
	if !ok || e.OrganizationID != orgID {
		return nil, fmt.Errorf("enrollment: %w", models.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, orgID uuid.UUID, e *models.Enrollment) error {
	e.ID = uuid.New()
	e.OrganizationID = orgID
	f.rows[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ uuid.UUID, id uuid.UUID, status models.EnrollmentStatus) (*models.Enrollment, error) {
	f.rows[id].Status = status
	cp := *f.rows[id]
	return &cp, nil
}

func (f *fakeStore) RecordDecision(_ context.Context, _ uuid.UUID, id uuid.UUID, status models.EnrollmentStatus, note *string, at time.Time) (*models.Enrollment, error) {
	f.decisions++
	if f.decisionErr != nil {
		return nil, f.decisionErr
	}
	e := f.rows[id]
	e.Status, e.DecisionNote, e.DecidedAt = status, note, &at
	cp := *e
	return &cp, nil
}

type fakePeople struct{ people map[uuid.UUID]*models.Person }

func (f fakePeople) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*models.Person, error) {
	p, ok := f.people[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

type fakePrograms struct{ program *models.Program }

func (f fakePrograms) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Program, error) {
	if f.program == nil {
		return nil, models.ErrNotFound
	}
	return f.program, nil
}

type fakeComms struct {
	created []*models.Communication
	failed  []uuid.UUID
}

func (f *fakeComms) Create(_ context.Context, _ uuid.UUID, c *models.Communication) error {
	c.ID = uuid.New()
	f.created = append(f.created, c)
	return nil
}

func (f *fakeComms) UpdateStatus(_ context.Context, _ uuid.UUID, id uuid.UUID, status models.CommunicationStatus, _ *time.Time, _ string) error {
	if status == models.CommunicationFailed {
		f.failed = append(f.failed, id)
	}
	return nil
}

// mockNotifier follows the func-field mock style.
type mockNotifier struct {
	SendFunc func(ctx context.Context, msg notify.Message) error
	calls    []notify.Message
}

func (m *mockNotifier) Send(ctx context.Context, msg notify.Message) error {
	m.calls = append(m.calls, msg)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}

type recordingInvalidator struct{ got []realtime.Mutation }

func (r *recordingInvalidator) Invalidate(_ context.Context, _ uuid.UUID, m realtime.Mutation) {
	r.got = append(r.got, m)
}

type fixture struct {
	orgID    uuid.UUID
	person   *models.Person
	row      *models.Enrollment
	store    *fakeStore
	comms    *fakeComms
	notifier *mockNotifier
	inv      *recordingInvalidator
	svc      *Service
}

func newFixture(status models.EnrollmentStatus, email string) *fixture {
	orgID := uuid.New()
	person := &models.Person{ID: uuid.New(), OrganizationID: orgID, Name: "Noa Cohen"}
	if email != "" {
		person.Email = &email
	}
	row := &models.Enrollment{
		ID: uuid.New(), OrganizationID: orgID, PersonID: person.ID, ProgramID: uuid.New(),
		Status: status, ProgramName: "Fellows",
	}
	f := &fixture{
		orgID:    orgID,
		person:   person,
		row:      row,
		store:    newFakeStore(row),
		comms:    &fakeComms{},
		notifier: &mockNotifier{},
		inv:      &recordingInvalidator{},
	}
	f.svc = NewService(f.store, fakePeople{people: map[uuid.UUID]*models.Person{person.ID: person}}, fakePrograms{}, f.comms, f.notifier, f.inv, nil)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC) }
	return f
}

func decision(d models.Decision) *models.Decision { return &d }

func TestRecordDecision_NilDecisionWritesNothing(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "noa@example.com")

	res, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, DecisionInput{Notify: true})

	assert.Nil(t, res)
	assert.True(t, models.IsValidation(err))
	assert.Zero(t, f.store.decisions)
	assert.Empty(t, f.notifier.calls)
}

func TestRecordDecision_AcceptAndNotify(t *testing.T) {
	f := newFixture(models.EnrollmentInterviewing, "noa@example.com")

	res, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, DecisionInput{
		Decision: decision(models.DecisionAccept), Note: " Great interview ", Notify: true,
	})

	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentAccepted, res.Enrollment.Status)
	require.NotNil(t, res.Enrollment.DecisionNote)
	assert.Equal(t, "Great interview", *res.Enrollment.DecisionNote)
	assert.Equal(t, time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC), *res.Enrollment.DecidedAt)
	assert.Equal(t, NotificationResult{Attempted: true, Sent: true}, res.Notification)

	require.Len(t, f.notifier.calls, 1)
	msg := f.notifier.calls[0]
	assert.Equal(t, "noa@example.com", msg.Email)
	assert.Contains(t, msg.Body, "Fellows")
	require.Len(t, f.comms.created, 1)
	assert.Equal(t, f.comms.created[0].ID, *msg.CommunicationID)
	assert.Equal(t, models.DirectionOutbound, f.comms.created[0].Direction)

	require.NotEmpty(t, f.inv.got)
	assert.Equal(t, realtime.EntityEnrollment, f.inv.got[0].Entity)
	assert.Equal(t, f.person.ID, f.inv.got[0].PersonID)
}

func TestRecordDecision_NotificationFailureKeepsDecision(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "noa@example.com")
	f.notifier.SendFunc = func(context.Context, notify.Message) error { return errors.New("smtp unreachable") }

	res, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, DecisionInput{
		Decision: decision(models.DecisionReject), Notify: true,
	})

	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentRejected, f.store.rows[f.row.ID].Status)
	assert.True(t, res.Notification.Attempted)
	assert.False(t, res.Notification.Sent)
	assert.Contains(t, res.Notification.Error, "smtp unreachable")
	require.Len(t, f.comms.failed, 1)
	assert.Equal(t, f.comms.created[0].ID, f.comms.failed[0])
}

func TestRecordDecision_WriteFailureSkipsNotification(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "noa@example.com")
	f.store.decisionErr = errors.New("connection reset")

	res, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, DecisionInput{
		Decision: decision(models.DecisionAccept), Notify: true,
	})

	assert.Nil(t, res)
	assert.Error(t, err)
	assert.Empty(t, f.notifier.calls)
	assert.Empty(t, f.inv.got)
}

func TestRecordDecision_Idempotent(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "")
	in := DecisionInput{Decision: decision(models.DecisionAccept), Note: "ok"}

	first, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, in)
	require.NoError(t, err)
	second, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, in)
	require.NoError(t, err)

	assert.Equal(t, first.Enrollment.Status, second.Enrollment.Status)
	assert.Equal(t, *first.Enrollment.DecisionNote, *second.Enrollment.DecisionNote)
	assert.Equal(t, models.EnrollmentAccepted, f.store.rows[f.row.ID].Status)
}

func TestRecordDecision_NoEmailSkipsNotification(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "")

	res, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, DecisionInput{
		Decision: decision(models.DecisionAccept), Notify: true,
	})

	require.NoError(t, err)
	assert.False(t, res.Notification.Attempted)
	assert.Equal(t, "person has no email", res.Notification.Skipped)
	assert.Empty(t, f.notifier.calls)
}

func TestRecordDecision_Rules(t *testing.T) {
	tests := []struct {
		name    string
		from    models.EnrollmentStatus
		d       models.Decision
		wantErr error
	}{
		{"reverse a rejection", models.EnrollmentRejected, models.DecisionAccept, nil},
		{"reject after accept", models.EnrollmentAccepted, models.DecisionReject, nil},
		{"enrolled cannot be rejected", models.EnrollmentEnrolled, models.DecisionReject, models.ErrInvalidTransition},
		{"dropped is terminal", models.EnrollmentDropped, models.DecisionAccept, models.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.from, "")
			_, err := f.svc.RecordDecision(context.Background(), f.orgID, f.row.ID, DecisionInput{Decision: decision(tt.d)})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.store.decisions)
		})
	}
}

func TestRecordDecision_OtherTenant(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "")
	_, err := f.svc.RecordDecision(context.Background(), uuid.New(), f.row.ID, DecisionInput{Decision: decision(models.DecisionAccept)})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApply_RequiredFields(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "")
	f.svc.programs = fakePrograms{program: &models.Program{
		Name: "Fellows", IsActive: true,
		Config: models.ProgramConfig{ApplicationFields: []models.ApplicationField{
			{ID: "motivation", Label: "Motivation", Required: true},
			{ID: "linkedin", Label: "LinkedIn"},
		}},
	}}

	e := &models.Enrollment{PersonID: f.person.ID, ProgramID: uuid.New(), ApplicationData: models.Metadata{"motivation": "  "}}
	err := f.svc.Apply(context.Background(), f.orgID, e)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "application_data.motivation", ve.Field)

	e.ApplicationData["motivation"] = "I want to lead"
	require.NoError(t, f.svc.Apply(context.Background(), f.orgID, e))
	assert.Equal(t, models.EnrollmentApplied, e.Status)
	assert.Equal(t, "Fellows", e.ProgramName)
}

func TestApply_InactiveProgram(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "")
	f.svc.programs = fakePrograms{program: &models.Program{Name: "Old", IsActive: false}}
	err := f.svc.Apply(context.Background(), f.orgID, &models.Enrollment{PersonID: f.person.ID})
	assert.True(t, models.IsValidation(err))
}

func TestChangeStatus(t *testing.T) {
	f := newFixture(models.EnrollmentAccepted, "")

	e, err := f.svc.ChangeStatus(context.Background(), f.orgID, f.row.ID, models.EnrollmentEnrolled)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentEnrolled, e.Status)

	_, err = f.svc.ChangeStatus(context.Background(), f.orgID, f.row.ID, models.EnrollmentApplied)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = f.svc.ChangeStatus(context.Background(), f.orgID, f.row.ID, "graduated")
	assert.True(t, models.IsValidation(err))
}

func TestDecideHandler(t *testing.T) {
	f := newFixture(models.EnrollmentEnrolled, "")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextOrganizationID, f.orgID) })
	h := NewHandler(f.store, f.svc)
	r.POST("/enrollments/:id/decision", h.Decide)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"no decision chosen", `{"decision":null,"notify":true}`, http.StatusBadRequest},
		{"unknown decision", `{"decision":"maybe"}`, http.StatusBadRequest},
		{"not allowed from enrolled", `{"decision":"reject"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/enrollments/"+f.row.ID.String()+"/decision", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Zero(t, f.store.decisions)
}

func TestListHandler_LogsStoreError(t *testing.T) {
	f := newFixture(models.EnrollmentApplied, "")
	f.store.listErr = errors.New("connection refused: pg 10.0.0.5")
	core, logs := observer.New(zapcore.InfoLevel)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextOrganizationID, f.orgID) })
	r.Use(middleware.Logger(zap.New(core)))
	r.GET("/enrollments", NewHandler(f.store, f.svc).List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/enrollments", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap()["errors"], "connection refused: pg 10.0.0.5")
}
