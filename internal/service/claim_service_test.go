package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profsight/profsight-api/internal/models"
	appErrors "github.com/profsight/profsight-api/pkg/errors"
)

type mockClaimRepo struct {
	claims          map[string]*models.ClaimRequest
	byUserStatus    map[string]*models.ClaimRequest
	professorHold   map[string]bool
	boundProfessors map[string]string
	createErr       error
	approveErr      error
	transitioned    []models.ClaimStatus
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *models.ClaimRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	claim.ID = uuid.NewString()
	claim.RequestedAt = time.Now().UTC()
	if m.claims == nil {
		m.claims = make(map[string]*models.ClaimRequest)
	}
	m.claims[claim.ID] = claim
	return nil
}

func (m *mockClaimRepo) FindByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	claim, ok := m.claims[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return claim, nil
}

func (m *mockClaimRepo) FindByUserAndStatus(ctx context.Context, userID string, status models.ClaimStatus) (*models.ClaimRequest, error) {
	claim, ok := m.byUserStatus[userID+":"+string(status)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return claim, nil
}

func (m *mockClaimRepo) HasStatus(ctx context.Context, professorID string, status models.ClaimStatus) (bool, error) {
	return m.professorHold[professorID+":"+string(status)], nil
}

func (m *mockClaimRepo) ListPending(ctx context.Context) ([]models.PendingClaim, error) {
	return nil, nil
}

func (m *mockClaimRepo) Transition(ctx context.Context, id string, to models.ClaimStatus, resolvedBy *string, reason *string, at time.Time) error {
	claim, ok := m.claims[id]
	if !ok || claim.Status != models.ClaimPending {
		return sql.ErrNoRows
	}
	claim.Status = to
	claim.ResolvedAt = &at
	claim.ResolvedBy = resolvedBy
	claim.ResolutionReason = reason
	m.transitioned = append(m.transitioned, to)
	return nil
}

// Approve mirrors the transactional semantics: any failure leaves the
// claim, the profile binding, and competing claims untouched.
func (m *mockClaimRepo) Approve(ctx context.Context, claimID, professorID, userID string, resolvedBy *string, competingReason string, at time.Time) (int64, error) {
	claim, ok := m.claims[claimID]
	if !ok || claim.Status != models.ClaimPending {
		return 0, sql.ErrNoRows
	}
	if _, taken := m.boundProfessors[professorID]; taken {
		return 0, appErrors.Clone(appErrors.ErrConflict, "professor profile already claimed")
	}
	if m.approveErr != nil {
		return 0, m.approveErr
	}
	claim.Status = models.ClaimApproved
	claim.ResolvedAt = &at
	claim.ResolvedBy = resolvedBy
	if m.boundProfessors == nil {
		m.boundProfessors = make(map[string]string)
	}
	m.boundProfessors[professorID] = userID
	var rejected int64
	for _, other := range m.claims {
		if other.ID != claimID && other.ProfessorID == professorID && other.Status == models.ClaimPending {
			reason := competingReason
			other.Status = models.ClaimRejected
			other.ResolvedAt = &at
			other.ResolvedBy = resolvedBy
			other.ResolutionReason = &reason
			rejected++
		}
	}
	return rejected, nil
}

type mockClaimProfessorRepo struct {
	professor *models.Professor
}

func (m *mockClaimProfessorRepo) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	if m.professor == nil || m.professor.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.professor, nil
}

type mockClaimAuditRepo struct {
	logs []*models.AuditLog
}

func (m *mockClaimAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newClaimFixture(professor *models.Professor) (*ClaimService, *mockClaimRepo, *mockClaimProfessorRepo, *mockClaimAuditRepo) {
	repo := &mockClaimRepo{claims: make(map[string]*models.ClaimRequest)}
	professors := &mockClaimProfessorRepo{professor: professor}
	audit := &mockClaimAuditRepo{}
	svc := NewClaimService(repo, professors, audit, nil, nil, validator.New(), zap.NewNop())
	return svc, repo, professors, audit
}

func professorActor(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleProfessor}
}

func TestClaimServiceSubmit(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID, Name: "Ada Lovelace"})

	claim, err := svc.Submit(context.Background(), professorActor("u1"), models.ClaimSubmitRequest{ProfessorID: professorID})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)
	assert.Equal(t, "u1", claim.UserID)
	assert.Len(t, repo.claims, 1)
}

func TestClaimServiceSubmitStudentForbidden(t *testing.T) {
	professorID := uuid.NewString()
	svc, _, _, _ := newClaimFixture(&models.Professor{ID: professorID})

	_, err := svc.Submit(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, models.ClaimSubmitRequest{ProfessorID: professorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceSubmitAlreadyClaimedProfile(t *testing.T) {
	professorID := uuid.NewString()
	owner := "someone-else"
	svc, _, _, _ := newClaimFixture(&models.Professor{ID: professorID, ClaimedByUserID: &owner})

	_, err := svc.Submit(context.Background(), professorActor("u1"), models.ClaimSubmitRequest{ProfessorID: professorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceSubmitPendingElsewhere(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID})
	repo.byUserStatus = map[string]*models.ClaimRequest{
		"u1:pending": {ID: "c0", UserID: "u1", Status: models.ClaimPending},
	}

	_, err := svc.Submit(context.Background(), professorActor("u1"), models.ClaimSubmitRequest{ProfessorID: professorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceSubmitCompetingPending(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID})
	repo.professorHold = map[string]bool{professorID + ":pending": true}

	_, err := svc.Submit(context.Background(), professorActor("u1"), models.ClaimSubmitRequest{ProfessorID: professorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceSubmitGuardedInsertConflict(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID})
	repo.createErr = sql.ErrNoRows

	_, err := svc.Submit(context.Background(), professorActor("u1"), models.ClaimSubmitRequest{ProfessorID: professorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceMyStatusPrefersPending(t *testing.T) {
	svc, repo, _, _ := newClaimFixture(nil)
	pending := &models.ClaimRequest{ID: "c1", UserID: "u1", ProfessorID: "p1", Status: models.ClaimPending}
	rejected := &models.ClaimRequest{ID: "c0", UserID: "u1", ProfessorID: "p2", Status: models.ClaimRejected}
	repo.byUserStatus = map[string]*models.ClaimRequest{
		"u1:pending":  pending,
		"u1:rejected": rejected,
	}

	summary, err := svc.MyStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, summary.HasPending)
	assert.True(t, summary.HasRejected)
	assert.False(t, summary.HasApproved)
	assert.Equal(t, "c1", summary.ClaimRequest.ID)
}

func TestClaimServiceCancelOwnerOnly(t *testing.T) {
	svc, repo, _, _ := newClaimFixture(nil)
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", Status: models.ClaimPending}

	_, err := svc.Cancel(context.Background(), professorActor("intruder"), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	claim, err := svc.Cancel(context.Background(), professorActor("u1"), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimCancelled, claim.Status)
}

func TestClaimServiceCancelNotPending(t *testing.T) {
	svc, repo, _, _ := newClaimFixture(nil)
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", Status: models.ClaimApproved}

	_, err := svc.Cancel(context.Background(), professorActor("u1"), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceApprove(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, audit := newClaimFixture(&models.Professor{ID: professorID})
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", ProfessorID: professorID, Status: models.ClaimPending}
	repo.claims["c2"] = &models.ClaimRequest{ID: "c2", UserID: "u2", ProfessorID: professorID, Status: models.ClaimPending}

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	claim, err := svc.Approve(context.Background(), admin, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, claim.Status)
	assert.Equal(t, "u1", repo.boundProfessors[professorID])
	assert.Equal(t, models.ClaimRejected, repo.claims["c2"].Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionClaimApprove, audit.logs[0].Action)
}

func TestClaimServiceApproveLosesBindingRace(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID})
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", ProfessorID: professorID, Status: models.ClaimPending}
	repo.boundProfessors = map[string]string{professorID: "someone-else"}

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, err := svc.Approve(context.Background(), admin, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	// The losing claim stays pending so an admin can still resolve it.
	assert.Equal(t, models.ClaimPending, repo.claims["c1"].Status)
}

func TestClaimServiceApproveAtomicUnderFailure(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID})
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", ProfessorID: professorID, Status: models.ClaimPending}
	repo.claims["c2"] = &models.ClaimRequest{ID: "c2", UserID: "u2", ProfessorID: professorID, Status: models.ClaimPending}
	repo.approveErr = errors.New("connection reset")

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, err := svc.Approve(context.Background(), admin, "c1")
	require.Error(t, err)
	assert.Equal(t, models.ClaimPending, repo.claims["c1"].Status)
	assert.Empty(t, repo.boundProfessors)

	repo.approveErr = nil
	claim, err := svc.Approve(context.Background(), admin, "c2")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, claim.Status)
	assert.Equal(t, "u2", repo.boundProfessors[professorID])

	var approved int
	for _, c := range repo.claims {
		if c.Status == models.ClaimApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, models.ClaimRejected, repo.claims["c1"].Status)
}

func TestClaimServiceNilActor(t *testing.T) {
	professorID := uuid.NewString()
	svc, repo, _, _ := newClaimFixture(&models.Professor{ID: professorID})
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", Status: models.ClaimPending}

	_, err := svc.Submit(context.Background(), nil, models.ClaimSubmitRequest{ProfessorID: professorID})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.Cancel(context.Background(), nil, "c1")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.Approve(context.Background(), nil, "c1")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceApproveAlreadyResolved(t *testing.T) {
	svc, repo, _, _ := newClaimFixture(nil)
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", ProfessorID: "p1", Status: models.ClaimRejected}

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, err := svc.Approve(context.Background(), admin, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceReject(t *testing.T) {
	svc, repo, _, audit := newClaimFixture(nil)
	repo.claims["c1"] = &models.ClaimRequest{ID: "c1", UserID: "u1", ProfessorID: "p1", Status: models.ClaimPending}

	reason := "could not verify identity"
	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	claim, err := svc.Reject(context.Background(), admin, "c1", models.ClaimRejectRequest{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimRejected, claim.Status)
	require.NotNil(t, claim.ResolutionReason)
	assert.Equal(t, reason, *claim.ResolutionReason)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionClaimReject, audit.logs[0].Action)
}
