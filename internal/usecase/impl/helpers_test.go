package impl

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"briefly/internal/domain/entity"
	"briefly/internal/domain/repository"
	"briefly/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type tokenKey struct {
	userID   uuid.UUID
	provider entity.ProviderType
}

// fakeTokenRepo is an in-memory TokenRepository with upsert semantics
// matching the real one.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[tokenKey]*entity.OAuthToken
	failOp string // operation name forced to fail
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[tokenKey]*entity.OAuthToken{}}
}

func (r *fakeTokenRepo) SaveToken(_ context.Context, token *entity.OAuthToken) error {
	if r.failOp == "save" {
		return errors.New("forced save failure")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cloned := *token
	r.tokens[tokenKey{token.UserID, token.Provider}] = &cloned

	return nil
}

func (r *fakeTokenRepo) GetToken(_ context.Context, userID uuid.UUID, provider entity.ProviderType) (*entity.OAuthToken, error) {
	if r.failOp == "get" {
		return nil, errors.New("forced get failure")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenKey{userID, provider}]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	cloned := *token

	return &cloned, nil
}

func (r *fakeTokenRepo) DeleteToken(_ context.Context, userID uuid.UUID, provider entity.ProviderType) error {
	if r.failOp == "delete" {
		return errors.New("forced delete failure")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenKey{userID, provider})

	return nil
}

func (r *fakeTokenRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.OAuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.OAuthToken
	for key, token := range r.tokens {
		if key.userID == userID {
			cloned := *token
			out = append(out, &cloned)
		}
	}

	return out, nil
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tokens)
}

// fakeRecoveryRepo is an in-memory RecoveryRepository.
type fakeRecoveryRepo struct {
	mu       sync.Mutex
	progress map[uuid.UUID]*entity.RecoveryProgress
}

func newFakeRecoveryRepo() *fakeRecoveryRepo {
	return &fakeRecoveryRepo{progress: map[uuid.UUID]*entity.RecoveryProgress{}}
}

func (r *fakeRecoveryRepo) SaveProgress(_ context.Context, progress *entity.RecoveryProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cloned := *progress
	cloned.CompletedSteps = append([]string(nil), progress.CompletedSteps...)
	r.progress[progress.UserID] = &cloned

	return nil
}

func (r *fakeRecoveryRepo) GetProgress(_ context.Context, userID uuid.UUID) (*entity.RecoveryProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	progress, ok := r.progress[userID]
	if !ok {
		return nil, repository.ErrRecoveryNotFound
	}
	cloned := *progress
	cloned.CompletedSteps = append([]string(nil), progress.CompletedSteps...)

	return &cloned, nil
}

func (r *fakeRecoveryRepo) DeleteProgress(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.progress, userID)

	return nil
}

// fakeRefreshEventRepo journals into a slice.
type fakeRefreshEventRepo struct {
	mu     sync.Mutex
	events []*entity.TokenRefreshEvent
}

func (r *fakeRefreshEventRepo) RecordRefreshEvent(_ context.Context, event *entity.TokenRefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)

	return nil
}

// fakeViolationRepo records violations, optionally failing.
type fakeViolationRepo struct {
	mu         sync.Mutex
	violations []*entity.FlowSeparationViolation
	fail       bool
}

func (r *fakeViolationRepo) RecordViolation(_ context.Context, violation *entity.FlowSeparationViolation) error {
	if r.fail {
		return errors.New("forced violation failure")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, violation)

	return nil
}

// fakeTxManager runs the function directly against the fakes, no transaction.
type fakeTxManager struct {
	tokenRepo        *fakeTokenRepo
	recoveryRepo     *fakeRecoveryRepo
	refreshEventRepo *fakeRefreshEventRepo
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m)
}

func (m *fakeTxManager) TokenRepo() repository.TokenRepository { return m.tokenRepo }
func (m *fakeTxManager) RecoveryRepo() repository.RecoveryRepository {
	return m.recoveryRepo
}
func (m *fakeTxManager) RefreshEventRepo() repository.RefreshEventRepository {
	return m.refreshEventRepo
}

// fakeProviderClient scripts exchange and refresh outcomes.
type fakeProviderClient struct {
	provider     entity.ProviderType
	exchange     *service.TokenGrant
	exchangeErr  error
	refresh      *service.TokenGrant
	refreshErr   error
	refreshCalls int
}

func (c *fakeProviderClient) Provider() entity.ProviderType { return c.provider }
func (c *fakeProviderClient) AuthCodeURL(state string) string {
	return "https://consent.example.com/authorize?state=" + state
}

func (c *fakeProviderClient) Exchange(context.Context, string) (*service.TokenGrant, error) {
	return c.exchange, c.exchangeErr
}

func (c *fakeProviderClient) Refresh(context.Context, string) (*service.TokenGrant, error) {
	c.refreshCalls++

	return c.refresh, c.refreshErr
}

// recordingAudit captures every audit call.
type recordingAudit struct {
	mu         sync.Mutex
	selections []*entity.FileSelectionEvent
	accesses   []*entity.FileAccessEvent
	security   []*entity.SecurityEvent
	privacy    []*entity.PrivacyEvent
}

func (a *recordingAudit) LogFileSelection(_ context.Context, event *entity.FileSelectionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selections = append(a.selections, event)
}

func (a *recordingAudit) LogFileAccess(_ context.Context, event *entity.FileAccessEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accesses = append(a.accesses, event)
}

func (a *recordingAudit) LogSecurityEvent(_ context.Context, event *entity.SecurityEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.security = append(a.security, event)
}

func (a *recordingAudit) LogPrivacyEvent(_ context.Context, event *entity.PrivacyEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.privacy = append(a.privacy, event)
}

// fakePublisher and fakeArchiver capture sanitized records for the audit
// service tests.
type fakePublisher struct {
	mu      sync.Mutex
	records []*entity.AuditRecord
	fail    bool
}

func (p *fakePublisher) PublishAuditRecord(_ context.Context, record *entity.AuditRecord) error {
	if p.fail {
		return errors.New("forced publish failure")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeArchiver struct {
	mu      sync.Mutex
	records []*entity.AuditRecord
	fail    bool
}

func (a *fakeArchiver) Archive(_ context.Context, record *entity.AuditRecord) error {
	if a.fail {
		return errors.New("forced archive failure")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)

	return nil
}

func (a *fakeArchiver) Close() error { return nil }

// seqIDGen mints predictable ids.
type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++

	return "id-" + strconv.Itoa(g.n)
}

// fixedClock returns a settable time.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
