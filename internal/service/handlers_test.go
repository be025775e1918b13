package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/events"
	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/outbox"
)

type mockTeamsRepo struct{ mock.Mock }

func (m *mockTeamsRepo) Insert(ctx context.Context, tx *sqlx.Tx, t *domain.Team) error {
	return m.Called(ctx, tx, t).Error(0)
}

func (m *mockTeamsRepo) Update(ctx context.Context, tx *sqlx.Tx, t *domain.Team) error {
	return m.Called(ctx, tx, t).Error(0)
}

func (m *mockTeamsRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*domain.Team)
	return t, args.Error(1)
}

type mockUsersRepo struct{ mock.Mock }

func (m *mockUsersRepo) Insert(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	return m.Called(ctx, tx, u).Error(0)
}

func (m *mockUsersRepo) Update(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	return m.Called(ctx, tx, u).Error(0)
}

func (m *mockUsersRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsersRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsersRepo) GetByAccessToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsersRepo) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockInvitationsRepo struct{ mock.Mock }

func (m *mockInvitationsRepo) Insert(ctx context.Context, tx *sqlx.Tx, inv *domain.Invitation) error {
	return m.Called(ctx, tx, inv).Error(0)
}

func (m *mockInvitationsRepo) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *mockInvitationsRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*domain.Invitation)
	return inv, args.Error(1)
}

func (m *mockInvitationsRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// memoryWork implements events.Work without a database, so handler behavior
// is observable through its tracked aggregates and staged records.
type memoryWork struct {
	aggs   []domain.Aggregate
	staged []outbox.Record
}

func (w *memoryWork) Track(agg domain.Aggregate, _ events.SaveFunc) { w.aggs = append(w.aggs, agg) }
func (w *memoryWork) Tracked() []domain.Aggregate                   { return w.aggs }
func (w *memoryWork) StageOutbox(rec outbox.Record)                 { w.staged = append(w.staged, rec) }

func (w *memoryWork) stagedTypes() []string {
	types := make([]string, 0, len(w.staged))
	for _, rec := range w.staged {
		types = append(types, rec.Type)
	}
	return types
}

func newHandlerFixture(t *testing.T) (*mockTeamsRepo, *mockUsersRepo, *mockInvitationsRepo, *events.Dispatcher) {
	t.Helper()
	teams := new(mockTeamsRepo)
	users := new(mockUsersRepo)
	invitations := new(mockInvitationsRepo)

	d := events.NewDispatcher(zap.NewNop())
	NewEventHandlers(teams, users, invitations, outbox.NewManager()).RegisterAll(d)
	return teams, users, invitations, d
}

func TestHandlers_UserCreated_StagesActivationEmail(t *testing.T) {
	_, _, _, d := newHandlerFixture(t)

	u, err := domain.NewUser("U1", "alice@example.com", "Alice", "code", "token", time.Now().UTC())
	require.NoError(t, err)

	w := &memoryWork{}
	w.Track(u, nil)

	require.NoError(t, d.DispatchAll(context.Background(), w))

	require.Equal(t, []string{integration.TypeEmailCreated}, w.stagedTypes())
	assert.Contains(t, string(w.staged[0].Data), "alice@example.com")
}

func TestHandlers_InvitationCreated_StagesInviteEmail(t *testing.T) {
	_, _, _, d := newHandlerFixture(t)

	team, err := domain.NewTeam("T1", "Backend", "owner-1", time.Now().UTC())
	require.NoError(t, err)
	inv := domain.NewInvitation("I1", team, "bob@example.com", time.Now().UTC())

	w := &memoryWork{}
	w.Track(inv, nil)

	require.NoError(t, d.DispatchAll(context.Background(), w))
	require.Equal(t, []string{integration.TypeEmailCreated}, w.stagedTypes())
	assert.Contains(t, string(w.staged[0].Data), "bob@example.com")
}

// Accepting an invitation cascades: the first pass joins the user to the
// team, the second pass (TeamMemberAdded) stages the welcome email and the
// MemberJoined notification. The invitation deletion is tracked into the
// same unit of work.
func TestHandlers_InvitationAccepted_Cascade(t *testing.T) {
	teams, users, _, d := newHandlerFixture(t)

	now := time.Now().UTC()
	team, err := domain.NewTeam("T1", "Backend", "owner-1", now)
	require.NoError(t, err)
	bob, err := domain.NewUser("U2", "bob@example.com", "Bob", "c", "t", now)
	require.NoError(t, err)
	bob.Drain()

	inv := domain.NewInvitation("I1", team, "bob@example.com", now)
	inv.Drain()
	require.NoError(t, inv.Accept(bob))

	teams.On("GetByID", mock.Anything, "T1").Return(team, nil).Once()
	users.On("GetByID", mock.Anything, "U2").Return(bob, nil).Once()

	w := &memoryWork{}
	w.Track(inv, nil)

	require.NoError(t, d.DispatchAll(context.Background(), w))

	// bob joined
	role, ok := team.MemberRole("U2")
	require.True(t, ok)
	assert.Equal(t, domain.RoleMember, role)

	// team update and invitation delete got tracked
	assert.Contains(t, w.Tracked(), domain.Aggregate(team))

	// welcome email + joined notification staged by the second pass
	assert.Equal(t, []string{integration.TypeEmailCreated, integration.TypeMemberJoined}, w.stagedTypes())

	teams.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestHandlers_InvitationAccepted_TeamLoadFailureAborts(t *testing.T) {
	teams, _, _, d := newHandlerFixture(t)

	now := time.Now().UTC()
	team, err := domain.NewTeam("T1", "Backend", "owner-1", now)
	require.NoError(t, err)
	bob, err := domain.NewUser("U2", "bob@example.com", "Bob", "c", "t", now)
	require.NoError(t, err)
	bob.Drain()

	inv := domain.NewInvitation("I1", team, "bob@example.com", now)
	inv.Drain()
	require.NoError(t, inv.Accept(bob))

	teams.On("GetByID", mock.Anything, "T1").Return(nil, domain.ErrNotFound).Once()

	w := &memoryWork{}
	w.Track(inv, nil)

	assert.ErrorIs(t, d.DispatchAll(context.Background(), w), domain.ErrNotFound)
	assert.Empty(t, w.staged)
}

func TestHandlers_TeamOwnershipChanged_NotifiesNewOwner(t *testing.T) {
	_, users, _, d := newHandlerFixture(t)

	now := time.Now().UTC()
	team, err := domain.NewTeam("T1", "Backend", "owner-1", now)
	require.NoError(t, err)
	require.NoError(t, team.AddMember("U2", domain.RoleMember, now))
	team.Drain()
	require.NoError(t, team.ChangeOwnership("owner-1", "U2", now))

	newOwner, err := domain.NewUser("U2", "bob@example.com", "Bob", "c", "t", now)
	require.NoError(t, err)
	newOwner.Drain()
	users.On("GetByID", mock.Anything, "U2").Return(newOwner, nil).Once()

	w := &memoryWork{}
	w.Track(team, nil)

	require.NoError(t, d.DispatchAll(context.Background(), w))
	require.Equal(t, []string{integration.TypeEmailCreated}, w.stagedTypes())
	assert.Contains(t, string(w.staged[0].Data), "bob@example.com")
}

func TestHandlers_ResponseCreated_NotifiesTeamOwner(t *testing.T) {
	teams, users, _, d := newHandlerFixture(t)

	now := time.Now().UTC()
	team, err := domain.NewTeam("T1", "Backend", "owner-1", now)
	require.NoError(t, err)
	e, err := domain.NewEvent("E1", "T1", "Standup", "", now.Add(time.Hour), now.Add(2*time.Hour), now)
	require.NoError(t, err)
	_, err = e.Respond("U2", domain.ReplyYes, "", now)
	require.NoError(t, err)

	owner, _ := domain.NewUser("U1", "owner@example.com", "Owner One", "c", "t1", now)
	owner.Drain()
	responder, _ := domain.NewUser("U2", "bob@example.com", "Bob", "c", "t2", now)
	responder.Drain()

	teams.On("GetByID", mock.Anything, "T1").Return(team, nil).Once()
	users.On("GetByID", mock.Anything, "owner-1").Return(owner, nil).Once()
	users.On("GetByID", mock.Anything, "U2").Return(responder, nil).Once()

	w := &memoryWork{}
	w.Track(e, nil)

	require.NoError(t, d.DispatchAll(context.Background(), w))
	require.Equal(t, []string{integration.TypeEmailCreated}, w.stagedTypes())
	assert.Contains(t, string(w.staged[0].Data), "owner@example.com")
}
