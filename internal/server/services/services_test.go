package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	clock    *fakeClock
	repo     principals.Repository
	revoked  *revokedtokens.MemoryRepository
	hasher   *auth.PasswordHasher
	codec    *auth.TokenCodec
	sessions *SessionService
	guard    *Guard
}

func newFixture(t *testing.T, repo principals.Repository, withRevocation bool) *fixture {
	t.Helper()

	if repo == nil {
		repo = principals.NewMemoryRepository()
	}

	clock := &fakeClock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	codec, err := auth.NewTokenCodec(auth.TokenConfig{Secret: []byte("services-test-secret")}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	f := &fixture{clock: clock, repo: repo, hasher: hasher, codec: codec}

	var opts []SessionOption
	if withRevocation {
		f.revoked = revokedtokens.NewMemoryRepository()
		opts = append(opts, WithRevocation(f.revoked))
	}
	f.sessions = NewSessionService(repo, hasher, codec, opts...)
	f.guard = NewGuard(repo, codec)
	return f
}

var errDBDown = errors.New("db down")

// brokenPrincipals fails every call.
type brokenPrincipals struct{}

func (brokenPrincipals) Insert(context.Context, *models.Principal) (*models.Principal, error) {
	return nil, errDBDown
}
func (brokenPrincipals) FindByUID(context.Context, string) (*models.Principal, error) {
	return nil, errDBDown
}
func (brokenPrincipals) FindByID(context.Context, int64) (*models.Principal, error) {
	return nil, errDBDown
}
func (brokenPrincipals) Exists(context.Context, string) (bool, error) { return false, errDBDown }

// racyPrincipals reports the uid as free but then loses the insert.
type racyPrincipals struct{ brokenPrincipals }

func (racyPrincipals) Exists(context.Context, string) (bool, error) { return false, nil }
func (racyPrincipals) Insert(context.Context, *models.Principal) (*models.Principal, error) {
	return nil, common.ErrDuplicateIdentifier
}

// promotedPrincipals reports a different role than the one stored at signup.
type promotedPrincipals struct {
	*principals.MemoryRepository
	role models.Role
}

func (p *promotedPrincipals) FindByUID(ctx context.Context, uid string) (*models.Principal, error) {
	found, err := p.MemoryRepository.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	found.Role = p.role
	return found, nil
}

// --- signup ---

func TestSignup_Roles(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	tests := []struct {
		uid  string
		role string
		want models.Role
	}{
		{"u-default", "", models.RoleUser},
		{"u-user", "USER", models.RoleUser},
		{"u-admin", "ADMIN", models.RoleAdmin},
		{"u-lower", "admin", models.RoleUser},
		{"u-mixed", " Admin ", models.RoleUser},
		{"u-unknown", "ROOT", models.RoleUser},
	}
	for _, tt := range tests {
		p, err := f.sessions.Signup(ctx, tt.uid, "pw", tt.role)
		require.NoError(t, err, tt.uid)
		assert.Equal(t, tt.want, p.Role, tt.uid)
		assert.NotZero(t, p.ID)
		assert.NotEqual(t, "pw", p.PasswordHash)
	}
}

func TestSignup_DuplicateKeepsOriginalHash(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "alice", "secret123", "")
	require.NoError(t, err)
	before, err := f.repo.FindByUID(ctx, "alice")
	require.NoError(t, err)

	_, err = f.sessions.Signup(ctx, "alice", "another", "ADMIN")
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)

	after, err := f.repo.FindByUID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, models.RoleUser, after.Role)
}

func TestSignup_InvalidIdentifier(t *testing.T) {
	f := newFixture(t, nil, false)

	for _, uid := range []string{"", "   ", strings.Repeat("a", common.MaxIdentifierLength+1)} {
		_, err := f.sessions.Signup(context.Background(), uid, "pw", "")
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier, "uid %q", uid)
	}

	_, err := f.sessions.Signup(context.Background(), strings.Repeat("a", common.MaxIdentifierLength), "pw", "")
	assert.NoError(t, err)
}

func TestSignup_LengthCountsCharacters(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	// 50 two-byte characters: 100 bytes but within the column width
	uid := strings.Repeat("ж", common.MaxIdentifierLength)
	p, err := f.sessions.Signup(ctx, uid, "pw", "")
	require.NoError(t, err)
	assert.Equal(t, uid, p.UID)

	_, err = f.sessions.Signup(ctx, uid+"ж", "pw", "")
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
}

func TestSignup_PaddedIdentifierLogsInAsGiven(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	p, err := f.sessions.Signup(ctx, " alice ", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, " alice ", p.UID)

	pair, got, err := f.sessions.Login(ctx, " alice ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	resolved, err := f.guard.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, " alice ", resolved.UID)

	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestSignup_StorageRaceIsDuplicate(t *testing.T) {
	f := newFixture(t, racyPrincipals{}, false)

	_, err := f.sessions.Signup(context.Background(), "bob", "pw", "")
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)
}

func TestSignup_StorageFailure(t *testing.T) {
	f := newFixture(t, brokenPrincipals{}, false)

	_, err := f.sessions.Signup(context.Background(), "bob", "pw", "")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

// --- login ---

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "carol", "pw-carol", "ADMIN")
	require.NoError(t, err)

	pair, p, err := f.sessions.Login(ctx, "carol", "pw-carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", p.UID)

	ac, err := f.codec.DecodeAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "carol", ac.Subject)
	assert.Equal(t, models.RoleAdmin, ac.Role)

	rc, err := f.codec.DecodeRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "carol", rc.Subject)
	assert.True(t, rc.ExpiresAt.After(ac.ExpiresAt.Time))
}

func TestLogin_UnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "dave", "right", "")
	require.NoError(t, err)

	_, _, errUnknown := f.sessions.Login(ctx, "nobody", "right")
	_, _, errWrong := f.sessions.Login(ctx, "dave", "wrong")

	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrong)
}

func TestLogin_LongPasswordTruncated(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	base := strings.Repeat("p", auth.MaxPasswordBytes)
	_, err := f.sessions.Signup(ctx, "erin", base+"-suffix-one", "")
	require.NoError(t, err)

	_, _, err = f.sessions.Login(ctx, "erin", base+"-suffix-two")
	assert.NoError(t, err)
}

func TestLogin_StorageFailure(t *testing.T) {
	f := newFixture(t, brokenPrincipals{}, false)

	_, _, err := f.sessions.Login(context.Background(), "x", "y")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

// --- refresh ---

func TestRefresh_SameSecondRotation(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "frank", "pw", "ADMIN")
	require.NoError(t, err)
	first, _, err := f.sessions.Login(ctx, "frank", "pw")
	require.NoError(t, err)

	// clock not advanced: same second as login
	second, p, err := f.sessions.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "frank", p.UID)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	a1, err := f.codec.DecodeAccess(first.AccessToken)
	require.NoError(t, err)
	a2, err := f.codec.DecodeAccess(second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a1.Subject, a2.Subject)
	assert.Equal(t, a1.Role, a2.Role)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "gina", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "gina", "pw")
	require.NoError(t, err)

	_, _, err = f.sessions.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, _, err = f.sessions.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "hank", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "hank", "pw")
	require.NoError(t, err)

	f.clock.Advance(auth.DefaultRefreshTTL + time.Second)

	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefresh_PrincipalGone(t *testing.T) {
	f := newFixture(t, nil, false)

	tok, err := f.codec.CreateRefresh("ghost", models.RoleUser)
	require.NoError(t, err)

	_, _, err = f.sessions.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrPrincipalNotFound)
}

func TestRefresh_ReadsCurrentRole(t *testing.T) {
	repo := &promotedPrincipals{MemoryRepository: principals.NewMemoryRepository(), role: models.RoleUser}
	f := newFixture(t, repo, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "ivy", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "ivy", "pw")
	require.NoError(t, err)

	repo.role = models.RoleAdmin

	next, _, err := f.sessions.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := f.codec.DecodeAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestRefresh_StatelessAllowsReuse(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "jack", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "jack", "pw")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Logout(ctx, pair.RefreshToken))
	assert.False(t, f.sessions.RevocationEnabled())

	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err, "logout is stateless without a deny-list")
	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

// --- deny-list ---

func TestRevocation_RotationRejectsReplay(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "kate", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "kate", "pw")
	require.NoError(t, err)

	next, _, err := f.sessions.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, _, err = f.sessions.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRevocation_LogoutRevokes(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "liam", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "liam", "pw")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Logout(ctx, pair.RefreshToken))
	assert.True(t, f.sessions.RevocationEnabled())

	claims, err := f.codec.DecodeRefresh(pair.RefreshToken)
	require.NoError(t, err)
	revoked, err := f.revoked.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// access token keeps working until it expires
	_, err = f.guard.ResolvePrincipal(ctx, pair.AccessToken)
	assert.NoError(t, err)
}

func TestRevocation_LogoutIgnoresBadTokens(t *testing.T) {
	f := newFixture(t, nil, true)

	assert.NoError(t, f.sessions.Logout(context.Background(), ""))
	assert.NoError(t, f.sessions.Logout(context.Background(), "not-a-token"))
}

// --- guard ---

func TestGuard_ResolvePrincipal(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "mia", "pw", "")
	require.NoError(t, err)
	pair, _, err := f.sessions.Login(ctx, "mia", "pw")
	require.NoError(t, err)

	p, err := f.guard.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "mia", p.UID)

	_, err = f.guard.ResolvePrincipal(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	ghost, err := f.codec.CreateAccess("ghost", models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.guard.ResolvePrincipal(ctx, ghost)
	assert.ErrorIs(t, err, common.ErrPrincipalNotFound)

	f.clock.Advance(auth.DefaultAccessTTL + time.Second)
	_, err = f.guard.ResolvePrincipal(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGuard_ResolvePrincipal_StorageFailure(t *testing.T) {
	f := newFixture(t, brokenPrincipals{}, false)

	tok, err := f.codec.CreateAccess("x", models.RoleUser)
	require.NoError(t, err)

	_, err = f.guard.ResolvePrincipal(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestGuard_RequireRole(t *testing.T) {
	g := &Guard{}

	user := &models.Principal{UID: "u", Role: models.RoleUser}
	admin := &models.Principal{UID: "a", Role: models.RoleAdmin}

	assert.ErrorIs(t, g.RequireRole(user, models.RoleAdmin), common.ErrForbidden)
	assert.NoError(t, g.RequireRole(admin, models.RoleAdmin))
	assert.NoError(t, g.RequireRole(user, models.RoleUser))
	assert.ErrorIs(t, g.RequireRole(nil, models.RoleUser), common.ErrForbidden)
}

// --- scenarios ---

func TestScenario_SignupLoginResolveForbidden(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	_, err := f.sessions.Signup(ctx, "alice", "secret123", "")
	require.NoError(t, err)

	pair, _, err := f.sessions.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	p, err := f.guard.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UID)
	assert.Equal(t, models.RoleUser, p.Role)

	assert.ErrorIs(t, f.guard.RequireRole(p, models.RoleAdmin), common.ErrForbidden)
}

// --- profile ---

func TestProfile_Progress(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()

	p, err := f.repo.Insert(ctx, &models.Principal{UID: "nora", PasswordHash: "h", Role: models.RoleUser, StarCount: 5})
	require.NoError(t, err)

	profiles := NewProfileService(f.repo)

	stars, err := profiles.Progress(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stars)

	_, err = profiles.Progress(ctx, 12345)
	assert.ErrorIs(t, err, common.ErrPrincipalNotFound)

	_, err = NewProfileService(brokenPrincipals{}).Progress(ctx, 1)
	assert.ErrorIs(t, err, common.ErrorInternal)
}
