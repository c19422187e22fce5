package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
)

type fakeUserRepo struct {
	users  map[string]*User
	logins int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *fakeUserRepo) Create(ctx context.Context, u *User) error {
	r.users[u.Email] = u
	return nil
}

func (r *fakeUserRepo) RecordLogin(ctx context.Context, u *User) error {
	r.logins++
	return nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewService(repo, "test-secret", time.Hour), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "maker@example.com", "hunter2!", "Sam Maker", "")
	require.NoError(t, err)
	assert.Equal(t, TierBasic, user.Tier, "tier defaults to basic")
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "hunter2!", user.PasswordHash, "password is stored hashed")

	pair, err := svc.Login(ctx, Credentials{Email: "maker@example.com", Password: "hunter2!"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, 1, repo.logins)

	uc, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Equal(t, "maker@example.com", uc.Email)
	assert.Equal(t, TierBasic, uc.Tier)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maker@example.com", "hunter2!", "Sam Maker", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "maker@example.com", "other", "Sam Again", "")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "maker@example.com", "hunter2!", "Sam Maker", TierProfessional)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, Credentials{Email: "maker@example.com", Password: "wrong"})
		require.Error(t, err)
	})

	t.Run("unknown email matches wrong password", func(t *testing.T) {
		_, wrongPass := svc.Login(ctx, Credentials{Email: "maker@example.com", Password: "wrong"})
		_, unknown := svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "wrong"})
		assert.Equal(t, wrongPass.Error(), unknown.Error(),
			"login failures must not reveal whether the email exists")
	})

	t.Run("disabled account", func(t *testing.T) {
		user.IsActive = false
		_, err := svc.Login(ctx, Credentials{Email: "maker@example.com", Password: "hunter2!"})
		require.Error(t, err)
		user.IsActive = true
	})
}

func TestVerify_RejectsTampered(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maker@example.com", "hunter2!", "Sam Maker", "")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, Credentials{Email: "maker@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(newFakeUserRepo(), "other-secret", time.Hour)
		_, err := other.Verify(pair.AccessToken)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		shortSvc := NewService(newFakeUserRepo(), "test-secret", -time.Minute)
		_, err := shortSvc.Register(ctx, "fast@example.com", "pw123456", "", "")
		require.NoError(t, err)
		expired, err := shortSvc.Login(ctx, Credentials{Email: "fast@example.com", Password: "pw123456"})
		require.NoError(t, err)
		_, err = shortSvc.Verify(expired.AccessToken)
		assert.Error(t, err)
	})
}
