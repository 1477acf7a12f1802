package shop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/identity/config"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/pkg/model"
)

type accountFixture struct {
	svc    *Accounts
	users  *MockUserStore
	images *MockImageHost
	mail   *fakeSender
	now    time.Time
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	cfg := config.DefaultConfig().AuthN
	cfg.JWTSecret = "unit-test-secret-0123456789"
	cfg.AdminEmail = "boss@example.com"

	f := &accountFixture{
		users:  new(MockUserStore),
		images: new(MockImageHost),
		mail:   &fakeSender{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	auth, err := authn.NewAuthService(cfg, f.users)
	require.NoError(t, err)

	shopCfg := DefaultConfig()
	shopCfg.FrontendURL = "https://shop.example.com/"
	f.svc = NewAccounts(f.users, auth, f.images, f.mail, shopCfg)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func userWithPassword(t *testing.T, password string) *types.User {
	t.Helper()
	hash, algo, err := authn.HashPassword(password)
	require.NoError(t, err)
	return &types.User{
		ID:           primitive.NewObjectID(),
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		PasswordAlgo: algo,
		Avatar:       types.Image{PublicID: "avatars/old.png"},
		Role:         types.RoleUser,
	}
}

func TestAccounts_Register(t *testing.T) {
	f := newAccountFixture(t)
	avatar := types.Image{PublicID: "avatars/a.png", URL: "http://img/a.png"}
	f.images.On("Upload", mock.Anything, imagehost.FolderAvatars, "data:avatar").Return(avatar, nil)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
		return u.Email == "boss@example.com" && u.Role == types.RoleAdmin && u.Avatar == avatar &&
			u.PasswordAlgo == authn.AlgoArgon2id && u.PasswordHash != "password123"
	})).Return(nil)

	u, sess, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Boss", Email: "boss@example.com", Password: "password123", Avatar: "data:avatar",
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, u.Role)
	assert.NotEmpty(t, sess.Token)
}

func TestAccounts_Register_Errors(t *testing.T) {
	f := newAccountFixture(t)

	_, _, err := f.svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "password123"})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, "Please upload avatar", model.Message(err))

	_, _, err = f.svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "short", Avatar: "x"})
	assert.ErrorIs(t, err, model.ErrValidation)
	f.images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccounts_Register_DuplicateRemovesAvatar(t *testing.T) {
	f := newAccountFixture(t)
	f.images.On("Upload", mock.Anything, imagehost.FolderAvatars, mock.Anything).Return(types.Image{PublicID: "avatars/a.png"}, nil)
	f.images.On("Destroy", mock.Anything, "avatars/a.png").Return(nil)
	f.users.On("Create", mock.Anything, mock.Anything).Return(model.Errorf(model.ErrExists, "duplicate email entered"))

	_, _, err := f.svc.Register(context.Background(), RegisterInput{Name: "Al", Email: "a@b.c", Password: "password123", Avatar: "x"})
	assert.ErrorIs(t, err, model.ErrExists)
	f.images.AssertExpectations(t)
}

func TestAccounts_Login(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	f.users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, model.Errorf(model.ErrNotFound, "user not found"))

	_, sess, err := f.svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, sess, err = f.svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Nil(t, sess)

	_, _, err = f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, _, err = f.svc.Login(context.Background(), LoginInput{})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAccounts_ForgotPassword(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")

	var digest string
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	f.users.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { digest = args.String(2) }).Return(nil)

	_, err := f.svc.ForgotPassword(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, f.mail.sent, 1)

	msg := f.mail.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, RecoverySubject, msg.Subject)

	const prefix = "https://shop.example.com/password/reset/"
	idx := strings.Index(msg.Text, prefix)
	require.GreaterOrEqual(t, idx, 0)
	token := strings.Fields(msg.Text[idx+len(prefix):])[0]
	assert.Len(t, token, 40)
	assert.Equal(t, authn.DigestResetToken(token), digest)
	assert.NotEqual(t, token, digest)
}

func TestAccounts_ForgotPassword_MailFailureClearsToken(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	f.mail.err = errors.New("smtp down")

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	f.users.On("SetResetToken", mock.Anything, user.ID, mock.MatchedBy(func(d string) bool { return d != "" }), mock.Anything).Return(nil).Once()
	f.users.On("SetResetToken", mock.Anything, user.ID, "", time.Time{}).Return(nil).Once()

	_, err := f.svc.ForgotPassword(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, model.ErrUpstream)
	f.users.AssertExpectations(t)
}

func TestAccounts_ResetPassword(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	token := "abc123"

	digest := authn.DigestResetToken(token)

	f.users.On("GetByResetToken", mock.Anything, digest, f.now).Return(user, nil)
	var stored string
	f.users.On("ConsumeResetToken", mock.Anything, digest, f.now, mock.Anything, authn.AlgoArgon2id).
		Run(func(args mock.Arguments) {
			stored = args.String(3)
			user.PasswordHash, user.PasswordAlgo = stored, args.String(4)
		}).
		Return(user, nil).Once()

	u, sess, err := f.svc.ResetPassword(context.Background(), token, ResetInput{Password: "newpassword1", ConfirmPassword: "newpassword1"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, stored, u.PasswordHash)
	ok, err := authn.VerifyPassword("newpassword1", u.PasswordHash, u.PasswordAlgo)
	require.NoError(t, err)
	assert.True(t, ok)
	f.users.AssertNotCalled(t, "SetPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccounts_ResetPassword_TokenSpentConcurrently(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	digest := authn.DigestResetToken("abc123")

	// the lookup still sees the token but another reset consumes it first
	f.users.On("GetByResetToken", mock.Anything, digest, f.now).Return(user, nil)
	f.users.On("ConsumeResetToken", mock.Anything, digest, f.now, mock.Anything, mock.Anything).
		Return(nil, model.Errorf(model.ErrNotFound, "user not found")).Once()

	u, sess, err := f.svc.ResetPassword(context.Background(), "abc123", ResetInput{Password: "newpassword1", ConfirmPassword: "newpassword1"})
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	assert.Nil(t, u)
	assert.Nil(t, sess)
	f.users.AssertExpectations(t)
}

func TestAccounts_ResetPassword_Errors(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")

	// the store only returns users whose expiry is after now
	f.users.On("GetByResetToken", mock.Anything, authn.DigestResetToken("expired"), f.now).
		Return(nil, model.Errorf(model.ErrNotFound, "user not found"))
	f.users.On("GetByResetToken", mock.Anything, authn.DigestResetToken("valid"), f.now).Return(user, nil)

	_, _, err := f.svc.ResetPassword(context.Background(), "expired", ResetInput{Password: "newpassword1", ConfirmPassword: "newpassword1"})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "reset password token is invalid or has been expired", model.Message(err))

	_, _, err = f.svc.ResetPassword(context.Background(), "valid", ResetInput{Password: "newpassword1", ConfirmPassword: "other"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, _, err = f.svc.ResetPassword(context.Background(), "valid", ResetInput{Password: "short", ConfirmPassword: "short"})
	assert.ErrorIs(t, err, model.ErrValidation)
	f.users.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccounts_UpdatePassword(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	f.users.On("SetPassword", mock.Anything, user.ID, mock.Anything, authn.AlgoArgon2id).Return(nil)

	_, err := f.svc.UpdatePassword(context.Background(), user, PasswordInput{OldPassword: "wrong", NewPassword: "newpassword1", ConfirmPassword: "newpassword1"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = f.svc.UpdatePassword(context.Background(), user, PasswordInput{OldPassword: "password123", NewPassword: "newpassword1", ConfirmPassword: "x"})
	assert.ErrorIs(t, err, model.ErrValidation)

	sess, err := f.svc.UpdatePassword(context.Background(), user, PasswordInput{OldPassword: "password123", NewPassword: "newpassword1", ConfirmPassword: "newpassword1"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
}

func TestAccounts_UpdateProfile(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	fresh := types.Image{PublicID: "avatars/new.png"}
	name := "Alicia"

	f.images.On("Upload", mock.Anything, imagehost.FolderAvatars, "data:new").Return(fresh, nil)
	f.users.On("Update", mock.Anything, user.ID.Hex(), types.UserUpdate{Name: &name, Avatar: &fresh}).Return(&types.User{Name: name}, nil)
	f.images.On("Destroy", mock.Anything, "avatars/old.png").Return(nil)

	u, err := f.svc.UpdateProfile(context.Background(), user, ProfileInput{Name: &name, Avatar: "data:new"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.Name)
	f.images.AssertExpectations(t)

	_, err = f.svc.UpdateProfile(context.Background(), user, ProfileInput{Avatar: "undefined"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAccounts_Admin(t *testing.T) {
	f := newAccountFixture(t)
	user := userWithPassword(t, "password123")
	id := user.ID.Hex()
	missing := primitive.NewObjectID().Hex()
	role := types.RoleAdmin

	f.users.On("Get", mock.Anything, id).Return(user, nil)
	f.users.On("Get", mock.Anything, missing).Return(nil, model.Errorf(model.ErrNotFound, "user not found"))
	f.users.On("Update", mock.Anything, id, types.UserUpdate{Role: &role}).Return(&types.User{Role: role}, nil)
	f.images.On("Destroy", mock.Anything, "avatars/old.png").Return(nil)
	f.users.On("Delete", mock.Anything, id).Return(nil)

	_, err := f.svc.Get(context.Background(), missing)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "user doesnot exist with id: "+missing, model.Message(err))

	u, err := f.svc.UpdateRole(context.Background(), id, RoleInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, u.Role)

	require.NoError(t, f.svc.Delete(context.Background(), id))
	f.images.AssertCalled(t, "Destroy", mock.Anything, "avatars/old.png")
	f.users.AssertCalled(t, "Delete", mock.Anything, id)

	err = f.svc.Delete(context.Background(), missing)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
