package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/internal/mailer"
	"github.com/emporia/emporia/pkg/model"
)

var (
	ErrAvatarRequired     = model.Errorf(model.ErrValidation, "Please upload avatar")
	ErrAvatarInvalid      = model.Errorf(model.ErrValidation, "Please upload a new avatar")
	ErrCredentialsMissing = model.Errorf(model.ErrValidation, "Please enter email and password")
	ErrResetTokenInvalid  = model.Errorf(model.ErrNotFound, "reset password token is invalid or has been expired")
	ErrResetMismatch      = model.Errorf(model.ErrValidation, "Password doesnot match")
	ErrOldPassword        = model.Errorf(model.ErrUnauthenticated, "old password is incorrect")
	ErrPasswordMismatch   = model.Errorf(model.ErrValidation, "password doesnot match")
)

// RecoverySubject is the subject of password recovery emails.
const RecoverySubject = "Ecommerce Password recovery"

type RegisterInput struct {
	Name     string `json:"name" schema:"name" validate:"required,min=2,max=30"`
	Email    string `json:"email" schema:"email" validate:"required,email"`
	Password string `json:"password" schema:"password" validate:"required,min=8"`
	Avatar   string `json:"avatar" schema:"avatar"`
}

type LoginInput struct {
	Email    string `json:"email" schema:"email" validate:"required,email"`
	Password string `json:"password" schema:"password" validate:"required"`
}

type ResetInput struct {
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type PasswordInput struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ProfileInput changes the caller's profile. An empty Avatar keeps the current one.
type ProfileInput struct {
	Name   *string `json:"name" schema:"name" validate:"omitempty,min=2,max=30"`
	Email  *string `json:"email" schema:"email" validate:"omitempty,email"`
	Avatar string  `json:"avatar" schema:"avatar"`
}

// RoleInput is an admin change to another account.
type RoleInput struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=30"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=user admin"`
}

type Accounts struct {
	users       types.UserStore
	auth        authn.Service
	images      ImageHost
	mail        mailer.Sender
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

func NewAccounts(users types.UserStore, auth authn.Service, images ImageHost, mail mailer.Sender, cfg Config) *Accounts {
	return &Accounts{
		users:       users,
		auth:        auth,
		images:      images,
		mail:        mail,
		frontendURL: strings.TrimSuffix(cfg.FrontendURL, "/"),
		logger:      slog.Default().With("component", "accounts"),
		now:         time.Now,
	}
}

// Register creates an account with an uploaded avatar and logs it in.
func (s *Accounts) Register(ctx context.Context, in RegisterInput) (*types.User, *authn.Session, error) {
	if in.Avatar == "" {
		return nil, nil, ErrAvatarRequired
	}
	if err := s.auth.ValidatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	hash, algo, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	avatar, err := s.images.Upload(ctx, imagehost.FolderAvatars, in.Avatar)
	if err != nil {
		return nil, nil, err
	}

	u := &types.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		PasswordAlgo: algo,
		Avatar:       avatar,
		Role:         types.RoleUser,
	}
	if s.auth.IsAdminEmail(in.Email) {
		u.Role = types.RoleAdmin
	}
	if err := s.users.Create(ctx, u); err != nil {
		s.dropImage(ctx, avatar.PublicID)
		return nil, nil, err
	}

	sess, err := s.auth.IssueSession(u)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("User registered", "user_id", u.ID.Hex(), "role", u.Role)
	return u, sess, nil
}

func (s *Accounts) Login(ctx context.Context, in LoginInput) (*types.User, *authn.Session, error) {
	if in.Email == "" || in.Password == "" {
		return nil, nil, ErrCredentialsMissing
	}
	u, err := s.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.auth.IssueSession(u)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// ForgotPassword stores a fresh reset token digest and mails the link. If
// the mail cannot be sent the token is cleared again.
func (s *Accounts) ForgotPassword(ctx context.Context, email string) (*types.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	tok, err := s.auth.NewResetToken()
	if err != nil {
		return nil, err
	}
	if err := s.users.SetResetToken(ctx, u.ID, tok.Digest, tok.ExpiresAt); err != nil {
		return nil, err
	}

	link := s.frontendURL + "/password/reset/" + tok.Token
	msg := mailer.Message{
		To:      u.Email,
		Subject: RecoverySubject,
		Text: fmt.Sprintf("your password reset token is :- \n\n %s \n\n if you have not requested this email then please ignore it",
			link),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		if cerr := s.users.SetResetToken(context.WithoutCancel(ctx), u.ID, "", time.Time{}); cerr != nil {
			s.logger.Error("Failed to clear reset token", "user_id", u.ID.Hex(), "error", cerr)
		}
		var me *model.Error
		if !errors.As(err, &me) {
			err = model.Wrap(model.ErrUpstream, err, "Email sending failed")
		}
		return nil, err
	}
	return u, nil
}

// ResetPassword checks token against the stored digest and expiry, then sets
// the new password and logs the user in. The token is spent by the same write
// that stores the password, so it works at most once.
func (s *Accounts) ResetPassword(ctx context.Context, token string, in ResetInput) (*types.User, *authn.Session, error) {
	digest := authn.DigestResetToken(token)
	if _, err := s.users.GetByResetToken(ctx, digest, s.now()); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, ErrResetTokenInvalid
		}
		return nil, nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, nil, ErrResetMismatch
	}
	if err := s.auth.ValidatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	hash, algo, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.users.ConsumeResetToken(ctx, digest, s.now(), hash, algo)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, ErrResetTokenInvalid
		}
		return nil, nil, err
	}
	sess, err := s.auth.IssueSession(u)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// UpdatePassword changes the caller's password after checking the old one.
func (s *Accounts) UpdatePassword(ctx context.Context, u *types.User, in PasswordInput) (*authn.Session, error) {
	ok, err := s.auth.CheckPassword(u, in.OldPassword)
	if err != nil || !ok {
		return nil, ErrOldPassword
	}
	if in.NewPassword != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := s.setPassword(ctx, u, in.NewPassword); err != nil {
		return nil, err
	}
	return s.auth.IssueSession(u)
}

func (s *Accounts) setPassword(ctx context.Context, u *types.User, password string) error {
	if err := s.auth.ValidatePassword(password); err != nil {
		return err
	}
	hash, algo, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash, algo); err != nil {
		return err
	}
	u.PasswordHash, u.PasswordAlgo = hash, algo
	u.ResetPasswordToken, u.ResetPasswordExpire = "", time.Time{}
	return nil
}

func (s *Accounts) Me(ctx context.Context, u *types.User) (*types.User, error) {
	return s.users.Get(ctx, u.ID.Hex())
}

// UpdateProfile changes name and email, replacing the avatar when a new one is sent.
func (s *Accounts) UpdateProfile(ctx context.Context, u *types.User, in ProfileInput) (*types.User, error) {
	upd := types.UserUpdate{Name: in.Name, Email: in.Email}

	var oldAvatar string
	if in.Avatar != "" {
		if in.Avatar == "undefined" {
			return nil, ErrAvatarInvalid
		}
		avatar, err := s.images.Upload(ctx, imagehost.FolderAvatars, in.Avatar)
		if err != nil {
			return nil, err
		}
		upd.Avatar = &avatar
		oldAvatar = u.Avatar.PublicID
	}

	updated, err := s.users.Update(ctx, u.ID.Hex(), upd)
	if err != nil {
		if upd.Avatar != nil {
			s.dropImage(ctx, upd.Avatar.PublicID)
		}
		return nil, err
	}
	s.dropImage(ctx, oldAvatar)
	return updated, nil
}

func (s *Accounts) List(ctx context.Context) ([]*types.User, error) {
	users, err := s.users.List(ctx)
	return nonNil(users), err
}

func (s *Accounts) Get(ctx context.Context, id string) (*types.User, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.Errorf(model.ErrNotFound, "user doesnot exist with id: %s", id)
	}
	return u, err
}

func (s *Accounts) UpdateRole(ctx context.Context, id string, in RoleInput) (*types.User, error) {
	u, err := s.users.Update(ctx, id, types.UserUpdate{Name: in.Name, Email: in.Email, Role: in.Role})
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.Errorf(model.ErrNotFound, "user doesnot exist with id: %s", id)
	}
	return u, err
}

// Delete destroys the account avatar, then the account.
func (s *Accounts) Delete(ctx context.Context, id string) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Errorf(model.ErrNotFound, "user doesnot exist with id of %s", id)
		}
		return err
	}
	if u.Avatar.PublicID != "" {
		if err := s.images.Destroy(ctx, u.Avatar.PublicID); err != nil {
			return err
		}
	}
	return s.users.Delete(ctx, id)
}

func (s *Accounts) dropImage(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Destroy(context.WithoutCancel(ctx), publicID); err != nil {
		s.logger.Warn("Failed to remove avatar", "public_id", publicID, "error", err)
	}
}
