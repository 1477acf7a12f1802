package rest

import (
	"fmt"
	"net/http"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/shop"
)

type forgotPasswordRequest struct {
	Email string `json:"email" schema:"email" validate:"required,email"`
}

// sendSession sets the session cookie and returns the user with the token.
func (h *Handler) sendSession(w http.ResponseWriter, status int, u *types.User, sess *authn.Session) {
	http.SetCookie(w, h.auth.SessionCookie(sess))
	writeJSON(w, status, ok(envelope{"user": u, "token": sess.Token}))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in shop.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	if in.Avatar == "" {
		files, err := formImages(r, "avatar")
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if len(files) > 0 {
			in.Avatar = files[0]
		}
	}
	if err := validateStruct(&in); err != nil {
		writeErr(w, r, err)
		return
	}

	u, sess, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.sendSession(w, http.StatusCreated, u, sess)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in shop.LoginInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	u, sess, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.sendSession(w, http.StatusOK, u, sess)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.auth.ExpiredCookie())
	writeJSON(w, http.StatusOK, ok(envelope{"message": "user logged out"}))
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[forgotPasswordRequest](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	u, err := h.accounts.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{
		"message": fmt.Sprintf("Email sent to %s successfully", u.Email),
	}))
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAndValidate[shop.ResetInput](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	u, sess, err := h.accounts.ResetPassword(r.Context(), r.PathValue("token"), *in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.sendSession(w, http.StatusOK, u, sess)
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAndValidate[shop.PasswordInput](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	u := currentUser(r)
	sess, err := h.accounts.UpdatePassword(r.Context(), u, *in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.sendSession(w, http.StatusOK, u, sess)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Me(r.Context(), currentUser(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"user": u}))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in shop.ProfileInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	if in.Avatar == "" {
		files, err := formImages(r, "avatar")
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if len(files) > 0 {
			in.Avatar = files[0]
		}
	}
	if err := validateStruct(&in); err != nil {
		writeErr(w, r, err)
		return
	}

	u, err := h.accounts.UpdateProfile(r.Context(), currentUser(r), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"user": u}))
}

func (h *Handler) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"users": users}))
}

func (h *Handler) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"user": u}))
}

func (h *Handler) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAndValidate[shop.RoleInput](r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	u, err := h.accounts.UpdateRole(r.Context(), r.PathValue("id"), *in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"user": u}))
}

func (h *Handler) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"message": "User Deleted Successfully"}))
}
