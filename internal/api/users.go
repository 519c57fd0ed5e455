package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lavishdadwani/Stock-Management/internal/auth"
	"github.com/lavishdadwani/Stock-Management/internal/imaging"
	"github.com/lavishdadwani/Stock-Management/internal/mail"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/store"
	"github.com/lavishdadwani/Stock-Management/internal/throttle"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour

	scopeLogin  = "login"
	scopeForgot = "forgot"
	scopeResend = "resend"
)

// UsersHandler handles account endpoints.
type UsersHandler struct {
	DB          *sql.DB
	JWTSecret   string
	TokenExpiry time.Duration
	Limiter     *throttle.Limiter
	Notifier    *mail.Notifier
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (r *emailRequest) validate() error {
	r.Email = model.NormalizeEmail(r.Email)
	if err := model.ValidateEmail(r.Email); err != nil {
		return &model.ValidationError{Fields: map[string]string{"email": err.Error()}}
	}
	return nil
}

// startSession issues a token for a fresh session, replacing any older one.
func (h *UsersHandler) startSession(r *http.Request, user *model.User) (string, error) {
	sid := auth.NewSessionID()
	if err := store.StartSession(r.Context(), h.DB, user.ID, sid); err != nil {
		return "", err
	}
	return auth.GenerateToken(h.JWTSecret, user.ID, user.Role, sid, h.TokenExpiry)
}

// throttled writes 429 when scope/id has too many recent attempts.
func (h *UsersHandler) throttled(w http.ResponseWriter, r *http.Request, scope, id string) bool {
	ok, wait := h.Limiter.Allow(r.Context(), scope, id)
	if ok {
		return false
	}
	minutes := int(math.Ceil(wait.Minutes()))
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	slog.Warn("attempt throttled", "scope", scope, "email", id, "remote", r.RemoteAddr)
	jsonError(w, http.StatusTooManyRequests, "too many attempts",
		"Too many attempts. Try again in "+strconv.Itoa(minutes)+" minute(s).", nil)
	return true
}

func (h *UsersHandler) sendVerification(r *http.Request, user *model.User) error {
	token, err := auth.GenerateOneTimeToken()
	if err != nil {
		return err
	}
	if err := store.SetVerificationToken(r.Context(), h.DB, user.ID, token, time.Now().Add(verificationTTL)); err != nil {
		return err
	}
	if h.Notifier == nil {
		return nil
	}
	return h.Notifier.SendVerification(r.Context(), user.Email, user.Name, token)
}

func (h *UsersHandler) sendWelcome(r *http.Request, user *model.User) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.SendWelcome(r.Context(), user.Email, user.Name); err != nil {
		slog.Error("failed to send welcome email", "user_id", user.ID, "error", err)
	}
}

// Register handles POST /api/user/register.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, in, hash)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	// Registration succeeds even if the mail does not go out; the user can resend.
	if err := h.sendVerification(r, user); err != nil {
		slog.Error("failed to send verification email", "user_id", user.ID, "error", err)
	}

	token, err := h.startSession(r, user)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email, "role", user.Role)
	success(w, http.StatusCreated, "User registered successfully. Please verify your email.",
		sessionResponse{User: user, Token: token}, "Registration successful")
}

// Login handles POST /api/user/login.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	if err := in.Validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}

	if h.throttled(w, r, scopeLogin, in.Email) {
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, in.Email)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, in.Password) {
		h.Limiter.Fail(r.Context(), scopeLogin, in.Email)
		slog.Warn("login failed", "email", in.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid email or password", "Invalid email or password.", nil)
		return
	}
	if !user.IsActive {
		jsonError(w, http.StatusForbidden, "account is deactivated", "Account is deactivated. Please contact an administrator.", nil)
		return
	}
	h.Limiter.Reset(r.Context(), scopeLogin, in.Email)

	token, err := h.startSession(r, user)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if user, err = store.GetUser(r.Context(), h.DB, user.ID); err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	success(w, http.StatusOK, "Login successful", sessionResponse{User: user, Token: token}, "Welcome back!")
}

// VerifyEmailToken handles GET /api/user/verify-email/{token}.
func (h *UsersHandler) VerifyEmailToken(w http.ResponseWriter, r *http.Request) {
	user, err := store.VerifyEmailToken(r.Context(), h.DB, chi.URLParam(r, "token"))
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	h.sendWelcome(r, user)
	slog.Info("email verified", "user_id", user.ID)
	success(w, http.StatusOK, "Email verified successfully", nil, "Email verified")
}

// VerifyEmail handles POST /api/user/verify-email for the logged-in user.
func (h *UsersHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user.IsEmailVerified {
		jsonError(w, http.StatusBadRequest, "email already verified", "Email already verified.", nil)
		return
	}

	if err := store.MarkEmailVerified(r.Context(), h.DB, user.ID); err != nil {
		writeAccountError(w, r, err)
		return
	}

	h.sendWelcome(r, user)
	slog.Info("email verified", "user_id", user.ID)
	success(w, http.StatusOK, "Email verified successfully", nil, "Email verified")
}

// ResendVerification handles POST /api/user/resend-verification.
func (h *UsersHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	if err := req.validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}
	if h.throttled(w, r, scopeResend, req.Email) {
		return
	}
	h.Limiter.Fail(r.Context(), scopeResend, req.Email)

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found", "No account uses this email.", nil)
		return
	}
	if user.IsEmailVerified {
		jsonError(w, http.StatusBadRequest, "email already verified", "Email already verified.", nil)
		return
	}

	if err := h.sendVerification(r, user); err != nil {
		slog.Error("failed to send verification email", "user_id", user.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to send verification email", "Could not send the email. Please try again later.", nil)
		return
	}
	success(w, http.StatusOK, "Verification email sent successfully", nil, "Email sent")
}

// ForgotPassword handles POST /api/user/forgot-password. The response does not
// reveal whether the account exists.
func (h *UsersHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	const done = "If an account exists with this email, a password reset link has been sent."

	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	if err := req.validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}
	if h.throttled(w, r, scopeForgot, req.Email) {
		return
	}
	h.Limiter.Fail(r.Context(), scopeForgot, req.Email)

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if user == nil || !user.IsActive {
		success(w, http.StatusOK, done, nil, "Check your email")
		return
	}

	token, err := auth.GenerateOneTimeToken()
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if err := store.SetResetToken(r.Context(), h.DB, user.ID, token, time.Now().Add(resetTTL)); err != nil {
		writeAccountError(w, r, err)
		return
	}
	if h.Notifier != nil {
		if err := h.Notifier.SendPasswordReset(r.Context(), user.Email, user.Name, token); err != nil {
			slog.Error("failed to send reset email", "user_id", user.ID, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to send password reset email", "Could not send the email. Please try again later.", nil)
			return
		}
	}

	slog.Info("password reset requested", "user_id", user.ID)
	success(w, http.StatusOK, done, nil, "Check your email")
}

// ResetPassword handles POST /api/user/reset-password/{token}.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in model.PasswordReset
	if err := decodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	if err := in.Validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	user, err := store.ResetPassword(r.Context(), h.DB, chi.URLParam(r, "token"), hash)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("password reset", "user_id", user.ID)
	success(w, http.StatusOK, "Password reset successfully. Please log in with your new password.", nil, "Password updated")
}

// ChangePassword handles PATCH /api/user/change-password.
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var in model.PasswordChange
	if err := decodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	if err := in.Validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, in.CurrentPassword) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect", "Current password is incorrect.", nil)
		return
	}
	if in.CurrentPassword == in.NewPassword {
		jsonError(w, http.StatusBadRequest, "new password must differ from the current one", "New password must be different from the current password.", nil)
		return
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("user changed own password", "user_id", user.ID)
	success(w, http.StatusOK, "Password changed successfully", nil, "Password updated")
}

// UpdateProfile handles PATCH /api/user/profile.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var p model.ProfilePatch
	if err := decodeJSON(r, &p); err != nil {
		badBody(w)
		return
	}
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
	}
	if p.Number != nil {
		*p.Number = strings.TrimSpace(*p.Number)
	}
	if err := p.Validate(); err != nil {
		writeAccountError(w, r, err)
		return
	}

	updated, err := store.UpdateProfile(r.Context(), h.DB, user.ID, p)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("profile updated", "user_id", user.ID)
	success(w, http.StatusOK, "Profile updated successfully", updated, "Profile updated")
}

// Me handles GET /api/user/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	success(w, http.StatusOK, "User retrieved successfully", CurrentUser(r.Context()), "")
}

// Logout handles DELETE /api/user/logout.
func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if err := store.EndSession(r.Context(), h.DB, user.ID, GetClaims(r.Context()).SessionID()); err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("user logged out", "user_id", user.ID)
	success(w, http.StatusOK, "Logged out successfully", nil, "Goodbye!")
}

// UploadPhoto handles PUT /api/user/photo. The photo is either the raw body or
// the "photo" field of a multipart form.
func (h *UsersHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)

	body := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("photo")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "photo field is required", "Please choose a photo.", nil)
			return
		}
		defer file.Close()
		body = file
	}

	photo, err := imaging.Avatar(body)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error(), err.Error(), nil)
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image", "The photo could not be read.", nil)
		return
	}

	if err := store.SetUserPhoto(r.Context(), h.DB, user.ID, photo.Data, photo.MIME); err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("profile photo updated", "user_id", user.ID, "bytes", len(photo.Data))
	success(w, http.StatusOK, "Photo updated successfully", nil, "Photo updated")
}

// GetPhoto handles GET /api/user/{id}/photo.
func (h *UsersHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id", "Invalid user id.", nil)
		return
	}

	data, mime, err := store.GetUserPhoto(r.Context(), h.DB, id)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "photo not found", "This user has no photo.", nil)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

// List handles GET /api/user/list.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role != "" && !model.ValidRole(role) {
		writeAccountError(w, r, &model.ValidationError{Fields: map[string]string{"role": "role must be one of: manager, owner, core team"}})
		return
	}

	users, err := store.ListUsers(r.Context(), h.DB, role)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	success(w, http.StatusOK, "Users retrieved successfully", users, "")
}
