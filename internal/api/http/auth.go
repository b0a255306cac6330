package http

import (
	"errors"
	"net/http"

	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/pkg/httpx"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

// AuthHandler serves the public account endpoints: registration, email
// verification, login and the password flows.
type AuthHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleRegister serves POST /api/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	user, err := h.AuthService.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			ErrMissingRegisterFields.WriteError(w)
			return
		}
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("registration failed", "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful! Please check your email to verify your account.",
		"user": map[string]string{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// HandleVerify serves GET /api/verify/{token}.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	secret := r.PathValue("token")
	if secret == "" {
		ErrVerificationMalformed.WriteError(w)
		return
	}

	if err := h.AuthService.Verify(ctx, secret); err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("verification failed", "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully! You can now login.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin serves POST /api/login. An unverified account is rejected
// with a machine-readable verified flag so clients can offer a resend.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	pair, user, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserUnverified) {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
				"message":  "Please verify your email before logging in",
				"verified": false,
			})
			return
		}
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("login failed", "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": loginUserView{
			ID:     user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
			Avatar: user.AvatarURL,
		},
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword serves POST /api/forgot-password. The generated
// password travels only over the mail channel, never the HTTP response.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	if err := h.AuthService.ForgotPassword(ctx, req.Email); err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("password reset failed", "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "A new password has been sent to your email",
	})
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword serves POST /api/change-password.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	if err := h.AuthService.ChangePassword(ctx, req.Email, req.OldPassword, req.NewPassword); err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("password change failed", "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

// HandleResendVerification serves POST /api/resend-verification.
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	if err := h.AuthService.ResendVerification(ctx, req.Email); err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("resend verification failed", "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Verification email has been resent",
	})
}
