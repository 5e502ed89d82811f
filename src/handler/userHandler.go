package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"halalinvest/src/auth"
	"halalinvest/src/ledger"
	"halalinvest/src/model"
	"halalinvest/src/repository"
	"halalinvest/src/security"
	"halalinvest/src/utils"
)

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByReferralCode(ctx context.Context, code string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID uint, hash string) error
}

type ledgerOpener interface {
	Open(ctx context.Context, accountID uint) (*ledger.Ledger, error)
}

type authResponse struct {
	Message   string             `json:"message"`
	User      model.UserResponse `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// RegisterHandler creates a user, opens its account with the welcome
// balance and returns a session token.
func RegisterHandler(users userStore, ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.RegisterPayload
		if err := decodeJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid register payload")
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}

		payload.FullName = strings.TrimSpace(payload.FullName)
		payload.Email = strings.TrimSpace(payload.Email)
		payload.UserName = strings.TrimSpace(payload.UserName)
		if payload.FullName == "" || payload.Email == "" || payload.UserName == "" || payload.Password == "" {
			writeError(w, http.StatusBadRequest, "All fields are required", "")
			return
		}

		if err := security.ValidatePassword(payload.Password); err != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Password must be at least %d characters", security.GetConfig().MinPasswordLength), "")
			return
		}

		var referredBy string
		if ref := strings.TrimSpace(payload.Ref); ref != "" {
			inviter, err := users.FindByReferralCode(r.Context(), ref)
			if err != nil {
				logger.WithError(err).Error("failed to look up referral code")
				writeError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}
			if inviter == nil {
				writeError(w, http.StatusBadRequest, "Invalid referral code", "invalid_referral")
				return
			}
			referredBy = inviter.ReferralCode
		}

		hash, err := security.HashPassword(payload.Password)
		if err != nil {
			logger.WithError(err).Error("failed to hash password")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		user := &model.User{
			FullName:   payload.FullName,
			Email:      payload.Email,
			UserName:   payload.UserName,
			Password:   hash,
			Phone:      strings.TrimSpace(payload.Phone),
			ReferredBy: referredBy,
			IsActive:   true,
		}
		if err := users.Create(r.Context(), user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				writeError(w, http.StatusBadRequest, "User with this email or username already exists", "")
				return
			}
			logger.WithError(err).Error("failed to create user")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		if _, err := ledgers.Open(r.Context(), user.ID); err != nil {
			logger.WithError(err).WithField("user_id", user.ID).Error("failed to open account for new user")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		token, expiresAt, err := security.IssueToken(user.ID, user.IsAdmin)
		if err != nil {
			logger.WithError(err).Error("failed to issue token")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		writeJSON(w, http.StatusCreated, authResponse{
			Message:   "Account created successfully",
			User:      user.ToResponse(),
			Token:     token,
			ExpiresAt: expiresAt,
		})
	}
}

func LoginHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.LoginPayload
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}
		if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password are required", "")
			return
		}

		user, err := users.FindByEmail(r.Context(), payload.Email)
		if err != nil {
			logger.WithError(err).Error("failed to look up user")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}
		if user == nil || security.CheckPassword(user.Password, payload.Password) != nil {
			writeError(w, http.StatusUnauthorized, "Invalid email or password", "")
			return
		}
		if !user.IsActive {
			writeError(w, http.StatusForbidden, "Account is deactivated", "")
			return
		}

		token, expiresAt, err := security.IssueToken(user.ID, user.IsAdmin)
		if err != nil {
			logger.WithError(err).Error("failed to issue token")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		logger.WithField("user_id", user.ID).Info("User logged in")
		writeJSON(w, http.StatusOK, authResponse{
			Message:   "Login successful",
			User:      user.ToResponse(),
			Token:     token,
			ExpiresAt: expiresAt,
		})
	}
}

type profileResponse struct {
	User             model.UserResponse `json:"user"`
	Balance          string             `json:"balance"`
	FormattedBalance string             `json:"formattedBalance"`
}

func ProfileHandler(ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, l, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}
		balance := l.Balance()
		writeJSON(w, http.StatusOK, profileResponse{
			User:             user.ToResponse(),
			Balance:          balance.StringFixed(2),
			FormattedBalance: utils.FormatUSD(balance),
		})
	}
}

func UpdateUserHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during profile update")
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		var payload model.UpdateUserPayload
		if err := decodeJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid user update payload")
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}

		updated := *user
		if payload.FullName != nil {
			updated.FullName = strings.TrimSpace(*payload.FullName)
		}
		if payload.Email != nil {
			updated.Email = strings.ToLower(strings.TrimSpace(*payload.Email))
		}
		if payload.Phone != nil {
			updated.Phone = strings.TrimSpace(*payload.Phone)
		}
		if updated.FullName == "" || updated.Email == "" {
			writeError(w, http.StatusBadRequest, "Full name and email cannot be empty", "")
			return
		}
		updated.UpdatedAt = time.Now()

		if err := users.Update(r.Context(), &updated); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				writeError(w, http.StatusBadRequest, "User with this email or username already exists", "")
				return
			}
			logger.WithError(err).Error("failed to update user profile")
			writeError(w, http.StatusInternalServerError, "Unable to update profile", "")
			return
		}
		*user = updated

		writeJSON(w, http.StatusOK, user.ToResponse())
	}
}

func ChangePasswordHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during password change")
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		var payload model.ChangePasswordPayload
		if err := decodeJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid change password payload")
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}

		if payload.CurrentPassword == "" || payload.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "Current and new passwords are required", "")
			return
		}

		if err := security.CheckPassword(user.Password, payload.CurrentPassword); err != nil {
			logger.WithField("user_id", user.ID).Warn("current password mismatch")
			writeError(w, http.StatusUnauthorized, "Current password is incorrect", "")
			return
		}

		if err := security.ValidatePassword(payload.NewPassword); err != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Password must be at least %d characters", security.GetConfig().MinPasswordLength), "")
			return
		}

		hash, err := security.HashPassword(payload.NewPassword)
		if err != nil {
			logger.WithError(err).Error("failed to hash new password")
			writeError(w, http.StatusInternalServerError, "Unable to update password", "")
			return
		}

		if err := users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
			logger.WithError(err).Error("failed to update user password")
			writeError(w, http.StatusInternalServerError, "Unable to update password", "")
			return
		}
		user.Password = hash

		writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
	}
}

// openUserLedger resolves the authenticated user and its ledger, writing
// the error response itself when either is unavailable.
func openUserLedger(w http.ResponseWriter, r *http.Request, ledgers ledgerOpener) (*model.User, *ledger.Ledger, bool) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok || user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return nil, nil, false
	}
	l, err := ledgers.Open(r.Context(), user.ID)
	if err != nil {
		logger.WithError(err).WithField("user_id", user.ID).Error("failed to open ledger")
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
		return nil, nil, false
	}
	return user, l, true
}
