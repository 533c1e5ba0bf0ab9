package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pitchup-app/pitchup/config"
	"github.com/pitchup-app/pitchup/internal/middleware"
	"github.com/pitchup-app/pitchup/internal/user"
	"github.com/pitchup-app/pitchup/pkg/responses"
	"github.com/pitchup-app/pitchup/pkg/token"
	"github.com/pitchup-app/pitchup/pkg/utils"
)

// AuthController handles registration, login and session management.
type AuthController struct {
	repo   AuthRepository
	config *config.Config
	log    zerolog.Logger
}

// NewAuthController creates an auth controller.
func NewAuthController(repo AuthRepository, cfg *config.Config, log zerolog.Logger) *AuthController {
	return &AuthController{repo: repo, config: cfg, log: log}
}

func (ac *AuthController) generateAndSaveTokens(c *gin.Context, userID uint) (string, string, error) {
	accessToken, err := token.GenerateJWT(userID, ac.config.JWT.AccessTokenSecret, ac.config.JWT.AccessTokenExpiryMinutes)
	if err != nil {
		return "", "", fmt.Errorf("access token generation failed: %w", err)
	}

	refreshTokenString, err := utils.GenerateRefreshToken(userID, ac.config.JWT.RefreshTokenSecret, ac.config.JWT.RefreshTokenExpiryDays)
	if err != nil {
		return "", "", fmt.Errorf("refresh token generation failed: %w", err)
	}

	refreshToken := &user.RefreshToken{
		UserID:    userID,
		Token:     refreshTokenString,
		ExpiresAt: time.Now().AddDate(0, 0, ac.config.JWT.RefreshTokenExpiryDays),
	}
	if err := ac.repo.SaveRefreshToken(c.Request.Context(), refreshToken); err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}
	return accessToken, refreshTokenString, nil
}

// Register godoc
// @Summary Register a new user
// @Description Creates a user account and returns an initial token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration details"
// @Success 201 {object} responses.SuccessResponse{data=AuthResponse} "User registered successfully"
// @Failure 400 {object} responses.ErrorResponse "Validation error"
// @Failure 409 {object} responses.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	email := strings.ToLower(req.Email)
	existing, err := ac.repo.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		responses.SendError(c, http.StatusConflict, "User with this email already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Error hashing password")
		return
	}

	newUser := &user.User{
		Name:     req.Name,
		Email:    email,
		Password: hashedPassword,
	}
	if err := ac.repo.CreateUser(c.Request.Context(), newUser); err != nil {
		ac.log.Error().Err(err).Str("email", email).Msg("user creation failed")
		responses.SendError(c, http.StatusInternalServerError, "User creation failed")
		return
	}

	accessToken, refreshToken, err := ac.generateAndSaveTokens(c, newUser.ID)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	responses.SendSuccess(c, http.StatusCreated, "User registered successfully", AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         FilterUserRecord(newUser),
	})
}

// Login godoc
// @Summary Login user
// @Description Authenticates with email and password, returns a token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} responses.SuccessResponse{data=AuthResponse} "Login successful"
// @Failure 401 {object} responses.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	foundUser, err := ac.repo.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Database error")
		return
	}
	// Same answer for unknown email and wrong password.
	if foundUser == nil || !utils.CheckPassword(foundUser.Password, req.Password) {
		responses.Unauthorized(c, "Invalid credentials")
		return
	}

	accessToken, refreshToken, err := ac.generateAndSaveTokens(c, foundUser.ID)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Login successful", AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         FilterUserRecord(foundUser),
	})
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Issues a new access token for a valid, unrevoked refresh token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh Token Request"
// @Success 200 {object} responses.SuccessResponse "New access token"
// @Failure 401 {object} responses.ErrorResponse "Invalid or expired refresh token"
// @Router /auth/refresh-token [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	rt, err := ac.repo.GetRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if rt == nil {
		responses.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	// The signature check catches tokens that exist in storage but were
	// minted with an old secret.
	if _, err := utils.VerifyRefreshToken(req.RefreshToken, ac.config.JWT.RefreshTokenSecret); err != nil {
		responses.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	newAccessToken, err := token.GenerateJWT(rt.UserID, ac.config.JWT.AccessTokenSecret, ac.config.JWT.AccessTokenExpiryMinutes)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "New access token generation failed")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Token refreshed", gin.H{"access_token": newAccessToken})
}

// GetProfile godoc
// @Summary Get my profile
// @Tags Auth
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=UserResponse} "User profile"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	u, err := ac.repo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if u == nil {
		responses.NotFound(c, "User")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Profile retrieved successfully", FilterUserRecord(u))
}

// ChangePassword godoc
// @Summary Change my password
// @Description Changes the password and revokes every existing session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Password change request"
// @Success 200 {object} responses.SuccessResponse "Password changed"
// @Failure 401 {object} responses.ErrorResponse "Wrong old password"
// @Security ApiKeyAuth
// @Router /auth/change-password [post]
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	u, err := ac.repo.GetUserByID(c.Request.Context(), userID)
	if err != nil || u == nil {
		responses.SendError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if !utils.CheckPassword(u.Password, req.OldPassword) {
		responses.Unauthorized(c, "Old password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Error hashing password")
		return
	}
	u.Password = hashed
	if err := ac.repo.UpdateUser(c.Request.Context(), u); err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Password update failed")
		return
	}

	// Force re-login everywhere after a password change.
	if err := ac.repo.InvalidateAllRefreshTokensForUser(c.Request.Context(), userID); err != nil {
		ac.log.Warn().Err(err).Uint("user_id", userID).Msg("failed to revoke sessions after password change")
	}
	responses.SendSuccess(c, http.StatusOK, "Password changed successfully", nil)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the given refresh token, or all of the user's sessions.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Logout request"
// @Success 200 {object} responses.SuccessResponse "Logged out"
// @Security ApiKeyAuth
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	if req.InvalidateAllSessions {
		if err := ac.repo.InvalidateAllRefreshTokensForUser(c.Request.Context(), userID); err != nil {
			responses.SendError(c, http.StatusInternalServerError, "Logout failed")
			return
		}
	} else if req.RefreshToken != "" {
		if err := ac.repo.InvalidateRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
			responses.SendError(c, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	responses.SendSuccess(c, http.StatusOK, "Logged out successfully", nil)
}
