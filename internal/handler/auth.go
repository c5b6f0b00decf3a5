package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notevault/backend/internal/model"
	"github.com/notevault/backend/internal/service"
	"github.com/notevault/backend/internal/storage"
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

type AuthHandler struct {
	svc   *service.AuthService
	files storage.FileStore
}

func NewAuthHandler(svc *service.AuthService, files storage.FileStore) *AuthHandler {
	return &AuthHandler{svc: svc, files: files}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration payload"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	if err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "User created successfully"})
}

// Login godoc
// @Summary Login with email and password
// @Description Issues an access token and a refresh token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		Message:      "User logged in successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh godoc
// @Summary Issue a new access token
// @Description Requires a valid refreshtoken header. The refresh token is not rotated.
// @Tags auth
// @Produce json
// @Security RefreshToken
// @Success 200 {object} model.RefreshResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/refreshtoken [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshCtx := GetRefreshContext(c)
	if refreshCtx == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Refresh token required, please login"})
		return
	}

	accessToken, err := h.svc.Refresh(c.Request.Context(), refreshCtx.Subject)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RefreshResponse{
		Message:     "Token refreshed successfully",
		AccessToken: accessToken,
	})
}

// UploadProfilePicture godoc
// @Summary Upload a profile picture
// @Tags auth
// @Accept mpfd
// @Produce json
// @Security AccessToken
// @Param image formData file true "Image file"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/uploadProfilePic [patch]
func (h *AuthHandler) UploadProfilePicture(c *gin.Context) {
	authUser := GetAuthUser(c)
	if authUser == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "No file uploaded"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if _, ok := allowedImageTypes[contentType]; !ok {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid file type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Message: "Something went wrong, please try again later"})
		return
	}
	defer file.Close()

	name := fmt.Sprintf("%d__%s", time.Now().UnixNano(), filepath.Base(fileHeader.Filename))
	path, err := h.files.Save(c.Request.Context(), name, contentType, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Message: "Something went wrong, please try again later"})
		return
	}

	if err := h.svc.SaveProfilePicture(c.Request.Context(), authUser.User.ID, path); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "File uploaded successfully"})
}

// SignOut godoc
// @Summary Sign out
// @Description Re-verifies the credentials, then revokes the access and refresh token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Security AccessToken
// @Security RefreshToken
// @Param request body model.SignOutRequest true "Credentials"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/signOut [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	authUser := GetAuthUser(c)
	refreshCtx := GetRefreshContext(c)
	if authUser == nil || refreshCtx == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized"})
		return
	}

	var req model.SignOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	err := h.svc.SignOut(c.Request.Context(), req.Email, req.Password, authUser.Token, model.TokenDetails{
		TokenID:   refreshCtx.TokenID,
		ExpiresAt: refreshCtx.ExpiresAt,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "User logged out successfully"})
}

// ForgotPassword godoc
// @Summary Request a password-reset OTP
// @Description Emails a one-time code valid for a limited time. A new request replaces any pending code.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ForgotPasswordRequest true "Account email"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/sendForgetPasswordOtp [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Forgot password OTP sent successfully"})
}

// ResetPassword godoc
// @Summary Reset the password with an OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ResetPasswordRequest true "Reset payload"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/resetPassword [put]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid request body"})
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Password changed successfully"})
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Password and confirm password should match"})
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, model.ErrorResponse{Message: "Email already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "User not found, please sign up first"})
	case errors.Is(err, service.ErrOTPExpired):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "OTP expired"})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Invalid OTP"})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Message: "Something went wrong, please try again later"})
	}
}
