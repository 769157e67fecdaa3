package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/infra/appctx"
	"github.com/voicebridge/voicebridge/internal/infra/ports/http/dto"
	"github.com/voicebridge/voicebridge/internal/usecase"
)

type AuthHandler struct {
	userUsecase usecase.UserUsecase
}

func NewAuthHandler(userUsecase usecase.UserUsecase) *AuthHandler {
	return &AuthHandler{userUsecase: userUsecase}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	user, err := h.userUsecase.CreateUser(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		slog.Error("create user failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email already exists or invalid data"})
	}

	token, err := h.userUsecase.GenerateJWT(user)
	if err != nil {
		slog.Error("sign token failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create token"})
	}

	return c.JSON(http.StatusCreated, dto.AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	user, err := h.userUsecase.ValidateCredentials(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("validate credentials failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	token, err := h.userUsecase.GenerateJWT(user)
	if err != nil {
		slog.Error("sign token failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create token"})
	}

	return c.JSON(http.StatusOK, dto.AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) GetMe(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}

	user, err := h.userUsecase.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, dto.GetMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	})
}

func (h *AuthHandler) GetHistory(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}

	history, err := h.userUsecase.RoomHistory(c.Request().Context(), userID)
	if err != nil {
		slog.Error("room history failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load history"})
	}

	return c.JSON(http.StatusOK, dto.HistoryResponse{History: history})
}
