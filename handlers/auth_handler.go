package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"ticket-wallet/security"
	"ticket-wallet/services"
)

type AuthHandler struct {
	ticketService *services.TicketService
	tokens        *security.TokenManager
}

func NewAuthHandler(ticketService *services.TicketService, tokens *security.TokenManager) *AuthHandler {
	return &AuthHandler{
		ticketService: ticketService,
		tokens:        tokens,
	}
}

// Login checks the credential and returns the user plus a bearer token
// for the ticket endpoints.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	user, err := h.ticketService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to issue token"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}
