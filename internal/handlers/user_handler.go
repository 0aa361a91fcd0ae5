package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
)

// TokenIssuer signs access tokens for authenticated local accounts.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type UserHandler struct {
	BaseHandler
	service services.UserService
	tokens  TokenIssuer
}

func NewUserHandler(service services.UserService, tokens TokenIssuer, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		tokens:      tokens,
	}
}

// Register is the public signup endpoint.
// @Router /users/ [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.UserCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ObtainToken exchanges email and password for an access token.
// @Router /auth/token/ [post]
func (h *UserHandler) ObtainToken(c *gin.Context) {
	var req models.TokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Issued access token", "user_id", user.ID)
	c.JSON(http.StatusOK, models.TokenResponse{Access: token})
}

func (h *UserHandler) Me(c *gin.Context) {
	user, ok := GetUserFromContext(c)
	if !ok {
		actorFromContext(c)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	users, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.UserUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
