package api

import (
	"net/http"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/service/identity"
	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	identity identity.IdentityUseCase
}

func NewRoleHandler(ids identity.IdentityUseCase) *RoleHandler {
	return &RoleHandler{identity: ids}
}

func (h *RoleHandler) Register(router *gin.RouterGroup) {
	router.GET("/:email/role", h.resolve)
}

func (h *RoleHandler) resolve(c *gin.Context) {
	email := c.Param("email")
	p := PrincipalFrom(c)
	if p.Email != email && !p.IsAdmin() {
		respondError(c, domain.Errorf(domain.CodeAuthorization, "cannot resolve another user's role"))
		return
	}

	resolved, err := h.identity.Lookup(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": resolved.Email, "role": resolved.Role})
}
