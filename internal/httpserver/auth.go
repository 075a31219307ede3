package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}

func toUserResponse(u *domain.User, token string) userResponse {
	return userResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		IsAdmin: u.IsAdmin(),
		Token:   token,
	}
}

func (a *api) register(c *gin.Context) {
	var in usersvc.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	user, token, err := a.deps.UserSvc.Register(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user, token))
}

func (a *api) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	user, token, err := a.deps.UserSvc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, token))
}

func (a *api) profile(c *gin.Context) {
	user, err := a.deps.UserSvc.Profile(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.fail(c, err, errText{notFound: "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, ""))
}

func (a *api) updateProfile(c *gin.Context) {
	var in usersvc.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	user, token, err := a.deps.UserSvc.UpdateProfile(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		a.fail(c, err, errText{notFound: "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, token))
}
