package controller

import (
	"educorp_backend/internal/guard"
	"educorp_backend/internal/middleware"
	"educorp_backend/internal/service"
	"educorp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account details"
// @Success 201 {object} util.Response{data=identity.Session}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.AuthService.Register(ctx.Request.Context(), &service.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Name:        req.Name,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// Login godoc
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} util.Response{data=identity.Session}
// @Failure 401 {object} util.Response
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.AuthService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Logout godoc
// @Summary Revoke the current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.AuthService.Logout(ctx.Request.Context(), middleware.CurrentSession(ctx)); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetProfile godoc
// @Summary Current user profile and roles
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=service.Profile}
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	profile, err := c.AuthService.Profile(ctx.Request.Context(), middleware.CurrentSession(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// GuardDecision godoc
// @Summary Access decision for a front-end view
// @Description view is one of public, auth, dashboard, admin
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Param view query string true "View name"
// @Success 200 {object} util.Response{data=guard.Decision}
// @Failure 400 {object} util.Response
// @Router /api/session/guard [get]
func (c *AuthController) GuardDecision(ctx *gin.Context) {
	check, ok := guard.ForView(ctx.Query("view"))
	if !ok {
		util.BadRequest(ctx, "unknown view")
		return
	}
	state := c.AuthService.GuardState(ctx.Request.Context(), middleware.CurrentSession(ctx))
	util.Success(ctx, check(state))
}
