package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projecthub/internal/constants"
	"github.com/yukikurage/projecthub/internal/dto"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/models"
	"github.com/yukikurage/projecthub/internal/services"
	"github.com/yukikurage/projecthub/internal/utils"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email" binding:"required,email"`
		FullName string `json:"full_name" binding:"required,max=255"`
		Password string `json:"password" binding:"required"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(services.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCurrentUserDTO(*user))
}

// Login authenticates a user by username or email and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}

// UpdateProfile changes the profile fields present in the body. Absent or
// null fields are left as they are.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	body, ok := bindPatch(c)
	if !ok {
		return
	}

	input := services.UpdateProfileInput{UserID: userID}
	var email, fullName, month, day, year, gender, color string
	var theme models.ThemeMode

	fields := []struct {
		key string
		dst interface{}
		set func()
	}{
		{"email", &email, func() { input.Email = &email }},
		{"full_name", &fullName, func() { input.FullName = &fullName }},
		{"birth_month", &month, func() { input.BirthMonth = &month }},
		{"birth_day", &day, func() { input.BirthDay = &day }},
		{"birth_year", &year, func() { input.BirthYear = &year }},
		{"gender", &gender, func() { input.Gender = &gender }},
		{"side_menu_color", &color, func() { input.SideMenuColor = &color }},
		{"theme_mode", &theme, func() { input.ThemeMode = &theme }},
	}
	for _, f := range fields {
		present, err := body.decode(f.key, f.dst)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		if present {
			f.set()
		}
	}

	user, err := h.authService.UpdateProfile(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}

// GetUserByUsername returns a user's public profile.
func (h *AuthHandler) GetUserByUsername(c *gin.Context) {
	user, err := h.authService.GetByUsername(c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// SearchUsers finds users by username or full name.
func (h *AuthHandler) SearchUsers(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.authService.SearchUsers(c.Query("query"), params)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.UserDTO, len(users))
	for i, user := range users {
		out[i] = dto.ToUserDTO(user)
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users: out,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}
