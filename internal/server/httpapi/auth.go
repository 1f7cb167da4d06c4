package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/dmitrijs2005/moi/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginInput struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type resendInput struct {
	Email string `json:"email" binding:"required,email"`
}

// UserLoginOutput is the user part of a token reply.
type UserLoginOutput struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

// TokenOutput is the reply of login and refresh.
type TokenOutput struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken *string         `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	UserData     UserLoginOutput `json:"user_data"`
}

func tokenOutput(s *services.Session) TokenOutput {
	refresh := s.RefreshToken
	return TokenOutput{
		AccessToken:  s.AccessToken,
		RefreshToken: &refresh,
		TokenType:    common.TokenTypeBearer,
		UserData: UserLoginOutput{
			ID:         s.User.ID,
			Email:      s.User.Email,
			IsVerified: s.User.IsVerified,
		},
	}
}

func (h *Handler) register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abortValidation(c, err)
		return
	}

	u, err := h.sessions.Register(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, UserLoginOutput{ID: u.ID, Email: u.Email, IsVerified: u.IsVerified})
}

func (h *Handler) login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBind(&in); err != nil {
		h.abortValidation(c, err)
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.cookies.setSession(c.Writer, s)
	c.JSON(http.StatusOK, tokenOutput(s))
}

func (h *Handler) refresh(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)

	s, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.cookies.setSession(c.Writer, s)
	c.JSON(http.StatusOK, tokenOutput(s))
}

func (h *Handler) logout(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)
	h.sessions.Logout(c.Request.Context(), token)

	h.cookies.clearSession(c.Writer)
	c.Status(http.StatusNoContent)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	if err := h.sessions.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Email verified"})
}

func (h *Handler) resendVerification(c *gin.Context) {
	var in resendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abortValidation(c, err)
		return
	}
	if err := h.sessions.ResendVerification(c.Request.Context(), in.Email); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
