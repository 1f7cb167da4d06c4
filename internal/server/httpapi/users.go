package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CurrentUserOutput is the profile of the authenticated user.
type CurrentUserOutput struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// UserOutput is a user as listed to administrators.
type UserOutput struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *Handler) me(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, CurrentUserOutput{
		ID:          u.ID,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	out := make([]UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, UserOutput{
			ID:          u.ID,
			Email:       u.Email,
			IsSuperuser: u.IsSuperuser,
			IsVerified:  u.IsVerified,
			CreatedAt:   u.CreatedAt,
			UpdatedAt:   u.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
