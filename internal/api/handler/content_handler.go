package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContentHandler serves the role-scoped sample content. Access control is
// enforced by the gate; the handlers only render.
type ContentHandler struct{}

func NewContentHandler() *ContentHandler {
	return &ContentHandler{}
}

type meResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

// Public godoc
//
// @Summary      Public content
// @Tags         content
// @Produce      plain
// @Success      200  {string}  string
// @Router       /api/test/all [get]
func (h *ContentHandler) Public(c echo.Context) error {
	return c.String(http.StatusOK, "Public Content.")
}

// User godoc
//
// @Summary      Content for any signed-in role
// @Tags         content
// @Produce      plain
// @Security     BearerAuth
// @Success      200  {string}  string
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/test/user [get]
func (h *ContentHandler) User(c echo.Context) error {
	return c.String(http.StatusOK, "User Content.")
}

// Moderator godoc
//
// @Summary      Moderator board
// @Tags         content
// @Produce      plain
// @Security     BearerAuth
// @Success      200  {string}  string
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/test/mod [get]
func (h *ContentHandler) Moderator(c echo.Context) error {
	return c.String(http.StatusOK, "Moderator Board.")
}

// Admin godoc
//
// @Summary      Admin board
// @Tags         content
// @Produce      plain
// @Security     BearerAuth
// @Success      200  {string}  string
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/test/admin [get]
func (h *ContentHandler) Admin(c echo.Context) error {
	return c.String(http.StatusOK, "Admin Board.")
}

// Me returns the identity of the caller.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/me [get]
func (h *ContentHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		ID:          p.UserID,
		Username:    p.Username,
		Email:       p.Email,
		Authorities: p.Authorities,
	})
}
