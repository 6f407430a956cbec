package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projecthub/internal/constants"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/services"
)

// respondError maps a service error onto the API error envelope. Internal
// errors are attached to the context for the request logger and never
// echoed to the client.
func respondError(c *gin.Context, err error) {
	switch services.CategoryOf(err) {
	case services.CategoryInvalidInput:
		if errors.Is(err, services.ErrPasswordTooShort) {
			apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
			return
		}
		apierrors.BadRequest(c, err.Error())
	case services.CategoryNotFound:
		apierrors.NotFound(c, err.Error())
	case services.CategoryAccessDenied:
		apierrors.Forbidden(c, "")
	case services.CategoryConflict:
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			apierrors.AlreadyExists(c, err.Error())
			return
		}
		apierrors.Conflict(c, err.Error())
	case services.CategoryUnauthorized:
		apierrors.InvalidCredentials(c)
	case services.CategoryUnavailable:
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}
