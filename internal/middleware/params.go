package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
)

func paramKey(name string) string {
	return "param_" + name
}

// RequireIDParams parses the named path parameters as positive integers and
// stores them in the context. Requests with a malformed ID stop with 400.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil || id == 0 {
				apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
				c.Abort()
				return
			}
			c.Set(paramKey(name), id)
		}
		c.Next()
	}
}

// IDParam returns a path parameter parsed by RequireIDParams, falling back to
// parsing it directly.
func IDParam(c *gin.Context, name string) (uint64, bool) {
	if v, ok := c.Get(paramKey(name)); ok {
		id, ok := v.(uint64)
		return id, ok
	}

	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
