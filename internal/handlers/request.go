package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/projecthub/internal/errors"
	"github.com/yukikurage/projecthub/internal/middleware"
)

// patchBody keeps the raw value of every field present in a PATCH body so
// that an explicit null can be told apart from an absent field.
type patchBody map[string]json.RawMessage

func bindPatch(c *gin.Context) (patchBody, bool) {
	var body patchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}
	return body, true
}

func (p patchBody) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p patchBody) isNull(key string) bool {
	raw, ok := p[key]
	return ok && string(raw) == "null"
}

// decode unmarshals key into dst when present and not null.
func (p patchBody) decode(key string, dst interface{}) (bool, error) {
	raw, ok := p[key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return true, nil
}

// callerID returns the authenticated user, writing 401 when absent.
func callerID(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}

// idParam returns a positive path parameter, writing 400 when malformed.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, ok := middleware.IDParam(c, name)
	if !ok {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
	}
	return id, ok
}
