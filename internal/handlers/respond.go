// Package handlers holds the helpers shared by the HTTP handlers in its
// subpackages.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/middleware"
)

// Fail writes err with the status of its kind.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	middleware.Abort(c, err)
}

// BadRequest answers 400 for bodies that cannot be decoded at all.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": msg,
		"code":  apperr.KindValidation,
	})
}

// MaxJSONBody caps the size of JSON request bodies.
const MaxJSONBody = 1 << 20

// DecodeStrict decodes the JSON body into dst, rejecting unknown fields and
// trailing data. It answers 400 (413 past MaxJSONBody) and returns false on
// failure.
func DecodeStrict(c *gin.Context, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("request body exceeds %d bytes", MaxJSONBody),
				"code":  apperr.KindValidation,
			})
			return false
		}
		BadRequest(c, "could not read request body")
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		BadRequest(c, "invalid JSON body: "+err.Error())
		return false
	}
	if dec.More() {
		BadRequest(c, "invalid JSON body: trailing data")
		return false
	}
	return true
}

// ParamUUID parses the named path parameter. A malformed id is reported as
// not found.
func ParamUUID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, apperr.NotFound("%s not found", what))
		return uuid.Nil, false
	}
	return id, true
}
