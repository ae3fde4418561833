package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"cubecubic/catalog"
	"cubecubic/controller"
	"cubecubic/database"
	"cubecubic/lyrics"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

func respondWithError(c *gin.Context, status int, message, code string) {
	entry := log.WithFields(log.Fields{
		"module": "handlers",
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code, Status: status})
}

// classify maps domain errors onto an HTTP status and error code.
func classify(err error) (int, string) {
	var loadErr *catalog.LoadError
	var validationErr *catalog.ValidationError
	var persistenceErr *catalog.PersistenceError

	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, lyrics.ErrNoLyrics):
		return http.StatusNotFound, "NO_LYRICS"
	case errors.Is(err, catalog.ErrSiblingConflict), errors.Is(err, catalog.ErrAlbumInUse):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, catalog.ErrNothingToSave), errors.Is(err, catalog.ErrDirty):
		return http.StatusConflict, "CONFLICT"
	case errors.As(err, &validationErr), errors.Is(err, controller.ErrUnknownEvent),
		errors.Is(err, database.ErrNameRequired):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError, "PERSISTENCE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respondWithDomainError(c *gin.Context, err error) {
	status, code := classify(err)
	respondWithError(c, status, err.Error(), code)
}

func respondWithBadRequest(c *gin.Context, message string) {
	respondWithError(c, http.StatusBadRequest, message, "BAD_REQUEST")
}

// fromForm reports whether the request came from an HTML form, which gets
// redirects instead of JSON.
func fromForm(c *gin.Context) bool {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

// finish answers an edit: forms are redirected back to target with a message
// or error, API clients get JSON.
func finish(c *gin.Context, target string, status int, body any, message string, err error) {
	if fromForm(c) {
		q := url.Values{}
		if err != nil {
			q.Set("err", err.Error())
		} else if message != "" {
			q.Set("msg", message)
		}
		if len(q) > 0 {
			target += "?" + q.Encode()
		}
		c.Redirect(http.StatusSeeOther, target)
		return
	}
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	if body == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(status, body)
}
