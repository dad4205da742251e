// Package handler exposes the REST API. Handlers stay thin: bind, call the
// service, translate the error taxonomy to HTTP.
package handler

import (
	"net/http"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/gin-gonic/gin"
)

// fail writes an error response with the taxonomy kind so the frontend can
// distinguish bad input from engine trouble.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindDeployment:
		status = http.StatusBadGateway
	case apperr.KindConnection:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}

// wrapEngine classifies raw engine client errors for handlers that talk to
// the docker client directly.
func wrapEngine(err error) error {
	switch {
	case docker.IsUnreachable(err):
		return apperr.Connection(err)
	case docker.IsNotFound(err):
		return apperr.NotFound("%v", err)
	default:
		return err
	}
}
