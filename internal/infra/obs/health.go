package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// HealthHandlers exposes endpoints for liveness and readiness checks.
type HealthHandlers struct {
	Checks map[string]Check
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	failures := gin.H{}
	var errs []error
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failures})
		return
	}
	c.Status(http.StatusOK)
}
