package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/aussiebroadwan/grimoire/pkg/slogx"
)

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Reports the user database and the revocation store separately
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, database, revocation Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		checks := &authsdk.HealthChecks{Database: "ok", Revocation: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := database.Ping(ctx); err != nil {
			log.Warn("readiness: database ping failed", "err", err)
			checks.Database = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if revocation != nil {
			if err := revocation.Ping(ctx); err != nil {
				log.Warn("readiness: revocation store ping failed", "err", err)
				checks.Revocation = "error"
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		} else {
			checks.Revocation = checks.Database
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
