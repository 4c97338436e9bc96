package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
)

// StatsHandler godoc
//
//	@Summary		Token metrics
//	@Description	Process uptime and refresh token counts by state.
//	@Tags			Metrics
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MetricsResponse	"uptimeMs, tokens"
//	@Failure		401	{object}	authsdk.APIError		"invalid or expired credentials"
//	@Failure		500	{object}	authsdk.APIError		"internal server error"
//	@Router			/api/metrics [get]
func StatsHandler(startTime time.Time, tokens *service.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := tokens.Stats(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.MetricsResponse{
			UptimeMs: time.Since(startTime).Milliseconds(),
			Tokens: authsdk.TokenStats{
				Total:   stats.Total,
				Active:  stats.Active,
				Revoked: stats.Revoked,
			},
		})
	}
}
