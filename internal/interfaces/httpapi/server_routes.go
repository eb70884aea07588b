package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}", handler.GetLeague)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings", handler.ListLeagueStandings)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/fixtures", handler.ListFixturesByLeague)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/fixtures/{matchID}", handler.GetFixtureByLeague)
	mux.HandleFunc("GET /v1/matches/{matchID}/timeline", handler.GetMatchTimeline)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/assignments", RequireAuth(verifier, http.HandlerFunc(handler.CreateAssignment)))
	mux.Handle("POST /v1/leagues/{leagueID}/slots/{slotNumber}/claim", RequireAuth(verifier, http.HandlerFunc(handler.ClaimSlot)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/assign-all", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunAssignAllJob)))
	mux.Handle("POST /v1/internal/jobs/build-calendar", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBuildCalendarJob)))
	mux.Handle("POST /v1/internal/jobs/run-day", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunDayJob)))
	// The queue appends a shard suffix to spread deliveries; both the bare
	// path and the sharded one land on the same handler.
	mux.Handle("POST /v1/internal/jobs/start-match", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunStartMatchJob)))
	mux.Handle("POST /v1/internal/jobs/start-match/{shard}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunStartMatchJob)))
	mux.Handle("POST /v1/internal/jobs/finalize", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFinalizeJob)))
	mux.Handle("POST /v1/internal/jobs/backfill", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBackfillJob)))
	mux.Handle("POST /v1/internal/jobs/watchdog", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunWatchdogJob)))
	mux.Handle("POST /v1/internal/jobs/dedupe-memberships", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunDedupeMembershipsJob)))
}
