package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/wandergames/tourquest/internal/tourquest"
)

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "TourQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for TourQuest location tours.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/join")
	postJoin.SetSummary("Join a team")
	postJoin.SetDescription("Player joins a team using the join token. Returns a session token.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postJoin)

	// GET /api/tours/{activeTourID}
	getTour, _ := r.NewOperationContext(http.MethodGet, "/api/tours/{activeTourID}")
	getTour.SetSummary("Get active tour")
	getTour.SetDescription("Full active-tour record with derived progress. Requires Bearer token.")
	getTour.AddRespStructure(ActiveTourResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTour.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTour)

	// POST /api/tours/{activeTourID}/challenges/{challengeID}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/tours/{activeTourID}/challenges/{challengeID}/complete")
	postComplete.SetSummary("Complete a challenge")
	postComplete.SetDescription("Idempotent: an already-resolved attempt is returned unchanged.")
	postComplete.AddRespStructure(tourquest.ChallengeAttempt{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postComplete)

	// POST /api/tours/{activeTourID}/challenges/{challengeID}/fail
	postFail, _ := r.NewOperationContext(http.MethodPost, "/api/tours/{activeTourID}/challenges/{challengeID}/fail")
	postFail.SetSummary("Fail a challenge")
	postFail.AddRespStructure(tourquest.ChallengeAttempt{}, openapi.WithHTTPStatus(http.StatusOK))
	postFail.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postFail)

	// POST /api/tours/{activeTourID}/finish
	postFinish, _ := r.NewOperationContext(http.MethodPost, "/api/tours/{activeTourID}/finish")
	postFinish.SetSummary("Finish the tour")
	postFinish.AddRespStructure(tourquest.ActiveTour{}, openapi.WithHTTPStatus(http.StatusOK))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postFinish)

	// POST /api/tours/{activeTourID}/abandon
	postAbandon, _ := r.NewOperationContext(http.MethodPost, "/api/tours/{activeTourID}/abandon")
	postAbandon.SetSummary("Abandon the tour")
	postAbandon.AddRespStructure(tourquest.ActiveTour{}, openapi.WithHTTPStatus(http.StatusOK))
	postAbandon.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAbandon)

	// POST /api/tours/{activeTourID}/stop
	postStop, _ := r.NewOperationContext(http.MethodPost, "/api/tours/{activeTourID}/stop")
	postStop.SetSummary("Update current stop")
	postStop.AddReqStructure(UpdateStopRequest{})
	postStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postStop)

	// POST /api/tours/{activeTourID}/pubgolf
	postPubGolf, _ := r.NewOperationContext(http.MethodPost, "/api/tours/{activeTourID}/pubgolf")
	postPubGolf.SetSummary("Record pub-golf sips")
	postPubGolf.AddReqStructure(PubGolfRequest{})
	postPubGolf.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPubGolf)

	// GET /api/tours/{activeTourID}/bingo
	getBingo, _ := r.NewOperationContext(http.MethodGet, "/api/tours/{activeTourID}/bingo")
	getBingo.SetSummary("Get team bingo card")
	getBingo.AddRespStructure(tourquest.BingoCard{}, openapi.WithHTTPStatus(http.StatusOK))
	getBingo.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getBingo)

	// GET /api/tours/{activeTourID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/tours/{activeTourID}/events")
	getEvents.SetSummary("Tour event stream")
	getEvents.SetDescription("Server-sent events for the active tour. Token travels as a query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/tours
	listTours, _ := r.NewOperationContext(http.MethodGet, "/api/admin/tours")
	listTours.SetSummary("List tour templates")
	listTours.AddRespStructure([]TourSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listTours.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listTours)

	// POST /api/admin/tours
	postTour, _ := r.NewOperationContext(http.MethodPost, "/api/admin/tours")
	postTour.SetSummary("Create tour template")
	postTour.AddReqStructure(AdminTourRequest{})
	postTour.AddRespStructure(tourquest.Tour{}, openapi.WithHTTPStatus(http.StatusCreated))
	postTour.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postTour)

	// POST /api/admin/active-tours
	postActive, _ := r.NewOperationContext(http.MethodPost, "/api/admin/active-tours")
	postActive.SetSummary("Start an active tour")
	postActive.AddReqStructure(AdminActiveTourRequest{})
	postActive.AddRespStructure(tourquest.ActiveTour{}, openapi.WithHTTPStatus(http.StatusCreated))
	postActive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postActive)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
