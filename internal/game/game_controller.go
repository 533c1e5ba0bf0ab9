package game

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchup-app/pitchup/internal/common"
	"github.com/pitchup-app/pitchup/internal/middleware"
	"github.com/pitchup-app/pitchup/pkg/responses"
)

// Controller handles game and game-request HTTP requests.
type Controller struct {
	service *Service
}

// NewController creates a game controller.
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// --- DTOs ---

type RecurrenceRequest struct {
	Freq  string `json:"freq" binding:"required,oneof=weekly monthly"`
	Count int    `json:"count" binding:"required,min=1,max=52"`
}

type ScheduleRequest struct {
	Title       string             `json:"title" binding:"required,min=2,max=200"`
	Occurrences []time.Time        `json:"occurrences" binding:"required,min=1,dive"`
	Location    string             `json:"location" binding:"max=200"`
	Latitude    *float64           `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude   *float64           `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	KitColor    string             `json:"kit_color"`
	Recurring   *RecurrenceRequest `json:"recurring"`
}

// --- Game handlers ---

// ScheduleAvailability godoc
// @Summary Schedule open availability for a team
// @Description Creates one open game per occurrence. Recurring templates are expanded up front. Coordinator-only.
// @Tags Games
// @Accept json
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param schedule body ScheduleRequest true "Availability template"
// @Success 201 {object} responses.SuccessResponse{data=ScheduleResult} "Occurrences created, with per-occurrence failures"
// @Failure 403 {object} responses.ErrorResponse "Not a coordinator"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/games [post]
func (gc *Controller) ScheduleAvailability(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	teamID, err := common.ParseIDParam(c, "team_id")
	if err != nil {
		responses.BadRequest(c, "Invalid team ID")
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	in := ScheduleInput{
		Title:       req.Title,
		Occurrences: req.Occurrences,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		KitColor:    req.KitColor,
	}
	if req.Recurring != nil {
		in.Recurring = &Recurrence{Freq: RecurrenceFreq(req.Recurring.Freq), Count: req.Recurring.Count}
	}

	result, err := gc.service.ScheduleAvailability(c.Request.Context(), userID, teamID, in)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Availability scheduled", result)
}

// ListTeamGames godoc
// @Summary List a team's games
// @Tags Games
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]Game} "Games"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Router /teams/{team_id}/games [get]
func (gc *Controller) ListTeamGames(c *gin.Context) {
	teamID, err := common.ParseIDParam(c, "team_id")
	if err != nil {
		responses.BadRequest(c, "Invalid team ID")
		return
	}

	page, limit := common.PageParams(c)
	games, total, err := gc.service.ListTeamGames(c.Request.Context(), teamID, page, limit)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Games retrieved successfully", games, total, page, limit)
}

// FindNearbyGames godoc
// @Summary Discover open games near a location
// @Description Filters open games by distance from the given point, team rating band and date range, sorted nearest-first.
// @Tags Games
// @Produce json
// @Param lat query number true "Search origin latitude"
// @Param lng query number true "Search origin longitude"
// @Param radius_miles query number false "Search radius in miles" default(10)
// @Param rating_min query int false "Minimum team display rating"
// @Param rating_max query int false "Maximum team display rating"
// @Param from query string false "Earliest start time (RFC 3339)"
// @Param to query string false "Latest start time (RFC 3339)"
// @Success 200 {object} responses.SuccessResponse{data=[]EnrichedGame} "Matching games"
// @Failure 400 {object} responses.ErrorResponse "Invalid coordinates or filters"
// @Router /games [get]
func (gc *Controller) FindNearbyGames(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		responses.BadRequest(c, "Invalid or missing 'lat'")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		responses.BadRequest(c, "Invalid or missing 'lng'")
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius_miles", "10"), 64)
	if err != nil {
		responses.BadRequest(c, "Invalid 'radius_miles'")
		return
	}

	q := NearbyQuery{Latitude: lat, Longitude: lng, RadiusMiles: radius}
	if v := c.Query("rating_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			responses.BadRequest(c, "Invalid 'rating_min'")
			return
		}
		q.RatingMin = &n
	}
	if v := c.Query("rating_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			responses.BadRequest(c, "Invalid 'rating_max'")
			return
		}
		q.RatingMax = &n
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			responses.BadRequest(c, "Invalid 'from', expected RFC 3339")
			return
		}
		q.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			responses.BadRequest(c, "Invalid 'to', expected RFC 3339")
			return
		}
		q.To = &t
	}

	games, err := gc.service.FindNearbyGames(c.Request.Context(), q)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Games retrieved successfully", games)
}

// GetGame godoc
// @Summary Get a game by its ID
// @Tags Games
// @Produce json
// @Param game_id path uint true "Game ID"
// @Success 200 {object} responses.SuccessResponse{data=Game} "Game details"
// @Failure 404 {object} responses.ErrorResponse "Game not found"
// @Router /games/{game_id} [get]
func (gc *Controller) GetGame(c *gin.Context) {
	gameID, err := common.ParseIDParam(c, "game_id")
	if err != nil {
		responses.BadRequest(c, "Invalid game ID")
		return
	}

	g, err := gc.service.GetGame(c.Request.Context(), gameID)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Game retrieved successfully", g)
}

// DeleteGame godoc
// @Summary Delete a game
// @Description Removes a game. Only the game's creator or a coordinator of its team may.
// @Tags Games
// @Produce json
// @Param game_id path uint true "Game ID"
// @Success 200 {object} responses.SuccessResponse "Game deleted successfully"
// @Failure 403 {object} responses.ErrorResponse "Not the creator or a coordinator"
// @Failure 404 {object} responses.ErrorResponse "Game not found"
// @Security ApiKeyAuth
// @Router /games/{game_id} [delete]
func (gc *Controller) DeleteGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, err := common.ParseIDParam(c, "game_id")
	if err != nil {
		responses.BadRequest(c, "Invalid game ID")
		return
	}

	if err := gc.service.DeleteGame(c.Request.Context(), userID, gameID); err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Game deleted successfully", nil)
}

// --- Game request handlers ---

// RequestGame godoc
// @Summary Request to play an open game slot
// @Description Asks the hosting team to play their open slot. The caller must belong to a team.
// @Tags Game Requests
// @Produce json
// @Param game_id path uint true "Game ID"
// @Success 201 {object} responses.SuccessResponse{data=GameRequest} "Request created"
// @Failure 403 {object} responses.ErrorResponse "No team"
// @Failure 404 {object} responses.ErrorResponse "Game not found"
// @Failure 409 {object} responses.ErrorResponse "Not an open slot, own slot, or duplicate request"
// @Security ApiKeyAuth
// @Router /games/{game_id}/requests [post]
func (gc *Controller) RequestGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, err := common.ParseIDParam(c, "game_id")
	if err != nil {
		responses.BadRequest(c, "Invalid game ID")
		return
	}

	req, err := gc.service.RequestGame(c.Request.Context(), userID, gameID)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Game request sent successfully", req)
}

// RespondToGameRequest godoc
// @Summary Approve or reject a game request
// @Description Approval schedules the game on the home team's calendar. Home-team coordinator only.
// @Tags Game Requests
// @Produce json
// @Param request_id path uint true "Request ID"
// @Param action path string true "Action to perform: 'approve' or 'reject'"
// @Success 200 {object} responses.SuccessResponse "Request processed"
// @Failure 403 {object} responses.ErrorResponse "Not the home team's coordinator"
// @Failure 404 {object} responses.ErrorResponse "Request not found"
// @Failure 422 {object} responses.ErrorResponse "Request already resolved"
// @Security ApiKeyAuth
// @Router /game-requests/{request_id}/{action} [put]
func (gc *Controller) RespondToGameRequest(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	requestID, err := common.ParseIDParam(c, "request_id")
	if err != nil {
		responses.BadRequest(c, "Invalid request ID")
		return
	}

	action := strings.ToLower(c.Param("action"))
	switch action {
	case "approve":
		scheduled, err := gc.service.ApproveGameRequest(c.Request.Context(), userID, requestID)
		if err != nil {
			responses.SendWorkflowError(c, err)
			return
		}
		responses.SendSuccess(c, http.StatusOK, "Game request approved", gin.H{"scheduled_game": scheduled})
	case "reject":
		if err := gc.service.RejectGameRequest(c.Request.Context(), userID, requestID); err != nil {
			responses.SendWorkflowError(c, err)
			return
		}
		responses.SendSuccess(c, http.StatusOK, "Game request rejected", nil)
	default:
		responses.BadRequest(c, "Invalid action. Must be 'approve' or 'reject'.")
	}
}

// ListGameRequests godoc
// @Summary List my team's game requests
// @Description Lists the caller's team's game requests, incoming or outgoing.
// @Tags Game Requests
// @Produce json
// @Param direction query string false "Which side: 'incoming' or 'outgoing'" default(incoming)
// @Param status query string false "Filter by status"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]GameRequest} "Requests"
// @Failure 403 {object} responses.ErrorResponse "No team"
// @Security ApiKeyAuth
// @Router /users/me/game-requests [get]
func (gc *Controller) ListGameRequests(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	page, limit := common.PageParams(c)
	direction := strings.ToLower(c.DefaultQuery("direction", "incoming"))
	status := strings.ToLower(c.Query("status"))

	requests, total, err := gc.service.ListGameRequests(c.Request.Context(), userID, direction, status, page, limit)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Game requests retrieved successfully", requests, total, page, limit)
}
