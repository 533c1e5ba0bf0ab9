package team

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pitchup-app/pitchup/internal/common"
	"github.com/pitchup-app/pitchup/internal/middleware"
	"github.com/pitchup-app/pitchup/pkg/responses"
)

// Controller handles team and coordinator-request HTTP requests.
type Controller struct {
	service *Service
}

// NewController creates a team controller.
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// --- DTOs ---

type CreateTeamRequest struct {
	Name      string   `json:"name" binding:"required,min=2,max=100"`
	Location  string   `json:"location" binding:"max=200"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	HomeColor string   `json:"home_color"`
	AwayColor string   `json:"away_color"`
}

type UpdateTeamRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=2,max=100"`
	Location  *string  `json:"location" binding:"omitempty,max=200"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	HomeColor *string  `json:"home_color"`
	AwayColor *string  `json:"away_color"`
}

// TeamResponse is a Team plus its clamped display rating.
type TeamResponse struct {
	Team
	DisplayRating int `json:"display_rating"`
}

func toTeamResponse(t *Team) TeamResponse {
	return TeamResponse{Team: *t, DisplayRating: t.DisplayRating()}
}

// --- Team handlers ---

// CreateTeam godoc
// @Summary Create a new team
// @Description Creates a team and makes the authenticated user its first coordinator.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team body CreateTeamRequest true "Team Creation Data"
// @Success 201 {object} responses.SuccessResponse{data=TeamResponse} "Team created successfully"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 403 {object} responses.ErrorResponse "Already in a team"
// @Failure 409 {object} responses.ErrorResponse "Team name taken"
// @Security ApiKeyAuth
// @Router /teams [post]
func (tc *Controller) CreateTeam(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	t, err := tc.service.CreateTeam(c.Request.Context(), userID, CreateTeamInput{
		Name:      req.Name,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		HomeColor: req.HomeColor,
		AwayColor: req.AwayColor,
	})
	if err != nil {
		// A PartialFailure here means the team row exists but the creator was
		// not elevated; the manifest tells the client which step to retry.
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Team created successfully", toTeamResponse(t))
}

// GetTeam godoc
// @Summary Get a team by its ID
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse{data=TeamResponse} "Team details"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Router /teams/{team_id} [get]
func (tc *Controller) GetTeam(c *gin.Context) {
	teamID, err := common.ParseIDParam(c, "team_id")
	if err != nil {
		responses.BadRequest(c, "Invalid team ID")
		return
	}

	t, err := tc.service.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team retrieved successfully", toTeamResponse(t))
}

// ListTeams godoc
// @Summary List teams
// @Description Retrieves teams with optional name search and pagination.
// @Tags Teams
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param name query string false "Search by team name (partial match)"
// @Success 200 {object} responses.PaginatedResponse{data=[]TeamResponse} "List of teams"
// @Router /teams [get]
func (tc *Controller) ListTeams(c *gin.Context) {
	page, limit := common.PageParams(c)

	teams, total, err := tc.service.ListTeams(c.Request.Context(), page, limit, c.Query("name"))
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}

	out := make([]TeamResponse, 0, len(teams))
	for i := range teams {
		out = append(out, toTeamResponse(&teams[i]))
	}
	responses.SendPaginated(c, http.StatusOK, "Teams retrieved successfully", out, total, page, limit)
}

// GetTeamMembers godoc
// @Summary List a team's members
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Members"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Router /teams/{team_id}/members [get]
func (tc *Controller) GetTeamMembers(c *gin.Context) {
	teamID, err := common.ParseIDParam(c, "team_id")
	if err != nil {
		responses.BadRequest(c, "Invalid team ID")
		return
	}

	members, err := tc.service.GetTeamMembers(c.Request.Context(), teamID)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team members retrieved successfully", members)
}

// UpdateTeam godoc
// @Summary Update a team
// @Description Edits a team. Coordinator-only. A rename also rewrites cached name copies.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param team body UpdateTeamRequest true "Team Update Data"
// @Success 200 {object} responses.SuccessResponse{data=TeamResponse} "Team updated successfully"
// @Failure 403 {object} responses.ErrorResponse "Not a coordinator"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 409 {object} responses.ErrorResponse "Team name taken"
// @Security ApiKeyAuth
// @Router /teams/{team_id} [put]
func (tc *Controller) UpdateTeam(c *gin.Context) {
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

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationError(c, err)
		return
	}

	t, prop, err := tc.service.UpdateTeam(c.Request.Context(), userID, teamID, UpdateTeamInput{
		Name:      req.Name,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		HomeColor: req.HomeColor,
		AwayColor: req.AwayColor,
	})
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}

	data := gin.H{"team": toTeamResponse(t)}
	if prop != nil {
		data["name_propagation"] = prop
	}
	responses.SendSuccess(c, http.StatusOK, "Team updated successfully", data)
}

// DeleteTeam godoc
// @Summary Delete a team
// @Description Deletes a team and cascades over its games, requests and members. Coordinator-only.
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Team deleted successfully"
// @Failure 403 {object} responses.ErrorResponse "Not a coordinator"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 500 {object} responses.ErrorResponse "Cascade incomplete, failed steps listed"
// @Security ApiKeyAuth
// @Router /teams/{team_id} [delete]
func (tc *Controller) DeleteTeam(c *gin.Context) {
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

	if err := tc.service.DeleteTeam(c.Request.Context(), userID, teamID); err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team deleted successfully", nil)
}

// LeaveTeam godoc
// @Summary Leave a team
// @Description Detaches the authenticated user from their team. The last coordinator cannot leave.
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Left the team"
// @Failure 403 {object} responses.ErrorResponse "Last coordinator"
// @Failure 409 {object} responses.ErrorResponse "Not a member"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/leave [post]
func (tc *Controller) LeaveTeam(c *gin.Context) {
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

	if err := tc.service.LeaveTeam(c.Request.Context(), userID, teamID); err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Successfully left the team", nil)
}

// --- Coordinator request handlers ---

// RequestToJoin godoc
// @Summary Request to become coordinator of a team
// @Tags Coordinator Requests
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 201 {object} responses.SuccessResponse{data=CoordinatorRequest} "Request created"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 409 {object} responses.ErrorResponse "Already in a team or duplicate request"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/requests [post]
func (tc *Controller) RequestToJoin(c *gin.Context) {
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

	req, err := tc.service.RequestToJoin(c.Request.Context(), userID, teamID)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Request sent successfully", req)
}

// RespondToRequest godoc
// @Summary Approve or reject a coordinator request
// @Description Approval elevates the requester and invalidates all other pending requests for the team.
// @Tags Coordinator Requests
// @Produce json
// @Param request_id path uint true "Request ID"
// @Param action path string true "Action to perform: 'approve' or 'reject'"
// @Success 200 {object} responses.SuccessResponse "Request processed"
// @Failure 403 {object} responses.ErrorResponse "Not a coordinator"
// @Failure 404 {object} responses.ErrorResponse "Request not found"
// @Failure 422 {object} responses.ErrorResponse "Request already resolved"
// @Security ApiKeyAuth
// @Router /requests/{request_id}/{action} [put]
func (tc *Controller) RespondToRequest(c *gin.Context) {
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
		err = tc.service.ApproveRequest(c.Request.Context(), userID, requestID)
	case "reject":
		err = tc.service.RejectRequest(c.Request.Context(), userID, requestID)
	default:
		responses.BadRequest(c, "Invalid action. Must be 'approve' or 'reject'.")
		return
	}
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Request "+action+"d", nil)
}

// ListTeamRequests godoc
// @Summary List a team's coordinator requests
// @Tags Coordinator Requests
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param status query string false "Filter by status" default(pending)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]CoordinatorRequest} "Requests"
// @Failure 403 {object} responses.ErrorResponse "Not a coordinator"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/requests [get]
func (tc *Controller) ListTeamRequests(c *gin.Context) {
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

	page, limit := common.PageParams(c)
	status := strings.ToLower(c.DefaultQuery("status", StatusPending))

	requests, total, err := tc.service.ListTeamRequests(c.Request.Context(), userID, teamID, status, page, limit)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Requests retrieved successfully", requests, total, page, limit)
}

// ListMyRequests godoc
// @Summary List my coordinator requests
// @Tags Coordinator Requests
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]CoordinatorRequest} "Requests"
// @Security ApiKeyAuth
// @Router /users/me/requests [get]
func (tc *Controller) ListMyRequests(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	page, limit := common.PageParams(c)
	status := strings.ToLower(c.Query("status"))

	requests, total, err := tc.service.ListMyRequests(c.Request.Context(), userID, status, page, limit)
	if err != nil {
		responses.SendWorkflowError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Your requests retrieved successfully", requests, total, page, limit)
}
