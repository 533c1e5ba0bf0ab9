package team

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pitchup-app/pitchup/internal/apperr"
	"github.com/pitchup-app/pitchup/internal/user"
)

// Service implements the membership workflow: team lifecycle, coordinator
// requests and their approval state machine, and the team-deletion cascade.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService creates a membership Service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreateTeamInput carries the fields a creator supplies for a new team.
type CreateTeamInput struct {
	Name      string
	Location  string
	Latitude  *float64
	Longitude *float64
	HomeColor string
	AwayColor string
}

// UpdateTeamInput carries optional edits; nil fields are left untouched.
type UpdateTeamInput struct {
	Name      *string
	Location  *string
	Latitude  *float64
	Longitude *float64
	HomeColor *string
	AwayColor *string
}

// PropagationResult reports the outcome of a cached-name propagation pass.
type PropagationResult struct {
	RequestsUpdated     int64         `json:"requests_updated"`
	GameRequestsUpdated int64         `json:"game_requests_updated"`
	Steps               []apperr.Step `json:"-"`
}

// Failed reports whether any propagation step failed.
func (p *PropagationResult) Failed() bool {
	for _, s := range p.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// CreateTeam creates a team and elevates the creator to coordinator.
//
// The elevation is a second write after the team row exists. If it fails the
// team is left without a coordinator, so the error is a PartialFailure naming
// the orphaned team rather than a silent success or rollback pretence.
func (s *Service) CreateTeam(ctx context.Context, creatorID uint, in CreateTeamInput) (*Team, error) {
	creator, err := s.repo.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if creator == nil {
		return nil, apperr.NotFound("user %d not found", creatorID)
	}
	if creator.HasTeam() || creator.IsCoordinator {
		return nil, apperr.PermissionDenied("you already belong to a team")
	}

	existing, err := s.repo.GetTeamByName(ctx, in.Name)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("a team named %q already exists", in.Name)
	}

	t := &Team{
		Name:        in.Name,
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		HomeColor:   in.HomeColor,
		AwayColor:   in.AwayColor,
		Rating:      RatingDefault,
		CreatedByID: creatorID,
	}
	if err := s.repo.CreateTeam(ctx, t); err != nil {
		return nil, apperr.FromContext(err)
	}

	creator.TeamID = &t.ID
	creator.IsCoordinator = true
	if err := s.repo.UpdateUser(ctx, creator); err != nil {
		s.log.Error().Err(err).Uint("team_id", t.ID).Uint("user_id", creatorID).
			Msg("team created but creator elevation failed")
		return t, &apperr.PartialFailure{
			Op: "create team",
			Steps: []apperr.Step{
				{Name: "create team"},
				{Name: "elevate creator", Err: err},
			},
		}
	}
	return t, nil
}

// GetTeam returns a team by ID.
func (s *Service) GetTeam(ctx context.Context, teamID uint) (*Team, error) {
	t, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if t == nil {
		return nil, apperr.NotFound("team %d not found", teamID)
	}
	return t, nil
}

// ListTeams returns a page of teams, optionally filtered by name fragment.
func (s *Service) ListTeams(ctx context.Context, page, limit int, nameFilter string) ([]Team, int64, error) {
	teams, total, err := s.repo.GetAllTeams(ctx, page, limit, nameFilter)
	if err != nil {
		return nil, 0, apperr.FromContext(err)
	}
	return teams, total, nil
}

// GetTeamMembers lists the users currently attached to the team.
func (s *Service) GetTeamMembers(ctx context.Context, teamID uint) ([]user.User, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.repo.GetTeamMembers(ctx, teamID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	return members, nil
}

// UpdateTeam applies edits to a team. Only a coordinator of the team or its
// creator may edit. A rename triggers a best-effort propagation pass over the
// denormalized name copies; propagation failures are logged and reported in
// the result but never fail the canonical write.
func (s *Service) UpdateTeam(ctx context.Context, callerID, teamID uint, in UpdateTeamInput) (*Team, *PropagationResult, error) {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeManager(ctx, callerID, t); err != nil {
		return nil, nil, err
	}

	renamed := false
	if in.Name != nil && *in.Name != t.Name {
		existing, err := s.repo.GetTeamByName(ctx, *in.Name)
		if err != nil {
			return nil, nil, apperr.FromContext(err)
		}
		if existing != nil {
			return nil, nil, apperr.Conflict("a team named %q already exists", *in.Name)
		}
		t.Name = *in.Name
		renamed = true
	}
	if in.Location != nil {
		t.Location = *in.Location
	}
	if in.Latitude != nil {
		t.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		t.Longitude = in.Longitude
	}
	if in.HomeColor != nil {
		t.HomeColor = *in.HomeColor
	}
	if in.AwayColor != nil {
		t.AwayColor = *in.AwayColor
	}

	if err := s.repo.UpdateTeam(ctx, t); err != nil {
		return nil, nil, apperr.FromContext(err)
	}

	var prop *PropagationResult
	if renamed {
		prop = s.PropagateTeamName(ctx, t.ID, t.Name)
	}
	return t, prop, nil
}

// PropagateTeamName rewrites every cached copy of a team's name after a
// rename. Each step is best-effort and re-playable; failures are collected
// into the result, not raised.
func (s *Service) PropagateTeamName(ctx context.Context, teamID uint, name string) *PropagationResult {
	result := &PropagationResult{}

	n, err := s.repo.UpdateRequestTeamNames(ctx, teamID, name)
	result.RequestsUpdated = n
	result.Steps = append(result.Steps, apperr.Step{Name: "coordinator requests", Err: err})

	n, err = s.repo.UpdateGameRequestRequestingNames(ctx, teamID, name)
	result.GameRequestsUpdated += n
	result.Steps = append(result.Steps, apperr.Step{Name: "game requests (requesting side)", Err: err})

	n, err = s.repo.UpdateGameRequestHomeNames(ctx, teamID, name)
	result.GameRequestsUpdated += n
	result.Steps = append(result.Steps, apperr.Step{Name: "game requests (home side)", Err: err})

	if result.Failed() {
		s.log.Warn().Uint("team_id", teamID).Str("name", name).
			Msg("team name propagation incomplete, cached copies will be stale until retried")
	}
	return result
}

// RequestToJoin records a user's ask to become coordinator of a team.
func (s *Service) RequestToJoin(ctx context.Context, userID, teamID uint) (*CoordinatorRequest, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	if u.HasTeam() {
		return nil, apperr.Conflict("you already belong to a team")
	}

	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.GetPendingRequest(ctx, teamID, userID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if pending != nil {
		return nil, apperr.Conflict("you already have a pending request for %q", t.Name)
	}

	req := &CoordinatorRequest{
		UserID:    userID,
		UserEmail: u.Email,
		TeamID:    teamID,
		TeamName:  t.Name,
		Status:    StatusPending,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, apperr.FromContext(err)
	}
	return req, nil
}

// ApproveRequest elevates the requester to coordinator and invalidates every
// other pending request for the same team in one transaction, so a race
// between two approvals resolves first-committer-wins with the loser's
// request deleted rather than a second coordinator appearing.
//
// Re-approving a resolved request is an InvalidState error, never a silent
// re-apply.
func (s *Service) ApproveRequest(ctx context.Context, approverID, requestID uint) error {
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return apperr.FromContext(err)
	}
	if req == nil {
		return apperr.NotFound("request %d not found", requestID)
	}

	t, err := s.GetTeam(ctx, req.TeamID)
	if err != nil {
		return err
	}
	if err := s.authorizeManager(ctx, approverID, t); err != nil {
		return err
	}
	if req.Status != StatusPending {
		return apperr.InvalidState("request %d is already %s", requestID, req.Status)
	}

	requester, err := s.repo.GetUserByID(ctx, req.UserID)
	if err != nil {
		return apperr.FromContext(err)
	}
	if requester == nil {
		return apperr.NotFound("requesting user %d not found", req.UserID)
	}
	if requester.HasTeam() {
		return apperr.Conflict("user %d already joined a team", req.UserID)
	}

	// Elevation, approval, and sibling invalidation commit together. The
	// elevation is the invariant-establishing write and goes first so a
	// backend without multi-statement atomicity degrades safely.
	err = s.repo.WithTransaction(func(tx Repository) error {
		requester.TeamID = &t.ID
		requester.IsCoordinator = true
		if err := tx.UpdateUser(ctx, requester); err != nil {
			return err
		}

		req.Status = StatusApproved
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		if _, err := tx.DeletePendingRequestsForTeam(ctx, t.ID, req.ID); err != nil {
			return err
		}
		return nil
	})
	return apperr.FromContext(err)
}

// RejectRequest marks a pending request rejected. No user fields change.
func (s *Service) RejectRequest(ctx context.Context, approverID, requestID uint) error {
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return apperr.FromContext(err)
	}
	if req == nil {
		return apperr.NotFound("request %d not found", requestID)
	}

	t, err := s.GetTeam(ctx, req.TeamID)
	if err != nil {
		return err
	}
	if err := s.authorizeManager(ctx, approverID, t); err != nil {
		return err
	}
	if req.Status != StatusPending {
		return apperr.InvalidState("request %d is already %s", requestID, req.Status)
	}

	req.Status = StatusRejected
	return apperr.FromContext(s.repo.UpdateRequest(ctx, req))
}

// ListTeamRequests returns a team's coordinator requests, manager-only.
func (s *Service) ListTeamRequests(ctx context.Context, callerID, teamID uint, status string, page, limit int) ([]CoordinatorRequest, int64, error) {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.authorizeManager(ctx, callerID, t); err != nil {
		return nil, 0, err
	}
	requests, total, err := s.repo.GetRequestsByTeamID(ctx, teamID, status, page, limit)
	if err != nil {
		return nil, 0, apperr.FromContext(err)
	}
	return requests, total, nil
}

// ListMyRequests returns the caller's own coordinator requests.
func (s *Service) ListMyRequests(ctx context.Context, userID uint, status string, page, limit int) ([]CoordinatorRequest, int64, error) {
	requests, total, err := s.repo.GetRequestsByUserID(ctx, userID, status, page, limit)
	if err != nil {
		return nil, 0, apperr.FromContext(err)
	}
	return requests, total, nil
}

// LeaveTeam detaches the user from their team. A coordinator may not leave
// while they are the team's only coordinator.
func (s *Service) LeaveTeam(ctx context.Context, userID, teamID uint) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return apperr.FromContext(err)
	}
	if u == nil {
		return apperr.NotFound("user %d not found", userID)
	}
	if !u.HasTeam() || *u.TeamID != teamID {
		return apperr.Conflict("you are not a member of this team")
	}

	if u.IsCoordinator {
		count, err := s.repo.CountCoordinators(ctx, *u.TeamID)
		if err != nil {
			return apperr.FromContext(err)
		}
		if count <= 1 {
			return apperr.PermissionDenied("you are the last coordinator; promote another member or delete the team")
		}
	}

	u.TeamID = nil
	u.IsCoordinator = false
	return apperr.FromContext(s.repo.UpdateUser(ctx, u))
}

// DeleteTeam removes a team and everything referencing it: its games, its
// coordinator requests, game requests on either side, and the team
// affiliation of every member. The steps run as a best-effort ordered
// sequence of idempotent deletes; any failure surfaces as a PartialFailure
// whose manifest says exactly which steps must be replayed.
func (s *Service) DeleteTeam(ctx context.Context, callerID, teamID uint) error {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.authorizeManager(ctx, callerID, t); err != nil {
		return err
	}

	var steps []apperr.Step

	_, err = s.repo.DeleteGamesByTeamID(ctx, teamID)
	steps = append(steps, apperr.Step{Name: "delete games", Err: err})

	_, err = s.repo.DeleteRequestsByTeamID(ctx, teamID)
	steps = append(steps, apperr.Step{Name: "delete coordinator requests", Err: err})

	_, err = s.repo.DeleteGameRequestsByTeamID(ctx, teamID)
	steps = append(steps, apperr.Step{Name: "delete game requests", Err: err})

	_, err = s.repo.ClearTeamMembers(ctx, teamID)
	steps = append(steps, apperr.Step{Name: "clear members", Err: err})

	err = s.repo.DeleteTeamRow(ctx, teamID)
	steps = append(steps, apperr.Step{Name: "delete team", Err: err})

	partial := &apperr.PartialFailure{Op: "delete team", Steps: steps}
	if partial.Failed() {
		s.log.Error().Uint("team_id", teamID).Strs("failed_steps", partial.FailedSteps()).
			Msg("team deletion cascade incomplete")
		return partial
	}
	return nil
}

// authorizeManager allows a coordinator of the team or, before any
// coordinator exists, its creator.
func (s *Service) authorizeManager(ctx context.Context, callerID uint, t *Team) error {
	caller, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		return apperr.FromContext(err)
	}
	if caller == nil {
		return apperr.NotFound("user %d not found", callerID)
	}
	if caller.CoordinatorOf(t.ID) || t.CreatedByID == callerID {
		return nil
	}
	return apperr.PermissionDenied("only a coordinator of %q may do this", t.Name)
}
