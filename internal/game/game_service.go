package game

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/pitchup-app/pitchup/internal/apperr"
	"github.com/pitchup-app/pitchup/internal/team"
	"github.com/pitchup-app/pitchup/pkg/geo"
)

// Service implements the game workflow: availability scheduling by
// coordinators, nearby-game discovery, and the cross-team request/approval
// state machine.
type Service struct {
	repo Repository
	clock clockwork.Clock
	log   zerolog.Logger

	// includeUnlocated controls whether discovery passes through games whose
	// coordinates cannot be resolved (with a null distance) or drops them.
	includeUnlocated bool
}

// NewService creates a game Service.
func NewService(repo Repository, clock clockwork.Clock, log zerolog.Logger, includeUnlocated bool) *Service {
	return &Service{repo: repo, clock: clock, log: log, includeUnlocated: includeUnlocated}
}

// Recurrence describes how an availability template repeats. Count is the
// total number of occurrences materialized per anchor, the anchor included.
type Recurrence struct {
	Freq  RecurrenceFreq
	Count int
}

// ScheduleInput is a coordinator's availability template plus its anchors.
type ScheduleInput struct {
	Title       string
	Occurrences []time.Time
	Location    string
	Latitude    *float64
	Longitude   *float64
	KitColor    string
	Recurring   *Recurrence
}

// FailedOccurrence records one occurrence that could not be written.
type FailedOccurrence struct {
	StartAt time.Time `json:"start_at"`
	Reason  string    `json:"reason"`
}

// ScheduleResult reports per-occurrence success and failure; scheduling is
// never all-or-nothing.
type ScheduleResult struct {
	Created      []Game             `json:"created"`
	Failed       []FailedOccurrence `json:"failed"`
	CreatedCount int                `json:"created_count"`
	FailedCount  int                `json:"failed_count"`
}

// ScheduleAvailability creates one open Game per occurrence. The caller must
// be a coordinator of the team. Recurring templates are expanded here, once;
// every occurrence is its own row afterwards.
func (s *Service) ScheduleAvailability(ctx context.Context, callerID, teamID uint, in ScheduleInput) (*ScheduleResult, error) {
	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCoordinator(ctx, callerID, t); err != nil {
		return nil, err
	}
	if len(in.Occurrences) == 0 {
		return nil, apperr.Conflict("at least one occurrence is required")
	}
	if in.Recurring != nil {
		if in.Recurring.Freq != FreqWeekly && in.Recurring.Freq != FreqMonthly {
			return nil, apperr.Conflict("recurrence frequency must be weekly or monthly")
		}
		if in.Recurring.Count < 1 {
			return nil, apperr.Conflict("recurrence count must be at least 1")
		}
	}

	now := s.clock.Now()
	occurrences := expandOccurrences(in.Occurrences, in.Recurring)

	result := &ScheduleResult{}
	for _, at := range occurrences {
		if !at.After(now) {
			result.Failed = append(result.Failed, FailedOccurrence{StartAt: at, Reason: "occurrence is in the past"})
			continue
		}
		g := &Game{
			TeamID:      teamID,
			Title:       in.Title,
			Type:        TypeOpen,
			StartAt:     at,
			Location:    in.Location,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
			KitColor:    in.KitColor,
			CreatedByID: callerID,
		}
		if err := s.repo.CreateGame(ctx, g); err != nil {
			s.log.Warn().Err(err).Uint("team_id", teamID).Time("start_at", at).
				Msg("availability occurrence failed to write")
			result.Failed = append(result.Failed, FailedOccurrence{StartAt: at, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, *g)
	}
	result.CreatedCount = len(result.Created)
	result.FailedCount = len(result.Failed)
	return result, nil
}

// expandOccurrences materializes recurring anchors into concrete timestamps.
func expandOccurrences(anchors []time.Time, rec *Recurrence) []time.Time {
	if rec == nil {
		return anchors
	}
	var out []time.Time
	for _, anchor := range anchors {
		at := anchor
		for i := 0; i < rec.Count; i++ {
			out = append(out, at)
			switch rec.Freq {
			case FreqWeekly:
				at = at.AddDate(0, 0, 7)
			case FreqMonthly:
				at = at.AddDate(0, 1, 0)
			}
		}
	}
	return out
}

// NearbyQuery are the discovery filters.
type NearbyQuery struct {
	Latitude    float64
	Longitude   float64
	RadiusMiles float64
	RatingMin   *int
	RatingMax   *int
	From        *time.Time
	To          *time.Time
}

// EnrichedGame is a game joined with its team's public data and the distance
// from the search origin. DistanceMiles is nil for unlocated games when the
// include policy is active.
type EnrichedGame struct {
	Game          Game     `json:"game"`
	TeamName      string   `json:"team_name"`
	TeamRating    int      `json:"team_rating"`
	DistanceMiles *float64 `json:"distance_miles"`
}

// FindNearbyGames scans open games, enriches each with its team, filters by
// distance, team display rating and date, and returns results nearest-first.
// Games without resolvable coordinates follow the configured policy: dropped
// by default, or appended after the located results with a null distance.
func (s *Service) FindNearbyGames(ctx context.Context, q NearbyQuery) ([]EnrichedGame, error) {
	if q.RadiusMiles <= 0 {
		return nil, apperr.Conflict("radius must be positive")
	}

	games, err := s.repo.ListGames(ctx)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	teamsByID := make(map[uint]*team.Team, len(teams))
	for i := range teams {
		teamsByID[teams[i].ID] = &teams[i]
	}

	var located []EnrichedGame
	var unlocated []EnrichedGame
	for i := range games {
		g := &games[i]
		if g.Type != TypeOpen {
			continue
		}
		t, ok := teamsByID[g.TeamID]
		if !ok {
			continue
		}

		rating := t.DisplayRating()
		if q.RatingMin != nil && rating < *q.RatingMin {
			continue
		}
		if q.RatingMax != nil && rating > *q.RatingMax {
			continue
		}
		if q.From != nil && g.StartAt.Before(*q.From) {
			continue
		}
		if q.To != nil && g.StartAt.After(*q.To) {
			continue
		}

		lat, lng, ok := resolveCoordinates(g, t)
		if !ok {
			if s.includeUnlocated {
				unlocated = append(unlocated, EnrichedGame{Game: *g, TeamName: t.Name, TeamRating: rating})
			}
			continue
		}

		miles := geo.HaversineMiles(q.Latitude, q.Longitude, lat, lng)
		if miles > q.RadiusMiles {
			continue
		}
		d := miles
		located = append(located, EnrichedGame{Game: *g, TeamName: t.Name, TeamRating: rating, DistanceMiles: &d})
	}

	sort.Slice(located, func(i, j int) bool {
		return *located[i].DistanceMiles < *located[j].DistanceMiles
	})
	return append(located, unlocated...), nil
}

// resolveCoordinates prefers the game's own location, then its team's.
func resolveCoordinates(g *Game, t *team.Team) (float64, float64, bool) {
	if g.Latitude != nil && g.Longitude != nil {
		return *g.Latitude, *g.Longitude, true
	}
	if t.Latitude != nil && t.Longitude != nil {
		return *t.Latitude, *t.Longitude, true
	}
	return 0, 0, false
}

// GetGame returns a game by ID.
func (s *Service) GetGame(ctx context.Context, gameID uint) (*Game, error) {
	g, err := s.repo.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if g == nil {
		return nil, apperr.NotFound("game %d not found", gameID)
	}
	return g, nil
}

// ListTeamGames returns a page of a team's games.
func (s *Service) ListTeamGames(ctx context.Context, teamID uint, page, limit int) ([]Game, int64, error) {
	if _, err := s.getTeam(ctx, teamID); err != nil {
		return nil, 0, err
	}
	games, total, err := s.repo.GetGamesByTeamID(ctx, teamID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromContext(err)
	}
	return games, total, nil
}

// DeleteGame removes a game. Only its creator or a coordinator of its team may.
func (s *Service) DeleteGame(ctx context.Context, callerID, gameID uint) error {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}

	caller, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		return apperr.FromContext(err)
	}
	if caller == nil {
		return apperr.NotFound("user %d not found", callerID)
	}
	if g.CreatedByID != callerID && !caller.CoordinatorOf(g.TeamID) {
		return apperr.PermissionDenied("only the game's creator or a team coordinator may delete it")
	}
	return apperr.FromContext(s.repo.DeleteGame(ctx, gameID))
}

// RequestGame records the caller's team asking to play an open slot. Both
// team names are snapshotted so the request renders without extra reads.
func (s *Service) RequestGame(ctx context.Context, callerID, gameID uint) (*GameRequest, error) {
	caller, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if caller == nil {
		return nil, apperr.NotFound("user %d not found", callerID)
	}
	if !caller.HasTeam() {
		return nil, apperr.PermissionDenied("join a team before requesting games")
	}
	requestingTeamID := *caller.TeamID

	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Type != TypeOpen {
		return nil, apperr.Conflict("game %d is not an open availability slot", gameID)
	}
	if g.TeamID == requestingTeamID {
		return nil, apperr.Conflict("you cannot request your own team's slot")
	}

	homeTeam, err := s.getTeam(ctx, g.TeamID)
	if err != nil {
		return nil, err
	}
	requestingTeam, err := s.getTeam(ctx, requestingTeamID)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.GetPendingGameRequest(ctx, gameID, requestingTeamID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if pending != nil {
		return nil, apperr.Conflict("your team already has a pending request for this game")
	}

	req := &GameRequest{
		GameID:             gameID,
		RequestingTeamID:   requestingTeamID,
		RequestingTeamName: requestingTeam.Name,
		HomeTeamID:         homeTeam.ID,
		HomeTeamName:       homeTeam.Name,
		Title:              g.Title,
		StartAt:            g.StartAt,
		Status:             StatusPending,
		RequestedByID:      callerID,
	}
	if err := s.repo.CreateGameRequest(ctx, req); err != nil {
		return nil, apperr.FromContext(err)
	}
	return req, nil
}

// ApproveGameRequest materializes a scheduled game from the request and
// resolves the request, in one transaction. The scheduled game inherits the
// home team's location.
func (s *Service) ApproveGameRequest(ctx context.Context, callerID, requestID uint) (*Game, error) {
	req, err := s.getGameRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	homeTeam, err := s.getTeam(ctx, req.HomeTeamID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCoordinator(ctx, callerID, homeTeam); err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, apperr.InvalidState("game request %d is already %s", requestID, req.Status)
	}

	scheduled := &Game{
		TeamID:      homeTeam.ID,
		Title:       req.Title,
		Type:        TypeHome,
		StartAt:     req.StartAt,
		Location:    homeTeam.Location,
		Latitude:    homeTeam.Latitude,
		Longitude:   homeTeam.Longitude,
		CreatedByID: callerID,
	}
	err = s.repo.WithTransaction(func(tx Repository) error {
		if err := tx.CreateGame(ctx, scheduled); err != nil {
			return err
		}
		req.Status = StatusApproved
		return tx.UpdateGameRequest(ctx, req)
	})
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	return scheduled, nil
}

// RejectGameRequest marks a pending game request rejected.
func (s *Service) RejectGameRequest(ctx context.Context, callerID, requestID uint) error {
	req, err := s.getGameRequest(ctx, requestID)
	if err != nil {
		return err
	}

	homeTeam, err := s.getTeam(ctx, req.HomeTeamID)
	if err != nil {
		return err
	}
	if err := s.authorizeCoordinator(ctx, callerID, homeTeam); err != nil {
		return err
	}
	if req.Status != StatusPending {
		return apperr.InvalidState("game request %d is already %s", requestID, req.Status)
	}

	req.Status = StatusRejected
	return apperr.FromContext(s.repo.UpdateGameRequest(ctx, req))
}

// ListGameRequests returns the caller's team's game requests, incoming
// (their open slots) or outgoing (slots they asked for).
func (s *Service) ListGameRequests(ctx context.Context, callerID uint, direction, status string, page, limit int) ([]GameRequest, int64, error) {
	caller, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, 0, apperr.FromContext(err)
	}
	if caller == nil {
		return nil, 0, apperr.NotFound("user %d not found", callerID)
	}
	if !caller.HasTeam() {
		return nil, 0, apperr.PermissionDenied("join a team to see game requests")
	}

	switch direction {
	case "incoming":
		requests, total, err := s.repo.GetGameRequestsByHomeTeam(ctx, *caller.TeamID, status, page, limit)
		return requests, total, apperr.FromContext(err)
	case "outgoing":
		requests, total, err := s.repo.GetGameRequestsByRequestingTeam(ctx, *caller.TeamID, status, page, limit)
		return requests, total, apperr.FromContext(err)
	default:
		return nil, 0, apperr.Conflict("direction must be 'incoming' or 'outgoing'")
	}
}

// --- helpers ---

func (s *Service) getTeam(ctx context.Context, teamID uint) (*team.Team, error) {
	t, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if t == nil {
		return nil, apperr.NotFound("team %d not found", teamID)
	}
	return t, nil
}

func (s *Service) getGameRequest(ctx context.Context, requestID uint) (*GameRequest, error) {
	req, err := s.repo.GetGameRequestByID(ctx, requestID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if req == nil {
		return nil, apperr.NotFound("game request %d not found", requestID)
	}
	return req, nil
}

// authorizeCoordinator allows a coordinator of the team or, before any
// coordinator exists, its creator. Same predicate as the membership workflow.
func (s *Service) authorizeCoordinator(ctx context.Context, callerID uint, t *team.Team) error {
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
