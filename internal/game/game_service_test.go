package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/pitchup-app/pitchup/internal/apperr"
	"github.com/pitchup-app/pitchup/internal/team"
	"github.com/pitchup-app/pitchup/internal/user"
)

// One degree of latitude under the haversine radius used by pkg/geo.
const milesPerDegreeLat = 69.0933

type fakeGameRepo struct {
	games        map[uint]*Game
	teams        map[uint]*team.Team
	users        map[uint]*user.User
	gameRequests map[uint]*GameRequest

	nextGameID    uint
	nextRequestID uint

	failOn map[string]error
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		games:        make(map[uint]*Game),
		teams:        make(map[uint]*team.Team),
		users:        make(map[uint]*user.User),
		gameRequests: make(map[uint]*GameRequest),
		failOn:       make(map[string]error),
	}
}

func (f *fakeGameRepo) fail(method string) error {
	if err, ok := f.failOn[method]; ok {
		return err
	}
	return nil
}

func (f *fakeGameRepo) addTeam(name string, lat, lng *float64, rating int) *team.Team {
	t := &team.Team{Name: name, Latitude: lat, Longitude: lng, Rating: rating}
	t.ID = uint(len(f.teams) + 1)
	f.teams[t.ID] = t
	return t
}

func (f *fakeGameRepo) addUser(id uint, teamID *uint, coordinator bool) *user.User {
	u := &user.User{Name: fmt.Sprintf("user-%d", id), TeamID: teamID, IsCoordinator: coordinator}
	u.ID = id
	f.users[id] = u
	return u
}

func (f *fakeGameRepo) addGame(teamID uint, gameType GameType, startAt time.Time, lat, lng *float64) *Game {
	f.nextGameID++
	g := &Game{TeamID: teamID, Title: fmt.Sprintf("game-%d", f.nextGameID), Type: gameType, StartAt: startAt, Latitude: lat, Longitude: lng}
	g.ID = f.nextGameID
	f.games[g.ID] = g
	return g
}

func (f *fakeGameRepo) CreateGame(_ context.Context, g *Game) error {
	if err := f.fail("CreateGame"); err != nil {
		return err
	}
	f.nextGameID++
	g.ID = f.nextGameID
	stored := *g
	f.games[g.ID] = &stored
	return nil
}

func (f *fakeGameRepo) GetGameByID(_ context.Context, id uint) (*Game, error) {
	return f.games[id], nil
}

func (f *fakeGameRepo) GetGamesByTeamID(_ context.Context, teamID uint, _, _ int) ([]Game, int64, error) {
	var out []Game
	for _, g := range f.games {
		if g.TeamID == teamID {
			out = append(out, *g)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeGameRepo) ListGames(_ context.Context) ([]Game, error) {
	var out []Game
	for _, g := range f.games {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGameRepo) DeleteGame(_ context.Context, id uint) error {
	if err := f.fail("DeleteGame"); err != nil {
		return err
	}
	delete(f.games, id)
	return nil
}

func (f *fakeGameRepo) GetTeamByID(_ context.Context, id uint) (*team.Team, error) {
	return f.teams[id], nil
}

func (f *fakeGameRepo) ListTeams(_ context.Context) ([]team.Team, error) {
	var out []team.Team
	for _, t := range f.teams {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeGameRepo) GetUserByID(_ context.Context, id uint) (*user.User, error) {
	return f.users[id], nil
}

func (f *fakeGameRepo) CreateGameRequest(_ context.Context, r *GameRequest) error {
	if err := f.fail("CreateGameRequest"); err != nil {
		return err
	}
	f.nextRequestID++
	r.ID = f.nextRequestID
	f.gameRequests[r.ID] = r
	return nil
}

func (f *fakeGameRepo) GetGameRequestByID(_ context.Context, id uint) (*GameRequest, error) {
	return f.gameRequests[id], nil
}

func (f *fakeGameRepo) GetPendingGameRequest(_ context.Context, gameID, requestingTeamID uint) (*GameRequest, error) {
	for _, r := range f.gameRequests {
		if r.GameID == gameID && r.RequestingTeamID == requestingTeamID && r.Status == StatusPending {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeGameRepo) GetGameRequestsByHomeTeam(_ context.Context, teamID uint, status string, _, _ int) ([]GameRequest, int64, error) {
	var out []GameRequest
	for _, r := range f.gameRequests {
		if r.HomeTeamID == teamID && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeGameRepo) GetGameRequestsByRequestingTeam(_ context.Context, teamID uint, status string, _, _ int) ([]GameRequest, int64, error) {
	var out []GameRequest
	for _, r := range f.gameRequests {
		if r.RequestingTeamID == teamID && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeGameRepo) UpdateGameRequest(_ context.Context, r *GameRequest) error {
	if err := f.fail("UpdateGameRequest"); err != nil {
		return err
	}
	f.gameRequests[r.ID] = r
	return nil
}

func (f *fakeGameRepo) WithTransaction(txFunc func(Repository) error) error {
	return txFunc(f)
}

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestGameService(repo *fakeGameRepo) *Service {
	return NewService(repo, clockwork.NewFakeClockAt(testNow), zerolog.Nop(), false)
}

func ptr(v float64) *float64 { return &v }

func TestScheduleAvailabilityWeeklyExpansion(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Sunday Rovers", nil, nil, team.RatingDefault)
	repo.addUser(1, &tm.ID, true)
	svc := newTestGameService(repo)

	anchor := testNow.Add(48 * time.Hour)
	result, err := svc.ScheduleAvailability(context.Background(), 1, tm.ID, ScheduleInput{
		Title:       "Open kickabout",
		Occurrences: []time.Time{anchor},
		Recurring:   &Recurrence{Freq: FreqWeekly, Count: 4},
	})
	if err != nil {
		t.Fatalf("ScheduleAvailability: %v", err)
	}
	if result.CreatedCount != 4 || result.FailedCount != 0 {
		t.Fatalf("counts = (%d, %d), want (4, 0)", result.CreatedCount, result.FailedCount)
	}
	for i, g := range result.Created {
		want := anchor.AddDate(0, 0, 7*i)
		if !g.StartAt.Equal(want) {
			t.Errorf("occurrence %d starts %v, want %v", i, g.StartAt, want)
		}
		if g.Type != TypeOpen {
			t.Errorf("occurrence %d type = %s, want open", i, g.Type)
		}
	}
}

func TestScheduleAvailabilityMonthlyExpansion(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Sunday Rovers", nil, nil, team.RatingDefault)
	repo.addUser(1, &tm.ID, true)
	svc := newTestGameService(repo)

	anchor := testNow.AddDate(0, 0, 3)
	result, err := svc.ScheduleAvailability(context.Background(), 1, tm.ID, ScheduleInput{
		Title:       "Monthly derby slot",
		Occurrences: []time.Time{anchor},
		Recurring:   &Recurrence{Freq: FreqMonthly, Count: 3},
	})
	if err != nil {
		t.Fatalf("ScheduleAvailability: %v", err)
	}
	if result.CreatedCount != 3 {
		t.Fatalf("created = %d, want 3", result.CreatedCount)
	}
	if last := result.Created[2].StartAt; !last.Equal(anchor.AddDate(0, 2, 0)) {
		t.Errorf("third occurrence = %v, want %v", last, anchor.AddDate(0, 2, 0))
	}
}

func TestScheduleAvailabilitySkipsPastOccurrences(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Sunday Rovers", nil, nil, team.RatingDefault)
	repo.addUser(1, &tm.ID, true)
	svc := newTestGameService(repo)

	result, err := svc.ScheduleAvailability(context.Background(), 1, tm.ID, ScheduleInput{
		Title:       "Open kickabout",
		Occurrences: []time.Time{testNow.Add(-time.Hour), testNow.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("ScheduleAvailability: %v", err)
	}
	if result.CreatedCount != 1 || result.FailedCount != 1 {
		t.Fatalf("counts = (%d, %d), want (1, 1)", result.CreatedCount, result.FailedCount)
	}
	if result.Failed[0].Reason != "occurrence is in the past" {
		t.Errorf("failure reason = %q", result.Failed[0].Reason)
	}
}

func TestScheduleAvailabilityWriteFailureIsPerOccurrence(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Sunday Rovers", nil, nil, team.RatingDefault)
	repo.addUser(1, &tm.ID, true)
	repo.failOn["CreateGame"] = errors.New("disk full")
	svc := newTestGameService(repo)

	result, err := svc.ScheduleAvailability(context.Background(), 1, tm.ID, ScheduleInput{
		Title:       "Open kickabout",
		Occurrences: []time.Time{testNow.Add(time.Hour), testNow.Add(2 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("ScheduleAvailability should not fail outright: %v", err)
	}
	if result.CreatedCount != 0 || result.FailedCount != 2 {
		t.Fatalf("counts = (%d, %d), want (0, 2)", result.CreatedCount, result.FailedCount)
	}
}

func TestScheduleAvailabilityRequiresCoordinator(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Sunday Rovers", nil, nil, team.RatingDefault)
	repo.addUser(2, &tm.ID, false)
	svc := newTestGameService(repo)

	_, err := svc.ScheduleAvailability(context.Background(), 2, tm.ID, ScheduleInput{
		Title:       "Open kickabout",
		Occurrences: []time.Time{testNow.Add(time.Hour)},
	})
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want PermissionDenied", err)
	}
}

func nearbyFixture() (*fakeGameRepo, float64, float64) {
	repo := newFakeGameRepo()
	originLat, originLng := 40.0, -75.0
	future := testNow.Add(24 * time.Hour)

	near := repo.addTeam("Near FC", ptr(originLat+2/milesPerDegreeLat), ptr(originLng), 1500)
	mid := repo.addTeam("Mid FC", ptr(originLat+8/milesPerDegreeLat), ptr(originLng), 2000)
	far := repo.addTeam("Far FC", ptr(originLat+15/milesPerDegreeLat), ptr(originLng), 1500)
	unlocated := repo.addTeam("Nowhere FC", nil, nil, 1500)

	repo.addGame(near.ID, TypeOpen, future, nil, nil)
	repo.addGame(mid.ID, TypeOpen, future, nil, nil)
	repo.addGame(far.ID, TypeOpen, future, nil, nil)
	repo.addGame(unlocated.ID, TypeOpen, future, nil, nil)
	return repo, originLat, originLng
}

func TestFindNearbyGamesRadiusAndOrder(t *testing.T) {
	repo, lat, lng := nearbyFixture()
	svc := newTestGameService(repo)

	got, err := svc.FindNearbyGames(context.Background(), NearbyQuery{Latitude: lat, Longitude: lng, RadiusMiles: 10})
	if err != nil {
		t.Fatalf("FindNearbyGames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2 inside the 10 mile radius", len(got))
	}
	if got[0].TeamName != "Near FC" || got[1].TeamName != "Mid FC" {
		t.Errorf("order = [%s, %s], want nearest first", got[0].TeamName, got[1].TeamName)
	}
	if d := *got[0].DistanceMiles; math.Abs(d-2) > 0.1 {
		t.Errorf("nearest distance = %f, want ~2", d)
	}
	if d := *got[1].DistanceMiles; math.Abs(d-8) > 0.1 {
		t.Errorf("second distance = %f, want ~8", d)
	}
}

func TestFindNearbyGamesRatingBand(t *testing.T) {
	repo, lat, lng := nearbyFixture()
	svc := newTestGameService(repo)

	minRating, maxRating := 1800, 2200
	got, err := svc.FindNearbyGames(context.Background(), NearbyQuery{
		Latitude: lat, Longitude: lng, RadiusMiles: 10,
		RatingMin: &minRating, RatingMax: &maxRating,
	})
	if err != nil {
		t.Fatalf("FindNearbyGames: %v", err)
	}
	if len(got) != 1 || got[0].TeamName != "Mid FC" {
		t.Fatalf("results = %v, want just Mid FC", got)
	}
}

func TestFindNearbyGamesUnlocatedPolicy(t *testing.T) {
	repo, lat, lng := nearbyFixture()

	// Default policy drops games with no resolvable coordinates.
	excludeSvc := newTestGameService(repo)
	got, err := excludeSvc.FindNearbyGames(context.Background(), NearbyQuery{Latitude: lat, Longitude: lng, RadiusMiles: 10})
	if err != nil {
		t.Fatalf("FindNearbyGames: %v", err)
	}
	for _, g := range got {
		if g.TeamName == "Nowhere FC" {
			t.Fatal("exclude policy should drop the unlocated game")
		}
	}

	// Include policy appends them after the located results, distance nil.
	includeSvc := NewService(repo, clockwork.NewFakeClockAt(testNow), zerolog.Nop(), true)
	got, err = includeSvc.FindNearbyGames(context.Background(), NearbyQuery{Latitude: lat, Longitude: lng, RadiusMiles: 10})
	if err != nil {
		t.Fatalf("FindNearbyGames: %v", err)
	}
	last := got[len(got)-1]
	if last.TeamName != "Nowhere FC" || last.DistanceMiles != nil {
		t.Errorf("include policy should append unlocated games last with nil distance, got %+v", last)
	}
}

func TestFindNearbyGamesUsesTeamCoordinatesAsFallback(t *testing.T) {
	repo := newFakeGameRepo()
	originLat, originLng := 40.0, -75.0
	tm := repo.addTeam("Home FC", ptr(originLat), ptr(originLng), 1500)
	// Game's own pin 5 miles out overrides the team's pin at the origin.
	repo.addGame(tm.ID, TypeOpen, testNow.Add(time.Hour), ptr(originLat+5/milesPerDegreeLat), ptr(originLng))
	repo.addGame(tm.ID, TypeOpen, testNow.Add(time.Hour), nil, nil)
	svc := newTestGameService(repo)

	got, err := svc.FindNearbyGames(context.Background(), NearbyQuery{Latitude: originLat, Longitude: originLng, RadiusMiles: 10})
	if err != nil {
		t.Fatalf("FindNearbyGames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if d := *got[0].DistanceMiles; d > 0.01 {
		t.Errorf("team-located game distance = %f, want ~0", d)
	}
	if d := *got[1].DistanceMiles; math.Abs(d-5) > 0.1 {
		t.Errorf("game-located distance = %f, want ~5", d)
	}
}

func TestFindNearbyGamesDateWindow(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Home FC", ptr(40.0), ptr(-75.0), 1500)
	repo.addGame(tm.ID, TypeOpen, testNow.AddDate(0, 0, 1), nil, nil)
	repo.addGame(tm.ID, TypeOpen, testNow.AddDate(0, 0, 20), nil, nil)
	svc := newTestGameService(repo)

	from := testNow
	to := testNow.AddDate(0, 0, 7)
	got, err := svc.FindNearbyGames(context.Background(), NearbyQuery{
		Latitude: 40.0, Longitude: -75.0, RadiusMiles: 10, From: &from, To: &to,
	})
	if err != nil {
		t.Fatalf("FindNearbyGames: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("results = %d, want only the game inside the window", len(got))
	}
}

func requestFixture() (*fakeGameRepo, *team.Team, *team.Team, *Game) {
	repo := newFakeGameRepo()
	home := repo.addTeam("Home FC", ptr(40.0), ptr(-75.0), 1500)
	visiting := repo.addTeam("Visiting FC", nil, nil, 1500)
	repo.addUser(1, &home.ID, true)     // home coordinator
	repo.addUser(2, &visiting.ID, true) // visiting coordinator
	slot := repo.addGame(home.ID, TypeOpen, testNow.Add(48*time.Hour), nil, nil)
	return repo, home, visiting, slot
}

func TestRequestGameSnapshotsNames(t *testing.T) {
	repo, _, _, slot := requestFixture()
	svc := newTestGameService(repo)

	req, err := svc.RequestGame(context.Background(), 2, slot.ID)
	if err != nil {
		t.Fatalf("RequestGame: %v", err)
	}
	if req.RequestingTeamName != "Visiting FC" || req.HomeTeamName != "Home FC" {
		t.Errorf("snapshots = (%q, %q)", req.RequestingTeamName, req.HomeTeamName)
	}
	if req.Status != StatusPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
}

func TestRequestGameRequiresTeam(t *testing.T) {
	repo, _, _, slot := requestFixture()
	repo.addUser(9, nil, false)
	svc := newTestGameService(repo)

	_, err := svc.RequestGame(context.Background(), 9, slot.ID)
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want PermissionDenied", err)
	}
}

func TestRequestGameOwnSlot(t *testing.T) {
	repo, _, _, slot := requestFixture()
	svc := newTestGameService(repo)

	_, err := svc.RequestGame(context.Background(), 1, slot.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
}

func TestRequestGameDuplicatePending(t *testing.T) {
	repo, _, _, slot := requestFixture()
	svc := newTestGameService(repo)

	if _, err := svc.RequestGame(context.Background(), 2, slot.ID); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := svc.RequestGame(context.Background(), 2, slot.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate err = %v, want Conflict", err)
	}
}

func TestRequestGameOnlyOpenSlots(t *testing.T) {
	repo, home, _, _ := requestFixture()
	scheduled := repo.addGame(home.ID, TypeHome, testNow.Add(48*time.Hour), nil, nil)
	svc := newTestGameService(repo)

	_, err := svc.RequestGame(context.Background(), 2, scheduled.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
}

func TestApproveGameRequestSchedulesHomeGame(t *testing.T) {
	repo, home, _, slot := requestFixture()
	svc := newTestGameService(repo)

	req, err := svc.RequestGame(context.Background(), 2, slot.ID)
	if err != nil {
		t.Fatalf("RequestGame: %v", err)
	}

	scheduled, err := svc.ApproveGameRequest(context.Background(), 1, req.ID)
	if err != nil {
		t.Fatalf("ApproveGameRequest: %v", err)
	}
	if scheduled.Type != TypeHome || scheduled.TeamID != home.ID {
		t.Errorf("scheduled game = type %s team %d, want home game for team %d", scheduled.Type, scheduled.TeamID, home.ID)
	}
	if scheduled.Latitude == nil || *scheduled.Latitude != *home.Latitude {
		t.Error("scheduled game should inherit the home team's location")
	}
	if !scheduled.StartAt.Equal(slot.StartAt) {
		t.Errorf("start = %v, want the slot's %v", scheduled.StartAt, slot.StartAt)
	}
	if repo.gameRequests[req.ID].Status != StatusApproved {
		t.Errorf("request status = %s, want approved", repo.gameRequests[req.ID].Status)
	}
}

func TestApproveGameRequestResolvedIsInvalidState(t *testing.T) {
	repo, _, _, slot := requestFixture()
	svc := newTestGameService(repo)

	req, _ := svc.RequestGame(context.Background(), 2, slot.ID)
	if _, err := svc.ApproveGameRequest(context.Background(), 1, req.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := svc.ApproveGameRequest(context.Background(), 1, req.ID)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second approve err = %v, want InvalidState", err)
	}
}

func TestApproveGameRequestRequiresHomeCoordinator(t *testing.T) {
	repo, _, _, slot := requestFixture()
	svc := newTestGameService(repo)

	req, _ := svc.RequestGame(context.Background(), 2, slot.ID)
	// The visiting coordinator cannot approve their own request.
	_, err := svc.ApproveGameRequest(context.Background(), 2, req.ID)
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("err = %v, want PermissionDenied", err)
	}
}

func TestRejectGameRequestTerminal(t *testing.T) {
	repo, _, _, slot := requestFixture()
	svc := newTestGameService(repo)

	req, _ := svc.RequestGame(context.Background(), 2, slot.ID)
	if err := svc.RejectGameRequest(context.Background(), 1, req.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	err := svc.RejectGameRequest(context.Background(), 1, req.ID)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second reject err = %v, want InvalidState", err)
	}
}

func TestDeleteGameAuthorization(t *testing.T) {
	repo := newFakeGameRepo()
	tm := repo.addTeam("Home FC", nil, nil, 1500)
	repo.addUser(1, &tm.ID, true)  // coordinator
	repo.addUser(2, &tm.ID, false) // creator, plain member
	repo.addUser(3, nil, false)    // stranger
	svc := newTestGameService(repo)

	g := repo.addGame(tm.ID, TypeOpen, testNow.Add(time.Hour), nil, nil)
	g.CreatedByID = 2

	if err := svc.DeleteGame(context.Background(), 3, g.ID); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("stranger err = %v, want PermissionDenied", err)
	}
	if err := svc.DeleteGame(context.Background(), 2, g.ID); err != nil {
		t.Fatalf("creator delete: %v", err)
	}

	g2 := repo.addGame(tm.ID, TypeOpen, testNow.Add(time.Hour), nil, nil)
	g2.CreatedByID = 2
	if err := svc.DeleteGame(context.Background(), 1, g2.ID); err != nil {
		t.Fatalf("coordinator delete: %v", err)
	}
}

func TestListGameRequestsDirections(t *testing.T) {
	repo, home, visiting, slot := requestFixture()
	svc := newTestGameService(repo)

	if _, err := svc.RequestGame(context.Background(), 2, slot.ID); err != nil {
		t.Fatalf("RequestGame: %v", err)
	}

	incoming, total, err := svc.ListGameRequests(context.Background(), 1, "incoming", "", 1, 10)
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if total != 1 || incoming[0].HomeTeamID != home.ID {
		t.Errorf("incoming = %d requests, want the home team's 1", total)
	}

	outgoing, total, err := svc.ListGameRequests(context.Background(), 2, "outgoing", "", 1, 10)
	if err != nil {
		t.Fatalf("outgoing: %v", err)
	}
	if total != 1 || outgoing[0].RequestingTeamID != visiting.ID {
		t.Errorf("outgoing = %d requests, want the visiting team's 1", total)
	}

	if _, _, err := svc.ListGameRequests(context.Background(), 1, "sideways", "", 1, 10); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("bad direction err = %v, want Conflict", err)
	}
}
