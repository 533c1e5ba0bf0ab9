package game

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pitchup-app/pitchup/internal/team"
	"github.com/pitchup-app/pitchup/internal/user"
)

// Repository defines the storage operations the game workflow needs. Teams
// and users are read-only here; the membership workflow owns their writes.
type Repository interface {
	// Game operations
	CreateGame(ctx context.Context, g *Game) error
	GetGameByID(ctx context.Context, id uint) (*Game, error)
	GetGamesByTeamID(ctx context.Context, teamID uint, page, limit int) ([]Game, int64, error)
	ListGames(ctx context.Context) ([]Game, error)
	DeleteGame(ctx context.Context, id uint) error

	// Lookups owned by other workflows
	GetTeamByID(ctx context.Context, id uint) (*team.Team, error)
	ListTeams(ctx context.Context) ([]team.Team, error)
	GetUserByID(ctx context.Context, id uint) (*user.User, error)

	// GameRequest operations
	CreateGameRequest(ctx context.Context, r *GameRequest) error
	GetGameRequestByID(ctx context.Context, id uint) (*GameRequest, error)
	GetPendingGameRequest(ctx context.Context, gameID, requestingTeamID uint) (*GameRequest, error)
	GetGameRequestsByHomeTeam(ctx context.Context, teamID uint, status string, page, limit int) ([]GameRequest, int64, error)
	GetGameRequestsByRequestingTeam(ctx context.Context, teamID uint, status string, page, limit int) ([]GameRequest, int64, error)
	UpdateGameRequest(ctx context.Context, r *GameRequest) error

	WithTransaction(txFunc func(Repository) error) error
}

type gameRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &gameRepository{db: db}
}

// --- Game operations ---

func (r *gameRepository) CreateGame(ctx context.Context, g *Game) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *gameRepository) GetGameByID(ctx context.Context, id uint) (*Game, error) {
	var g Game
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) GetGamesByTeamID(ctx context.Context, teamID uint, page, limit int) ([]Game, int64, error) {
	var games []Game
	var total int64
	query := r.db.WithContext(ctx).Model(&Game{}).Where("team_id = ?", teamID)
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("start_at asc").Find(&games).Error; err != nil {
		return nil, 0, err
	}
	return games, total, nil
}

func (r *gameRepository) ListGames(ctx context.Context) ([]Game, error) {
	var games []Game
	if err := r.db.WithContext(ctx).Order("start_at asc").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) DeleteGame(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Game{}, id).Error
}

// --- Lookups owned by other workflows ---

func (r *gameRepository) GetTeamByID(ctx context.Context, id uint) (*team.Team, error) {
	var t team.Team
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *gameRepository) ListTeams(ctx context.Context) ([]team.Team, error) {
	var teams []team.Team
	if err := r.db.WithContext(ctx).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *gameRepository) GetUserByID(ctx context.Context, id uint) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// --- GameRequest operations ---

func (r *gameRepository) CreateGameRequest(ctx context.Context, req *GameRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *gameRepository) GetGameRequestByID(ctx context.Context, id uint) (*GameRequest, error) {
	var req GameRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *gameRepository) GetPendingGameRequest(ctx context.Context, gameID, requestingTeamID uint) (*GameRequest, error) {
	var req GameRequest
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND requesting_team_id = ? AND status = ?", gameID, requestingTeamID, StatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *gameRepository) GetGameRequestsByHomeTeam(ctx context.Context, teamID uint, status string, page, limit int) ([]GameRequest, int64, error) {
	return r.listGameRequests(ctx, "home_team_id = ?", teamID, status, page, limit)
}

func (r *gameRepository) GetGameRequestsByRequestingTeam(ctx context.Context, teamID uint, status string, page, limit int) ([]GameRequest, int64, error) {
	return r.listGameRequests(ctx, "requesting_team_id = ?", teamID, status, page, limit)
}

func (r *gameRepository) listGameRequests(ctx context.Context, cond string, teamID uint, status string, page, limit int) ([]GameRequest, int64, error) {
	var requests []GameRequest
	var total int64
	query := r.db.WithContext(ctx).Model(&GameRequest{}).Where(cond, teamID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *gameRepository) UpdateGameRequest(ctx context.Context, req *GameRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *gameRepository) WithTransaction(txFunc func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &gameRepository{db: tx}
		return txFunc(txRepo)
	})
}
