package team

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pitchup-app/pitchup/internal/user"
)

// Repository defines the storage operations the membership workflow needs.
// The game tables are touched only through raw statements during cascade
// deletes and cached-name propagation, keeping this package independent of
// the game package.
type Repository interface {
	// Team operations
	CreateTeam(ctx context.Context, t *Team) error
	GetTeamByID(ctx context.Context, id uint) (*Team, error)
	GetTeamByName(ctx context.Context, name string) (*Team, error)
	GetAllTeams(ctx context.Context, page, limit int, nameFilter string) ([]Team, int64, error)
	UpdateTeam(ctx context.Context, t *Team) error
	DeleteTeamRow(ctx context.Context, id uint) error

	// Member operations (users table)
	GetUserByID(ctx context.Context, id uint) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	CountCoordinators(ctx context.Context, teamID uint) (int64, error)
	GetTeamMembers(ctx context.Context, teamID uint) ([]user.User, error)
	ClearTeamMembers(ctx context.Context, teamID uint) (int64, error)

	// CoordinatorRequest operations
	CreateRequest(ctx context.Context, r *CoordinatorRequest) error
	GetRequestByID(ctx context.Context, id uint) (*CoordinatorRequest, error)
	GetPendingRequest(ctx context.Context, teamID, userID uint) (*CoordinatorRequest, error)
	GetRequestsByTeamID(ctx context.Context, teamID uint, status string, page, limit int) ([]CoordinatorRequest, int64, error)
	GetRequestsByUserID(ctx context.Context, userID uint, status string, page, limit int) ([]CoordinatorRequest, int64, error)
	UpdateRequest(ctx context.Context, r *CoordinatorRequest) error
	DeletePendingRequestsForTeam(ctx context.Context, teamID, exceptRequestID uint) (int64, error)
	DeleteRequestsByTeamID(ctx context.Context, teamID uint) (int64, error)

	// Cascade steps into the game tables
	DeleteGamesByTeamID(ctx context.Context, teamID uint) (int64, error)
	DeleteGameRequestsByTeamID(ctx context.Context, teamID uint) (int64, error)

	// Cached-name propagation
	UpdateRequestTeamNames(ctx context.Context, teamID uint, name string) (int64, error)
	UpdateGameRequestRequestingNames(ctx context.Context, teamID uint, name string) (int64, error)
	UpdateGameRequestHomeNames(ctx context.Context, teamID uint, name string) (int64, error)

	WithTransaction(txFunc func(Repository) error) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &teamRepository{db: db}
}

// --- Team operations ---

func (r *teamRepository) CreateTeam(ctx context.Context, t *Team) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *teamRepository) GetTeamByID(ctx context.Context, id uint) (*Team, error) {
	var t Team
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *teamRepository) GetTeamByName(ctx context.Context, name string) (*Team, error) {
	var t Team
	// Exact, case-sensitive match. The unique index is the real duplicate
	// guard; this pre-check only gives the caller a friendlier error.
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *teamRepository) GetAllTeams(ctx context.Context, page, limit int, nameFilter string) ([]Team, int64, error) {
	var teams []Team
	var total int64

	query := r.db.WithContext(ctx).Model(&Team{})
	if nameFilter != "" {
		query = query.Where("name ILIKE ?", "%"+nameFilter+"%")
	}

	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

func (r *teamRepository) UpdateTeam(ctx context.Context, t *Team) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *teamRepository) DeleteTeamRow(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Team{}, id).Error
}

// --- Member operations ---

func (r *teamRepository) GetUserByID(ctx context.Context, id uint) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *teamRepository) UpdateUser(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *teamRepository) CountCoordinators(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).
		Where("team_id = ? AND is_coordinator = ?", teamID, true).
		Count(&count).Error
	return count, err
}

func (r *teamRepository) GetTeamMembers(ctx context.Context, teamID uint) ([]user.User, error) {
	var members []user.User
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *teamRepository) ClearTeamMembers(ctx context.Context, teamID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&user.User{}).
		Where("team_id = ?", teamID).
		Updates(map[string]interface{}{"team_id": nil, "is_coordinator": false})
	return result.RowsAffected, result.Error
}

// --- CoordinatorRequest operations ---

func (r *teamRepository) CreateRequest(ctx context.Context, req *CoordinatorRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *teamRepository) GetRequestByID(ctx context.Context, id uint) (*CoordinatorRequest, error) {
	var req CoordinatorRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *teamRepository) GetPendingRequest(ctx context.Context, teamID, userID uint) (*CoordinatorRequest, error) {
	var req CoordinatorRequest
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ? AND status = ?", teamID, userID, StatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *teamRepository) GetRequestsByTeamID(ctx context.Context, teamID uint, status string, page, limit int) ([]CoordinatorRequest, int64, error) {
	var requests []CoordinatorRequest
	var total int64
	query := r.db.WithContext(ctx).Model(&CoordinatorRequest{}).Where("team_id = ?", teamID)
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

func (r *teamRepository) GetRequestsByUserID(ctx context.Context, userID uint, status string, page, limit int) ([]CoordinatorRequest, int64, error) {
	var requests []CoordinatorRequest
	var total int64
	query := r.db.WithContext(ctx).Model(&CoordinatorRequest{}).Where("user_id = ?", userID)
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

func (r *teamRepository) UpdateRequest(ctx context.Context, req *CoordinatorRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *teamRepository) DeletePendingRequestsForTeam(ctx context.Context, teamID, exceptRequestID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND status = ? AND id <> ?", teamID, StatusPending, exceptRequestID).
		Delete(&CoordinatorRequest{})
	return result.RowsAffected, result.Error
}

func (r *teamRepository) DeleteRequestsByTeamID(ctx context.Context, teamID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&CoordinatorRequest{})
	return result.RowsAffected, result.Error
}

// --- Cascade steps into game tables ---
// Raw statements so the membership package does not depend on the game models.

func (r *teamRepository) DeleteGamesByTeamID(ctx context.Context, teamID uint) (int64, error) {
	result := r.db.WithContext(ctx).Exec("DELETE FROM games WHERE team_id = ?", teamID)
	return result.RowsAffected, result.Error
}

func (r *teamRepository) DeleteGameRequestsByTeamID(ctx context.Context, teamID uint) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		"DELETE FROM game_requests WHERE requesting_team_id = ? OR home_team_id = ?", teamID, teamID)
	return result.RowsAffected, result.Error
}

// --- Cached-name propagation ---

func (r *teamRepository) UpdateRequestTeamNames(ctx context.Context, teamID uint, name string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&CoordinatorRequest{}).
		Where("team_id = ?", teamID).
		Update("team_name", name)
	return result.RowsAffected, result.Error
}

func (r *teamRepository) UpdateGameRequestRequestingNames(ctx context.Context, teamID uint, name string) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE game_requests SET requesting_team_name = ? WHERE requesting_team_id = ? AND deleted_at IS NULL", name, teamID)
	return result.RowsAffected, result.Error
}

func (r *teamRepository) UpdateGameRequestHomeNames(ctx context.Context, teamID uint, name string) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE game_requests SET home_team_name = ? WHERE home_team_id = ? AND deleted_at IS NULL", name, teamID)
	return result.RowsAffected, result.Error
}

func (r *teamRepository) WithTransaction(txFunc func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &teamRepository{db: tx}
		return txFunc(txRepo)
	})
}
