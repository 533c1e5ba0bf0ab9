package user

// CoordinatorOf reports whether the user is a coordinator of the given team.
// This is the one authorization check used by every workflow; storage-side
// rules re-verify the same predicate.
func (u *User) CoordinatorOf(teamID uint) bool {
	return u.IsCoordinator && u.TeamID != nil && *u.TeamID == teamID
}

// HasTeam reports whether the user currently belongs to any team.
func (u *User) HasTeam() bool {
	return u.TeamID != nil
}
