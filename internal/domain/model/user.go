package model

// DefaultAuthority is assigned to every self-registered account.
const DefaultAuthority = 1

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Not exposed
	Name         string `json:"name"`
	Email        string `json:"email"`
	Authority    int    `json:"authority"`
}

// UserSolvedCount is one leaderboard row.
type UserSolvedCount struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	SolvedProblemCount int    `json:"solvedProblemCount"`
}
