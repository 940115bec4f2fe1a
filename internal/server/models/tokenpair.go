package models

// TokenPair is the unit returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
