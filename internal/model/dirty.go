package model

import "slices"

// Dirty names the users and games whose derived aggregates are stale
// after a mutation. Every list-entry and review mutation returns one.
type Dirty struct {
	Users []UserID
	Games []GameID
}

// DirtyFor returns a Dirty set naming one user and one game
func DirtyFor(userID UserID, gameID GameID) Dirty {
	var d Dirty
	d.AddUser(userID)
	d.AddGame(gameID)
	return d
}

// AddUser marks a user stale. Empty and repeated ids are ignored.
func (d *Dirty) AddUser(id UserID) {
	if id != "" && !slices.Contains(d.Users, id) {
		d.Users = append(d.Users, id)
	}
}

// AddGame marks a game stale. Empty and repeated ids are ignored.
func (d *Dirty) AddGame(id GameID) {
	if id != "" && !slices.Contains(d.Games, id) {
		d.Games = append(d.Games, id)
	}
}

// Merge folds other into d
func (d *Dirty) Merge(other Dirty) {
	for _, id := range other.Users {
		d.AddUser(id)
	}
	for _, id := range other.Games {
		d.AddGame(id)
	}
}

// Empty reports whether nothing is stale
func (d Dirty) Empty() bool {
	return len(d.Users) == 0 && len(d.Games) == 0
}
