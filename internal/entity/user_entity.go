package entity

import "time"

const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

type User struct {
	Id         string    `bson:"_id" json:"id"`
	Username   string    `bson:"username" json:"username"`
	Email      string    `bson:"email" json:"email"`
	Password   string    `bson:"password" json:"-"` // Don't expose password in JSON
	Name       string    `bson:"name" json:"name"`
	Department string    `bson:"department,omitempty" json:"department,omitempty"`
	Status     string    `bson:"status" json:"status"`
	LastSeen   time.Time `bson:"lastSeen,omitempty" json:"lastSeen,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserProjection is the cached slice of a user that rides inside broadcast
// payloads. The durable record stays with the repository.
type UserProjection struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (u User) Projection() UserProjection {
	return UserProjection{Id: u.Id, Name: u.Name, Status: u.Status}
}

type UserIndexFilter struct {
	Ids       []string `bson:"ids"`
	Usernames []string `bson:"usernames"`
}
