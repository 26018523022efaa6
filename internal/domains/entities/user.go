package entities

import "time"

const (
	StatusSuspended = 0
	StatusActive    = 1
)

// DefaultElo is the rating assigned to new accounts and assumed for
// identities without a user row.
const DefaultElo = 500

type User struct {
	Email           string     `dynamodbav:"Email"`
	Username        string     `dynamodbav:"Username"`
	Elo             int        `dynamodbav:"Elo"`
	Status          int        `dynamodbav:"Status"`
	Reports         int        `dynamodbav:"Reports"`
	SuspensionUntil *time.Time `dynamodbav:"SuspensionUntil,omitempty"`
	LatestTimestamp time.Time  `dynamodbav:"LatestTimestamp"`
}

type UserStatus struct {
	Status          int        `dynamodbav:"Status"`
	SuspensionUntil *time.Time `dynamodbav:"SuspensionUntil,omitempty"`
}
