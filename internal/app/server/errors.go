package server

import "errors"

// Protocol rejection texts. Sent only to the originating connection;
// the connection stays open.
const (
	msgNotYourTurn     = "Not your turn!"
	msgIllegalMove     = "Illegal move!"
	msgAlreadyInGame   = "You are already in a game. Finish or resign before starting a new one."
	msgWaitingOpponent = "Waiting for opponent..."
	msgRoomCodeTaken   = "Room code already in use"
	msgRoomCodeUnknown = "Room code not found"
	msgOwnRoom         = "Cannot join your own room"
	msgSelfRematch     = "Cannot rematch yourself"
	msgRatingMismatch  = "Rating mismatch"
	msgOpponentBusy    = "Opponent is busy"
	msgNoLiveGame      = "No live game found"
	msgReportThanks    = "Player reported. Thank you for helping keep the community safe."
)

var (
	errRoomCodeTaken   = errors.New("room code already in use")
	errRoomCodeUnknown = errors.New("room code not found")
	errOwnRoom         = errors.New("cannot join own room")
)
