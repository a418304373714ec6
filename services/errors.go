package services

import "errors"

// Shared errors used across services and HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrNegativeScore       = errors.New("scores must be non-negative")
	ErrWinnerNotInMatch    = errors.New("winner is not one of the match teams")
	ErrLoserNotInMatch     = errors.New("loser is not one of the match teams")
	ErrWinnerEqualsLoser   = errors.New("winner and loser must be different teams")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrSignupClosed        = errors.New("tournament is not open for signups")
	ErrTournamentNotLive   = errors.New("tournament is not live")
	ErrNotEnoughTeams      = errors.New("not enough teams to start the tournament")

	// Engine failure taxonomy
	ErrMatchNotFoundAfterUpdate = errors.New("match not found after update")
	ErrResultsProcessing        = errors.New("failed to process match results")
	ErrConcurrentModification   = errors.New("record was modified concurrently, retry the operation")
	ErrUnsupportedBracketFormat = errors.New("bracket format is not supported by the progression engine")

	// Conflicts
	ErrTeamNameConflict   = errors.New("team name is already in use in this tournament")
	ErrSignupConflict     = errors.New("user is already signed up for this tournament")
	ErrUserEmailConflict  = errors.New("email address is already in use")
	ErrMemberConflict     = errors.New("user is already on this team")

	// Authentication
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-founds
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAuditNotFound      = errors.New("processing audit record not found")

	// Tournament lifecycle
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
)
