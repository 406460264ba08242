package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrUnsupportedFormat      = errors.New("tournament format does not support this operation")
	ErrBracketAlreadyExists   = errors.New("bracket has already been generated for this tournament")
	ErrNotEnoughTeams         = errors.New("not enough teams to perform this operation")
	ErrRoundIncomplete        = errors.New("current round has incomplete matches")
	ErrPairingLocked          = errors.New("pairing is locked and cannot be modified")
	ErrNoDraftPairings        = errors.New("no draft pairings exist for this round")
	ErrInvalidBracket         = errors.New("generated bracket failed validation")
	ErrInvalidPairings        = errors.New("pairings failed validation")
	ErrOverrideReasonRequired = errors.New("override reason is required for manual pairing changes")

	// Ошибки переходов жизненного цикла
	ErrInvalidStateTransition = errors.New("invalid tournament state transition")
	ErrTransitionGuardFailed  = errors.New("transition guard rejected the state change")

	// Ошибки, специфичные для сущностей
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPairingNotFound     = errors.New("pairing not found")
)
