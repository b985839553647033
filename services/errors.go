package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidInput            = errors.New("invalid input")
	ErrUnsupportedMode         = errors.New("unsupported bracket mode")
	ErrInsufficientTeams       = errors.New("at least two teams are required")
	ErrBracketAlreadyGenerated = errors.New("bracket has already been generated")
	ErrBracketNotGenerated     = errors.New("bracket has not been generated yet")
	ErrStandingsUnsupported    = errors.New("standings are only available for round robin brackets")

	// Ошибки состояния матчей
	ErrMatchNotReady      = errors.New("match is not ready: both team slots must be filled")
	ErrMatchHidden        = errors.New("match is hidden and cannot receive a result")
	ErrMatchNotCompleted  = errors.New("match has no recorded result to correct")
	ErrInvalidWinner      = errors.New("winner must be one of the match participants")
	ErrResultConflict     = errors.New("match already has a different result")
	ErrCorrectionBlocked  = errors.New("result cannot be corrected: downstream matches have progressed")
	ErrMatchNotInProgress = errors.New("match is not in progress")

	// Ошибки, специфичные для сущностей
	ErrBracketNotFound = errors.New("bracket not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrSportNotFound   = errors.New("sport not found")

	// Ошибки конфликтов
	ErrSportNameConflict = errors.New("sport name already exists")
	ErrTeamSportMismatch = errors.New("all bracket teams must belong to the bracket's sport")
)
