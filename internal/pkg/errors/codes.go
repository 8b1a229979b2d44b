package errors

import "net/http"

var (
	ErrMalformedImport = New(
		"MALFORMED_IMPORT",
		"Could not read file",
		http.StatusUnprocessableEntity,
	)

	ErrUnsupportedFile = New(
		"UNSUPPORTED_FILE",
		"Unsupported file type",
		http.StatusUnsupportedMediaType,
	)

	ErrRecordNotFound = New(
		"RECORD_NOT_FOUND",
		"Parcel not found in session",
		http.StatusNotFound,
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Editor session not found",
		http.StatusNotFound,
	)

	ErrReadOnlySession = New(
		"READ_ONLY_SESSION",
		"Session is read-only",
		http.StatusConflict,
	)

	ErrEmptyDraft = New(
		"EMPTY_DRAFT",
		"Draft has no parcels",
		http.StatusBadRequest,
	)

	ErrTooManyFeatures = New(
		"TOO_MANY_FEATURES",
		"Too many parcels in session",
		http.StatusRequestEntityTooLarge,
	)

	ErrFarmNotFound = New(
		"FARM_NOT_FOUND",
		"Farm not found",
		http.StatusNotFound,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
