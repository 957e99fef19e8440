package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldCacheKey    = "cache_key"
	FieldAccountID   = "account_id"
	FieldUserID      = "user_id"
	FieldTransferID  = "transfer_id"
	FieldAttempt     = "attempt"
	FieldDurationMS  = "duration_ms"
	FieldError       = "error"
	FieldBackend     = "backend"
	FieldEmail       = "email"
	FieldSearchTerm  = "search_term"
	FieldPeriod      = "period"
	FieldStaleWindow = "stale_window"
)
