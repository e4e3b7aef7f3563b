package controller

// Event reasons recorded on StellarNode objects.
const (
	EventReasonReconciled       = "Reconciled"
	EventReasonSuspended        = "Suspended"
	EventReasonValidationFailed = "ValidationFailed"
	EventReasonApplyFailed      = "ApplyFailed"
	EventReasonCleanupFailed    = "CleanupFailed"
	EventReasonCleanedUp        = "CleanedUp"
)
