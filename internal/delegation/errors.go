package delegation

import "errors"

// Authorization failures are synchronous and never retried: re-submitting an
// invalid signature cannot succeed.
var (
	ErrSignatureInvalid  = errors.New("delegation signature invalid")
	ErrOwnershipMismatch = errors.New("caller does not own the referenced record")
	ErrChainMismatch     = errors.New("delegation and strategy chain ids differ")
	ErrDelegatorMissing  = errors.New("strategy has no registered authorizing account")
)
