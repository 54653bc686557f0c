package permission

import "platepos/internal/model"

// sensitiveOperations is the closed set of operations that require an
// operation-bound step-up token on top of the session token. Verification of
// that token lives in the token package; this set only answers "is op
// sensitive at all".
var sensitiveOperations = map[string]bool{
	"user:delete":             true,
	"payment:refund":          true,
	"inventory-item:delete":   true,
	"security-setting:change": true,
	"data:export":             true,
	"system:backup":           true,
}

// IsSensitiveOperation reports whether op demands step-up authentication.
func IsSensitiveOperation(op string) bool {
	return sensitiveOperations[op]
}

// additionalAuthActions is a second, independent sensitive-action list used by
// the coarser RequiresAdditionalAuth gate. It is intentionally NOT merged with
// sensitiveOperations: the two gates have different semantics and different
// fail-safe directions.
var additionalAuthActions = map[string]bool{
	"void-order":     true,
	"override-price": true,
	"close-register": true,
	"bulk-delete":    true,
	"change-role":    true,
}

// RequiresAdditionalAuth is the coarse role-based gate: true iff the action is
// in the sensitive-action list and the caller's role is admin or manager.
// Callers that cannot resolve the caller's identity must treat the answer as
// true (fail-safe require) — see service.AuthService.RequireAdditionalAuth.
func RequiresAdditionalAuth(role model.Role, action string) bool {
	if !additionalAuthActions[action] {
		return false
	}
	return role == model.RoleAdmin || role == model.RoleManager
}
