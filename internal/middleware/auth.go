package middleware

import (
	"strings"

	"platepos/internal/apierror"
	"platepos/internal/model"
	"platepos/internal/permission"
	"platepos/internal/repository"
	"platepos/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	UserKey   = "current_user"
)

// StepUpHeader carries the operation-bound secondary credential, separate
// from the primary session token in Authorization.
const StepUpHeader = "X-Step-Up-Token"

// Authenticate is the first stage of the authorization pipeline: verify the
// bearer token, resolve the identity it names, and reject inactive accounts.
// Later stages (role, permission, level, ownership, step-up) read the loaded
// user from the context.
func Authenticate(issuer *token.Issuer, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abort(c, apierror.New(apierror.CodeNoToken, "authentication required"))
			return
		}

		claims, err := issuer.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abort(c, apierror.New(apierror.CodeInvalidToken, "token invalid or expired"))
			return
		}

		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			abort(c, apierror.New(apierror.CodeInvalidToken, "malformed token"))
			return
		}
		user, err := users.FindByID(c.Request.Context(), uid)
		if err != nil {
			abort(c, apierror.New(apierror.CodeUserNotFound, "user not found"))
			return
		}
		if !user.Active {
			abort(c, apierror.New(apierror.CodeUserInactive, "account is deactivated"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserKey, user)
		c.Next()
	}
}

// GetUser retrieves the authenticated user loaded by Authenticate.
func GetUser(c *gin.Context) *model.User {
	user, _ := c.MustGet(UserKey).(*model.User)
	return user
}

// RequireRole rejects requests whose role is not in the allowed list.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[GetUser(c).Role] {
			abort(c, apierror.New(apierror.CodeInsufficientPermissions, "insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RequirePermission gates on a single fine-grained permission.
func RequirePermission(perm string) gin.HandlerFunc {
	return RequireAllPermissions(perm)
}

// RequireAllPermissions gates on every listed permission.
func RequireAllPermissions(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		for _, p := range perms {
			if !permission.HasPermission(user.Role, p, user.ExtraPermissions...) {
				abort(c, apierror.New(apierror.CodeInsufficientPermissions, "insufficient permissions"))
				return
			}
		}
		c.Next()
	}
}

// RequireAnyPermission gates on at least one of the listed permissions.
func RequireAnyPermission(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		for _, p := range perms {
			if permission.HasPermission(user.Role, p, user.ExtraPermissions...) {
				c.Next()
				return
			}
		}
		abort(c, apierror.New(apierror.CodeInsufficientPermissions, "insufficient permissions"))
	}
}

// RequireMinRole gates on the role hierarchy: the caller's level must be at
// or above the minimum role's level.
func RequireMinRole(minimum model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !permission.AtLeast(GetUser(c).Role, minimum) {
			abort(c, apierror.New(apierror.CodeInsufficientRoleLevel, "insufficient role level"))
			return
		}
		c.Next()
	}
}

// RequireSelfOrElevated is the ownership check: admin and manager pass
// unconditionally; everyone else must be operating on their own id as named
// by the path parameter.
func RequireSelfOrElevated(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user.Role == model.RoleAdmin || user.Role == model.RoleManager {
			c.Next()
			return
		}
		if c.Param(param) != user.ID.String() {
			abort(c, apierror.New(apierror.CodeResourceAccessDenied, "access to this resource is denied"))
			return
		}
		c.Next()
	}
}

// RequireStepUp enforces the step-up gate for a sensitive operation. The
// secondary credential travels in its own header; a missing credential and a
// failed one are distinct taxonomy errors, but all verification sub-failures
// collapse into the latter.
func RequireStepUp(issuer *token.Issuer, operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !permission.IsSensitiveOperation(operation) {
			// Misconfigured route: deny rather than silently skip the gate.
			abort(c, apierror.New(apierror.CodeAdditionalAuthRequired, "additional authentication required"))
			return
		}
		stepUpToken := c.GetHeader(StepUpHeader)
		if stepUpToken == "" {
			abort(c, apierror.New(apierror.CodeAdditionalAuthRequired, "additional authentication required"))
			return
		}
		if err := issuer.VerifyStepUp(stepUpToken, GetUser(c).ID, operation); err != nil {
			abort(c, apierror.New(apierror.CodeInvalidAdditionalAuth, "invalid or expired step-up credential"))
			return
		}
		c.Next()
	}
}
