package permission

import (
	"testing"

	"platepos/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveOperation(t *testing.T) {
	for _, op := range []string{"user:delete", "payment:refund", "inventory-item:delete", "security-setting:change", "data:export", "system:backup"} {
		assert.True(t, IsSensitiveOperation(op), op)
	}
	assert.False(t, IsSensitiveOperation("orders:create"))
	assert.False(t, IsSensitiveOperation(""))
}

func TestRequiresAdditionalAuth(t *testing.T) {
	// listed action, elevated roles
	assert.True(t, RequiresAdditionalAuth(model.RoleAdmin, "void-order"))
	assert.True(t, RequiresAdditionalAuth(model.RoleManager, "change-role"))

	// listed action, non-elevated roles
	assert.False(t, RequiresAdditionalAuth(model.RoleWaiter, "void-order"))
	assert.False(t, RequiresAdditionalAuth(model.RoleCustomer, "close-register"))

	// unlisted action never requires it, any role
	assert.False(t, RequiresAdditionalAuth(model.RoleAdmin, "read-menu"))
	assert.False(t, RequiresAdditionalAuth(model.RoleManager, ""))
}
