package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the authenticated user's ID in the
// request context.
const userIDKey = contextKey("userID")

// tenantIDKey is the key used to store the caller's tenant ID in the
// request context. Every ledger operation is scoped to a tenant.
const tenantIDKey = contextKey("tenantID")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if v := c.Request.Context().Value(userIDKey); v != nil {
			if userID, ok := v.(string); ok {
				return userID, true
			}
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}
	return userID, true
}

// GetTenantIDFromContext retrieves the caller's tenant ID from the Gin context.
// It returns the tenant ID and a boolean indicating if it was found.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	tenantIDVal, exists := c.Get(string(tenantIDKey))
	if !exists {
		if v := c.Request.Context().Value(tenantIDKey); v != nil {
			if tenantID, ok := v.(string); ok {
				return tenantID, true
			}
		}
		return "", false
	}

	tenantID, ok := tenantIDVal.(string)
	if !ok {
		return "", false
	}
	return tenantID, true
}
