package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the authenticated approver's ID.
const userIDKey = contextKey("userID")

// GetUserIDFromContext retrieves the authenticated approver ID from the Gin
// context, checking the request context as well.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userIDVal, exists := c.Get(string(userIDKey)); exists {
		if userID, ok := userIDVal.(string); ok {
			return userID, true
		}
		return "", false
	}
	if userIDVal := c.Request.Context().Value(userIDKey); userIDVal != nil {
		if userID, ok := userIDVal.(string); ok {
			return userID, true
		}
	}
	return "", false
}
