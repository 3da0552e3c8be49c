package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// getAdminID extracts the admin ID from gin context.
func getAdminID(c *gin.Context) uint64 {
	val, exists := c.Get("adminID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}

// pathID parses the named path parameter as an id, returning 0 when absent
// or malformed.
func pathID(c *gin.Context, name string) uint64 {
	raw := c.Param(name)
	id, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil {
		return 0
	}
	return id
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, errParse := strconv.Atoi(raw)
	if errParse != nil {
		return fallback
	}
	return value
}
