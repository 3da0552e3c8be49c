package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// getUserID extracts the user ID from gin context.
func getUserID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	switch v := val.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case uint:
		return uint64(v)
	case int:
		return uint64(v)
	default:
		return 0
	}
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
