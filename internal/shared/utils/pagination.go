package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/entitleops/licensesync/internal/shared/constants"
	"github.com/entitleops/licensesync/internal/shared/errors"
)

// ParseLimit reads the "limit" query parameter. A missing value yields
// constants.DefaultPageSize; values outside 1..constants.MaxPageSize are a
// validation error.
func ParseLimit(c *gin.Context) (int, error) {
	return ParseLimitWithBounds(c, constants.DefaultPageSize, constants.MaxPageSize)
}

// ParseLimitWithBounds parses the "limit" query parameter with custom default and maximum.
func ParseLimitWithBounds(c *gin.Context, defaultLimit, maxLimit int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, errors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", maxLimit))
	}
	return n, nil
}
