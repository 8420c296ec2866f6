package middlewares

import (
	"net/http"
	"strconv"

	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/gin-gonic/gin"
)

// RestaurantScopeMiddleware binds the request's tenant scope into the
// context. Authentication and role checks happen upstream; by the time a
// request reaches this service the ids are already trusted.
func RestaurantScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantId := c.GetHeader("x-restaurant-id")
		if restaurantId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "x-restaurant-id header is required"})
			return
		}
		ctx := utils.SetRestaurantIdInContext(c.Request.Context(), restaurantId)

		if userIdStr := c.GetHeader("x-user-id"); userIdStr != "" {
			if userId, err := strconv.Atoi(userIdStr); err == nil {
				ctx = utils.SetUserIdInContext(ctx, userId)
			}
		}
		if userName := c.GetHeader("x-user-name"); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
