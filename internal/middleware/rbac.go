package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/response"
)

// RequireRole checks that the authenticated caller holds one of the
// given roles. Must run after RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, roleErrCode(roles))
	}
}

// roleErrCode picks the most specific error code for a role rejection.
func roleErrCode(roles []model.Role) response.ErrCode {
	if len(roles) != 1 {
		return response.ErrForbidden
	}
	switch roles[0] {
	case model.RoleStudent:
		return response.ErrStudentsOnly
	case model.RoleTeacher:
		return response.ErrTeachersOnly
	case model.RoleAdmin:
		return response.ErrAdminAccessOnly
	default:
		return response.ErrForbidden
	}
}
