package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/pkg/utils"
)

// Identity headers set by the upstream identity provider
const (
	HeaderOrganizationID = "X-Organization-ID"
	HeaderActorID        = "X-Actor-ID"
	HeaderActorRoles     = "X-Actor-Roles"
)

const (
	ctxActor        = "actor"
	ctxOrganization = "organization_id"
)

// RequireIdentity reads the caller's organization, user and roles from the
// identity headers. Requests without them are answered with 401.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := utils.SanitizeString(c.GetHeader(HeaderActorID))
		orgID := utils.SanitizeString(c.GetHeader(HeaderOrganizationID))

		if actorID == "" || orgID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing identity: " + HeaderActorID + " and " + HeaderOrganizationID + " are required",
				Code:    "unauthenticated",
			})
			return
		}

		c.Set(ctxOrganization, orgID)
		c.Set(ctxActor, entity.Actor{
			UserID: actorID,
			Roles:  utils.SplitList(c.GetHeader(HeaderActorRoles)),
		})
		c.Next()
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	actor, _ := c.MustGet(ctxActor).(entity.Actor)
	return actor
}

func organizationFrom(c *gin.Context) string {
	return c.GetString(ctxOrganization)
}
