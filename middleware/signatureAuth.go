package middleware

import (
	"bytes"
	"io"
	"net/http"

	"caregate/apperr"
	"caregate/gateway"
	"caregate/models"
	"caregate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureAuthMiddleware authenticates protocol requests: the sender
// names itself in X-Subscriber-ID and signs the raw body into
// X-Gateway-Signature. The body is restored for downstream binding.
func SignatureAuthMiddleware(verifier gateway.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		subscriberID := c.GetHeader("X-Subscriber-ID")
		signature := c.GetHeader("X-Gateway-Signature")
		if subscriberID == "" || signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NackResponse("missing signature headers"))
			return
		}

		body, err := c.GetRawData()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.NackResponse("unreadable body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		if err := verifier.VerifyRequest(c.Request.Context(), subscriberID, body, signature); err != nil {
			utils.GetLogger().Warn("signature verification failed",
				zap.String("subscriber_id", subscriberID),
				zap.String("kind", apperr.Kind(err)))
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), models.NackResponse("signature verification failed"))
			return
		}

		c.Set("subscriber_id", subscriberID)
		c.Next()
	}
}
