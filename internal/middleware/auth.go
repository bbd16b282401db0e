package middleware

import (
	"strings"

	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验外部认证服务签发的令牌。websocket 握手无法带头部，允许 query 传 token。
func AuthMiddleware(opts util.JWTOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, opts)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

type ProfileProvisioner interface {
	EnsureProfile(claims *util.Claims) error
}

// ProfileMiddleware 首次请求时根据令牌建档
func ProfileMiddleware(p ProfileProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			// 异步写入，不阻塞主流程
			go func() {
				if err := p.EnsureProfile(claims); err != nil {
					logger.Log.Warn("Failed to provision profile", zap.String("userID", claims.UserID()), zap.Error(err))
				}
			}()
		}
		c.Next()
	}
}
