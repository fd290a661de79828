package site

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-campaign-site/internal/logx"
)

const (
	headerRequestID = "X-Request-ID"
	localsRequestID = "requestID"
)

// requestContext 为每个请求分配请求 ID，放入 UserContext 供日志使用，并在结束后记录访问日志。
// 处理链返回的错误在这里交给错误处理器，访问日志因此能记录最终状态码。
func requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Locals(localsRequestID, id)
		c.Set(headerRequestID, id)
		ctx := logx.WithRequestID(c.UserContext(), id)
		c.SetUserContext(ctx)

		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		logx.FromContext(ctx).Info("请求完成",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"dur", time.Since(start).Round(time.Microsecond).String(),
		)
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}
