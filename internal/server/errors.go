package server

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/pagetree/internal/pages"
)

// statusFor 将页面错误分类映射为 HTTP 状态码。
func statusFor(err error) int {
	switch pages.KindOf(err) {
	case pages.KindNotFound:
		return fiber.StatusNotFound
	case pages.KindInvalidValue:
		return fiber.StatusUnprocessableEntity
	case pages.KindPreconditionFailed:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// errorCode 返回响应体中的错误码，未分类错误为 internal_error。
func errorCode(err error) string {
	if kind := pages.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "internal_error"
}

func writePageError(c fiber.Ctx, err error) error {
	return writeError(c, statusFor(err), errorCode(err))
}

func writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}
