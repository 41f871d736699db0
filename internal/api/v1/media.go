package v1

import (
	"github.com/labstack/echo/v4"
)

// ServeClip streams a stored clip with its original container type.
func (c *Controller) ServeClip(ctx echo.Context) error {
	path, format, err := c.deps.Clips.Open(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Clip not available", statusFor(err))
	}

	ctx.Response().Header().Set(echo.HeaderContentType, format.MIMEType())
	return ctx.File(path)
}
