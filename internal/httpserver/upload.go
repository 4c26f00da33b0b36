package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type MediaHTTP struct {
	Svc *service.MediaService
}

func (h *MediaHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "media.upload")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warnw("upload_failed", "status", 400, "reason", "missing file field", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(l, "upload_failed", err)
	}
	defer f.Close()

	res, err := h.Svc.UploadImage(ctx, fh.Filename, fh.Header.Get(echo.HeaderContentType), fh.Size, f)
	if err != nil {
		return fail(l, "upload_failed", err)
	}
	l.Infow("upload_success", "key", res.Key)
	return c.JSON(http.StatusCreated, res)
}
