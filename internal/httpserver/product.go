package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func productQuery(c echo.Context, includeArchived bool) (transport.ProductQuery, int, error) {
	q := transport.ProductQuery{
		Category:        c.QueryParam("category"),
		Season:          c.QueryParam("season"),
		SizeName:        c.QueryParam("size"),
		Query:           c.QueryParam("q"),
		Sort:            strings.ToLower(c.QueryParam("sort")),
		IncludeArchived: includeArchived,
	}
	var err error
	if q.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		return q, 0, err
	}
	if q.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		return q, 0, err
	}
	if q.Featured, err = boolQuery(c, "featured"); err != nil {
		return q, 0, err
	}
	page, _, limit := pageQuery(c, "page_size")
	q.Page, q.PageSize = page, limit
	return q, page, nil
}

func (h *CatalogHTTP) listProducts(c echo.Context, admin bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	q, page, err := productQuery(c, admin)
	if err != nil {
		return fail(l, "list_products_failed", err)
	}
	res, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		return fail(l, "list_products_failed", err)
	}

	offset := (page - 1) * q.PageSize
	return c.JSON(http.StatusOK, pageResponse(res.Items, page, offset, q.PageSize, res.Total))
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error      { return h.listProducts(c, false) }
func (h *CatalogHTTP) AdminListProducts(c echo.Context) error { return h.listProducts(c, true) }

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	p, err := h.Svc.GetProduct(ctx, c.Param("slug"), false)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) AdminGetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.admin_get")

	p, err := h.Svc.GetProduct(ctx, c.Param("id"), true)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, offset, limit := pageQuery(c, "size")
	res, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, limit)
	if err != nil {
		return fail(l, "search_products_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(res.Items, page, offset, limit, res.Total))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "create_product_failed", err)
	}
	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_failed", err)
	}
	l.Infow("create_product_success", "product_id", p.ID.String())
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "patch_product_failed", err)
	}
	var req transport.PatchProductRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "patch_product_failed", err)
	}
	p, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(l, "patch_product_failed", err)
	}
	l.Infow("patch_product_success", "product_id", p.ID.String())
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "delete_product_failed", err)
	}
	mode, err := h.Svc.DeleteProduct(ctx, id)
	if err != nil {
		return fail(l, "delete_product_failed", err)
	}
	l.Infow("delete_product_success", "product_id", id.String(), "mode", mode)
	return c.JSON(http.StatusOK, transport.DeleteProductResponse{Deleted: mode})
}

func (h *CatalogHTTP) AddVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "variant.create")

	productID, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "add_variant_failed", err)
	}
	var req transport.VariantInput
	if err := bindValid(c, &req); err != nil {
		return fail(l, "add_variant_failed", err)
	}
	v, err := h.Svc.AddVariant(ctx, productID, req)
	if err != nil {
		return fail(l, "add_variant_failed", err)
	}
	l.Infow("add_variant_success", "variant_id", v.ID.String())
	return c.JSON(http.StatusCreated, v)
}

func (h *CatalogHTTP) PatchVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "variant.patch")

	id, err := uuidParam(c, "variantId")
	if err != nil {
		return fail(l, "patch_variant_failed", err)
	}
	var req transport.PatchVariantRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "patch_variant_failed", err)
	}
	v, err := h.Svc.PatchVariant(ctx, id, req)
	if err != nil {
		return fail(l, "patch_variant_failed", err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CatalogHTTP) DeleteVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "variant.delete")

	id, err := uuidParam(c, "variantId")
	if err != nil {
		return fail(l, "delete_variant_failed", err)
	}
	if err := h.Svc.DeleteVariant(ctx, id); err != nil {
		return fail(l, "delete_variant_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) UploadProductImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image.upload")

	productID, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "upload_image_failed", err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		l.Warnw("upload_image_failed", "status", 400, "reason", "missing file field", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(l, "upload_image_failed", err)
	}
	defer f.Close()

	img, err := h.Svc.UploadProductImage(ctx, productID, fh.Filename, fh.Header.Get(echo.HeaderContentType), fh.Size, f)
	if err != nil {
		return fail(l, "upload_image_failed", err)
	}
	l.Infow("upload_image_success", "product_id", productID.String(), "image_id", img.ID.String())
	return c.JSON(http.StatusCreated, img)
}

func (h *CatalogHTTP) DeleteProductImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image.delete")

	id, err := uuidParam(c, "imageId")
	if err != nil {
		return fail(l, "delete_image_failed", err)
	}
	if err := h.Svc.DeleteProductImage(ctx, id); err != nil {
		return fail(l, "delete_image_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
