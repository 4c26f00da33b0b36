package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	var parent *uuid.UUID
	if raw := c.QueryParam("parent"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			l.Warnw("list_categories_failed", "status", 400, "reason", "parent is not a uuid", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "parent is not a uuid")
		}
		parent = &id
	}

	items, err := h.Svc.ListCategories(ctx, parent)
	if err != nil {
		return fail(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CategoryHTTP) CategoryTree(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.tree")

	tree, err := h.Svc.CategoryTree(ctx)
	if err != nil {
		return fail(l, "category_tree_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": tree})
}

func (h *CategoryHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get")

	cat, err := h.Svc.GetCategory(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "get_category_failed", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CreateCategoryRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "create_category_failed", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return fail(l, "create_category_failed", err)
	}
	l.Infow("create_category_success", "category_id", cat.ID.String())
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHTTP) PatchCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.patch")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "patch_category_failed", err)
	}
	var req transport.PatchCategoryRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "patch_category_failed", err)
	}

	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return fail(l, "patch_category_failed", err)
	}
	l.Infow("patch_category_success", "category_id", cat.ID.String())
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "delete_category_failed", err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_failed", err)
	}
	l.Infow("delete_category_success", "category_id", id.String())
	return c.NoContent(http.StatusNoContent)
}
