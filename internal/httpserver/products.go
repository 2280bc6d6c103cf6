package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sport_shop/internal/service/catalog"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	"github.com/Skotchmaster/sport_shop/internal/util"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *catalog.CatalogService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	res, err := h.Svc.ListProducts(ctx, c.QueryParam("keyword"), page)
	if err != nil {
		return fail(l, "get_products_error", err, "cannot get products")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) GetTopProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_top_products")

	items, err := h.Svc.TopProducts(ctx)
	if err != nil {
		return fail(l, "get_top_products_error", err, "cannot get products")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	res, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page)
	if err != nil {
		return fail(l, "search_error", err, "cannot search products")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := pathID(c, l, "get_product_failed")
	if err != nil {
		return err
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err, "cannot get product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateProductRequest
	if err := bind(c, &req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	created, err := h.Svc.CreateProduct(ctx, p, req)
	if err != nil {
		return fail(l, "product_create_error", err, "cannot add product to db")
	}

	l.Info("product_created", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "product_update_error")
	if err != nil {
		return err
	}
	var req transport.UpdateProductRequest
	if err := bind(c, &req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	updated, err := h.Svc.UpdateProduct(ctx, p, id, req)
	if err != nil {
		return fail(l, "product_update_error", err, "cannot update product")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "product_delete_error")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, p, id); err != nil {
		return fail(l, "product_delete_error", err, "cannot delete product")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}

func (h *CatalogHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_review")

	p, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "create_review_failed")
	if err != nil {
		return err
	}
	var req transport.ReviewRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_review_failed", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	if err := h.Svc.SubmitReview(ctx, p, id, req); err != nil {
		return fail(l, "create_review_failed", err, "cannot add review")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "review added"})
}
