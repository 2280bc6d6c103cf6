package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/sport_shop/pkg/middleware/auth"
)

type Deps struct {
	Users   *UsersHTTP
	Catalog *CatalogHTTP
	Orders  *OrderHTTP
	Auth    *middleware.AutoRefreshMiddleware
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(c echo.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/register", d.Users.Register)
	users.POST("/login", d.Users.Login)
	users.POST("/refresh", d.Users.Refresh)
	users.POST("/logout", d.Users.LogOut)
	users.GET("/profile", d.Users.GetProfile, d.Auth.RequireAuth)
	users.PUT("/profile", d.Users.UpdateProfile, d.Auth.RequireAuth)
	users.GET("", d.Users.ListUsers, d.Auth.RequireAdmin)
	users.GET("/:id", d.Users.GetUser, d.Auth.RequireAdmin)
	users.PUT("/:id", d.Users.UpdateUser, d.Auth.RequireAdmin)
	users.DELETE("/:id", d.Users.DeleteUser, d.Auth.RequireAdmin)

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/top", d.Catalog.GetTopProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, d.Auth.RequireAdmin)
	products.PUT("/:id", d.Catalog.UpdateProduct, d.Auth.RequireAdmin)
	products.DELETE("/:id", d.Catalog.DeleteProduct, d.Auth.RequireAdmin)
	products.POST("/:id/reviews", d.Catalog.CreateReview, d.Auth.RequireAuth)

	orders := api.Group("/orders")
	orders.POST("", d.Orders.PlaceOrder, d.Auth.RequireAuth)
	orders.GET("/mine", d.Orders.GetMyOrders, d.Auth.RequireAuth)
	orders.GET("", d.Orders.GetOrders, d.Auth.RequireAdmin)
	orders.GET("/:id", d.Orders.GetOrder, d.Auth.RequireAuth)
	orders.PUT("/:id/pay", d.Orders.MarkPaid, d.Auth.RequireAuth)
	orders.PUT("/:id/deliver", d.Orders.MarkDelivered, d.Auth.RequireAdmin)
}
