package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akozlov/clothes-shop/internal/handlers"
	"github.com/akozlov/clothes-shop/internal/middleware"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetAllProducts)
	products.GET("/categories", d.ProductHandler.GetProductsByCategory)
	products.GET("/category/:category", d.ProductHandler.GetProductsBySingleCategory)

	authMw := middleware.NewAuth(d.JWTSecret)
	admin := v1.Group("/admin", authMw.RequireAuth)
	admin.POST("/product/new", d.ProductHandler.CreateProduct)
	admin.PUT("/product/:id", d.ProductHandler.UpdateProduct)
	admin.DELETE("/product/:id", d.ProductHandler.DeleteProduct)
}
