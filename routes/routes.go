package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salesbackend/controllers"
	"salesbackend/middleware"
	"salesbackend/utils"
)

type Dependencies struct {
	Tokens   *utils.TokenManager
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Sales    *controllers.SalesController
	Profile  *controllers.ProfileController

	// MetricsHandler serves /metrics when set.
	MetricsHandler    http.Handler
	MetricsAllowedIPs []string
}

// NewRouter returns a bare engine that takes X-Forwarded-For only from the
// listed proxies. With none listed, ClientIP is the peer address.
func NewRouter(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	return r, nil
}

func InitializeRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		router.GET("/metrics", middleware.AllowIPs(deps.MetricsAllowedIPs), gin.WrapH(deps.MetricsHandler))
	}

	api := router.Group("/api")
	api.POST("/register", deps.Auth.Register)
	api.POST("/login", deps.Auth.Login)

	refresh := api.Group("")
	refresh.Use(middleware.AuthMiddleware(deps.Tokens, utils.RefreshToken))
	{
		refresh.POST("/refresh", deps.Auth.Refresh)
		refresh.POST("/logout", deps.Auth.Logout)
	}

	user := api.Group("")
	user.Use(middleware.AuthMiddleware(deps.Tokens, utils.AccessToken))
	{
		user.GET("/profile", deps.Profile.GetProfile)
		user.POST("/profile", deps.Profile.UpdateProfile)
		user.PUT("/profile", deps.Profile.UpdateProfile)

		user.POST("/products", deps.Products.AddProduct)
		user.GET("/products", deps.Products.ListProducts)
		user.GET("/products/:id", deps.Products.GetProduct)
		user.PUT("/products/:id", deps.Products.UpdateProduct)
		user.DELETE("/products/:id", deps.Products.DeleteProduct)
		user.POST("/products/:id/photo", deps.Products.UploadProductPhoto)

		user.POST("/sales", deps.Sales.RecordSale)
		user.GET("/sales", deps.Sales.ListSales)
		user.GET("/sales/summary", deps.Sales.SalesSummary)
	}
}
