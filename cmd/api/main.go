package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/davidgq/ecom-api/internal/auth"
	"github.com/davidgq/ecom-api/internal/config"
	"github.com/davidgq/ecom-api/internal/database"
	"github.com/davidgq/ecom-api/internal/httpx"
	"github.com/davidgq/ecom-api/internal/order"
	"github.com/davidgq/ecom-api/internal/product"
	"github.com/davidgq/ecom-api/internal/user"
)

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("userrole", user.ValidateRole)
		_ = v.RegisterValidation("productcategory", product.ValidateCategory)
	}
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if err := database.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("[migrate] %v", err)
	}
	pool, err := database.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[db] %v", err)
	}
	defer pool.Close()

	rdb, err := product.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("[redis] %v", err)
	}
	defer rdb.Close()

	users := user.NewPGRepo(pool)
	products := product.NewCachedRepo(product.NewPGRepo(pool), rdb)
	orders := order.NewPGRepo(pool)
	authSvc := auth.NewService(users, cfg.JWTSecret)

	registerValidators()
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/register", registerHandler(users))
	r.POST("/token", tokenHandler(authSvc, cfg.AccessTokenTTL))

	authed := r.Group("/", httpx.Authenticate(authSvc))
	{
		admin := authed.Group("/", httpx.RequireRoles(user.RoleAdmin, user.RoleSuperAdmin))
		admin.POST("/products", createProductHandler(products))
		admin.PUT("/products/:id", updateProductHandler(products))
		admin.DELETE("/products/:id", deleteProductHandler(products))

		superAdmin := authed.Group("/", httpx.RequireExactRole(user.RoleSuperAdmin))
		superAdmin.PUT("/admin/users/:id/role", updateUserRoleHandler(users))

		authed.POST("/orders", createOrderHandler(orders, products))
		authed.GET("/orders", listOrdersHandler(orders))
		authed.GET("/orders/:id", getOrderHandler(orders))
		authed.PUT("/orders/:id/status", updateOrderStatusHandler(orders, products))
	}

	r.GET("/products", listProductsHandler(products))
	r.GET("/products/:id", getProductHandler(products))

	log.Printf("[api] listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
