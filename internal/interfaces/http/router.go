package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-pos/internal/application/auth"
	"github.com/jhoicas/retail-pos/internal/application/inventory"
	"github.com/jhoicas/retail-pos/internal/application/sale"
	"github.com/jhoicas/retail-pos/internal/application/usecase"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.UseCase
	SaleUC      *sale.UseCase
	TicketUC    *sale.TicketUseCase
	InventoryUC *inventory.UseCase
	ProductUC   *usecase.ProductUseCase
	UserUC      *usecase.UserUseCase
	ReportUC    *usecase.ReportUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
//
// RBAC: vender puede cualquier usuario autenticado; recepciones, ajustes y
// reportes requieren MANAGER o ADMIN; usuarios y log de seguridad, solo ADMIN.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	managerOnly := RequireRole(entity.RoleManager, entity.RoleAdmin)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Sales (cualquier rol autenticado)
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC, deps.TicketUC)
	sales.Post("/", saleHandler.Create)
	sales.Get("/", saleHandler.List)
	sales.Get("/number/:number", saleHandler.GetByNumber)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Get("/:id/ticket", saleHandler.Ticket)
	sales.Post("/:id/returns", saleHandler.Return)

	// Inventory: lecturas para todos, escrituras para MANAGER y ADMIN
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	inv.Get("/stock", inventoryHandler.ListStock)
	inv.Get("/low-stock", inventoryHandler.ListLowStock)
	inv.Get("/stock/:productId", inventoryHandler.GetStock)
	inv.Post("/stock/:productId/adjust", managerOnly, inventoryHandler.AdjustStock)
	inv.Post("/receipts", managerOnly, inventoryHandler.CreateReceipt)
	inv.Get("/receipts", inventoryHandler.ListReceipts)
	inv.Get("/receipts/:id", inventoryHandler.GetReceipt)
	inv.Get("/movements/product/:productId", inventoryHandler.ProductHistory)
	inv.Get("/movements/user/:userId", managerOnly, inventoryHandler.UserHistory)
	inv.Get("/movements/adjustments", managerOnly, inventoryHandler.ListAdjustments)

	// Catalog: lecturas para todos, escrituras para MANAGER y ADMIN
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", managerOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/sku/:sku", productHandler.GetBySKU)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", managerOnly, productHandler.Update)
	products.Patch("/:id/price", managerOnly, productHandler.UpdatePrice)
	products.Patch("/:id/active", managerOnly, productHandler.SetActive)

	categories := protected.Group("/categories")
	categories.Post("/", managerOnly, productHandler.CreateCategory)
	categories.Get("/", productHandler.ListCategories)

	// Reports (MANAGER y ADMIN)
	reports := protected.Group("/reports", managerOnly)
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/revenue", reportHandler.Revenue)
	reports.Get("/top-products", reportHandler.TopProducts)
	reports.Get("/dashboard", reportHandler.Dashboard)

	// Users y log de seguridad (solo ADMIN)
	users := protected.Group("/users", adminOnly)
	userHandler := NewUserHandler(deps.UserUC)
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Post("/:id/block", userHandler.Block)
	users.Post("/:id/unblock", userHandler.Unblock)
	users.Delete("/:id", userHandler.Delete)

	security := protected.Group("/security-log", adminOnly)
	security.Get("/", authHandler.SecurityLog)
	security.Get("/failed-logins", authHandler.FailedLogins)
}
