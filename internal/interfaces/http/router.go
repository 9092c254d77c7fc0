package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/infrastructure/notify"
	"github.com/jhoicas/Gestion-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Purchases      MovementService
	Sales          MovementService
	Supplies       MovementService
	Receipts       ReceiptService
	Stock          StockService
	AlertsHub      *notify.Hub // nil desactiva /ws/alerts
	JWTSecret      string
	RequestTimeout time.Duration
}

// Router registra las rutas de la API. Todo está protegido: los tokens los emite el servicio de identidad.
func Router(app *fiber.App, deps RouterDeps) {
	auth := AuthMiddleware(deps.JWTSecret)
	api := app.Group("/api", auth)

	stockRoles := []string{jwt.RoleAdmin, jwt.RoleBodeguero}
	saleRoles := []string{jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor}

	NewMovementHandler(deps.Purchases, deps.Receipts, deps.RequestTimeout).Register(api.Group("/purchases"), stockRoles...)
	NewMovementHandler(deps.Sales, deps.Receipts, deps.RequestTimeout).Register(api.Group("/sales"), saleRoles...)
	NewMovementHandler(deps.Supplies, deps.Receipts, deps.RequestTimeout).Register(api.Group("/supplies"), stockRoles...)

	// Products: solo lectura de existencias; low-stock antes de :id
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Stock)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)

	if deps.AlertsHub != nil {
		app.Get("/ws/alerts", requireUpgrade, tokenFromQuery, auth, AlertsWebSocket(deps.AlertsHub))
	}
}
