// handlers.go

package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type App struct {
	cfg     *Config
	store   Store
	gateway PaymentGateway
}

func NewApp(cfg *Config, store Store, gateway PaymentGateway) *App {
	return &App{cfg: cfg, store: store, gateway: gateway}
}

func setupRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	if len(app.cfg.AllowedOrigins) == 1 && app.cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = app.cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", app.liveness)
	r.POST("/jwt-sing", app.signJWT)

	r.GET("/menus", app.listMenus)
	r.GET("/menu/:id", app.getMenu)
	r.PATCH("/menu/:id", app.updateMenu)
	r.GET("/reviews", app.listReviews)

	r.POST("/carts", app.createCart)
	r.GET("/carts", app.listCarts)
	r.DELETE("/carts/:id", app.deleteCart)

	r.POST("/users", app.createUser)
	r.DELETE("/users/:id", app.deleteUser)
	r.PATCH("/user/admin/:id", app.grantAdmin)

	r.POST("/create-payment-intent", app.createPaymentIntent)
	r.POST("/payments", app.recordPayment)

	r.GET("/admin-status", app.adminStatus)
	r.GET("/order-stats", app.orderStats)

	authed := r.Group("/", AuthMiddleware(app.cfg.JWTSecret))
	{
		authed.GET("/user/admin/:email", app.checkAdmin)
		authed.GET("/payments-history/:email", app.paymentHistory)

		admin := authed.Group("/", AdminMiddleware(app.store))
		{
			admin.POST("/menus", app.createMenu)
			admin.DELETE("/menu/:id", app.deleteMenu)
			admin.GET("/users", app.listUsers)
		}
	}

	return r
}

func (app *App) liveness(c *gin.Context) {
	c.String(http.StatusOK, "boss restaurant server is running")
}

// ----- Auth -----

func (app *App) signJWT(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	token, err := signUserToken(app.cfg.JWTSecret, payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ----- Menus -----

func (app *App) listMenus(c *gin.Context) {
	items, err := app.store.ListMenus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (app *App) getMenu(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	item, err := app.store.GetMenu(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// missing document comes back as a JSON null, not a 404
	c.JSON(http.StatusOK, item)
}

func (app *App) createMenu(c *gin.Context) {
	var item MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	res, err := app.store.InsertMenu(c.Request.Context(), item)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (app *App) updateMenu(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var upd MenuUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	res, err := app.store.UpdateMenu(c.Request.Context(), id, upd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (app *App) deleteMenu(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res, err := app.store.DeleteMenu(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ----- Reviews -----

func (app *App) listReviews(c *gin.Context) {
	reviews, err := app.store.ListReviews(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// ----- Carts -----

func (app *App) createCart(c *gin.Context) {
	var item CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	res, err := app.store.InsertCart(c.Request.Context(), item)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (app *App) listCarts(c *gin.Context) {
	items, err := app.store.ListCarts(c.Request.Context(), c.Query("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (app *App) deleteCart(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res, err := app.store.DeleteCart(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ----- Users -----

func (app *App) createUser(c *gin.Context) {
	var user User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	existing, err := app.store.FindUserByEmail(c.Request.Context(), user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusOK, gin.H{"message": "already create this account"})
		return
	}
	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		user.Password = string(hashed)
	}
	res, err := app.store.InsertUser(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (app *App) listUsers(c *gin.Context) {
	users, err := app.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range users {
		users[i].Password = "" // don't send back
	}
	c.JSON(http.StatusOK, users)
}

func (app *App) checkAdmin(c *gin.Context) {
	email := c.Param("email")
	if email != c.GetString("email") {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized Access"})
		return
	}
	user, err := app.store.FindUserByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	admin := user != nil && user.Role == "admin"
	c.JSON(http.StatusOK, gin.H{"admin": admin})
}

func (app *App) grantAdmin(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res, err := app.store.GrantAdmin(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (app *App) deleteUser(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res, err := app.store.DeleteUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ----- Payments -----

func (app *App) createPaymentIntent(c *gin.Context) {
	var req struct {
		Price float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	clientSecret, err := app.gateway.CreateIntent(req.Price)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": clientSecret})
}

func (app *App) recordPayment(c *gin.Context) {
	var payment Payment
	if err := c.ShouldBindJSON(&payment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	cartIDs := make([]primitive.ObjectID, 0, len(payment.CartIDs))
	for _, raw := range payment.CartIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart id"})
			return
		}
		cartIDs = append(cartIDs, id)
	}

	paymentResult, err := app.store.InsertPayment(c.Request.Context(), payment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// not transactional: the payment record is already in; cart cleanup is
	// idempotent and can be replayed from the logged payment id
	deleteResult, err := app.store.DeleteCarts(c.Request.Context(), cartIDs)
	if err != nil {
		logrus.WithField("paymentId", paymentResult.InsertedID).
			WithError(err).Warn("payment recorded but cart cleanup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentResult": paymentResult, "deleteResult": deleteResult})
}

func (app *App) paymentHistory(c *gin.Context) {
	email := c.Param("email")
	if email != c.GetString("email") {
		c.String(http.StatusForbidden, "forbidden access")
		return
	}
	payments, err := app.store.ListPaymentsByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// ----- Aggregations -----

func (app *App) adminStatus(c *gin.Context) {
	stats, err := app.store.AdminStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (app *App) orderStats(c *gin.Context) {
	stats, err := app.store.OrderStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
