package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stub of the four upstream providers (rates, identity, attachment store,
// mail) so the gateway can run end to end on a laptop. State lives in memory
// and resets on restart.

type rateResponse struct {
	CurrencyCode string  `json:"currency_code"`
	Rate         float64 `json:"rate"`
}

type account struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	password string
}

type sessionResponse struct {
	Identity identityResponse `json:"identity"`
	Tokens   tokensResponse   `json:"tokens"`
}

type identityResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type emailRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MockProviders holds the in-memory state behind every stubbed endpoint.
type MockProviders struct {
	mu       sync.Mutex
	rates    map[string]float64
	accounts map[string]*account
	objects  map[string][]byte
	emails   []emailRequest
	nextID   int64
}

func NewMockProviders() *MockProviders {
	return &MockProviders{
		rates: map[string]float64{
			"GHS": 0.52,
			"NGN": 0.0095,
			"KES": 0.055,
			"USD": 7.12,
		},
		accounts: make(map[string]*account),
		objects:  make(map[string][]byte),
		nextID:   1,
	}
}

func (m *MockProviders) session(a *account) sessionResponse {
	return sessionResponse{
		Identity: identityResponse{ID: a.ID, Name: a.Name, Email: a.Email},
		Tokens: tokensResponse{
			AccessToken:  uuid.NewString(),
			RefreshToken: uuid.NewString(),
		},
	}
}

func (m *MockProviders) GetRate(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	m.mu.Lock()
	rate, ok := m.rates[code]
	m.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown currency " + code})
		return
	}

	log.Info().Str("currency", code).Float64("rate", rate).Msg("Rate quoted")
	c.JSON(http.StatusOK, rateResponse{CurrencyCode: code, Rate: rate})
}

func (m *MockProviders) SetRate(c *gin.Context) {
	var req rateResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	m.mu.Lock()
	m.rates[strings.ToUpper(req.CurrencyCode)] = req.Rate
	m.mu.Unlock()

	log.Info().Str("currency", req.CurrencyCode).Float64("rate", req.Rate).Msg("Rate updated")
	c.JSON(http.StatusOK, req)
}

func (m *MockProviders) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[req.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	a := &account{ID: m.nextID, Name: req.Name, Email: req.Email, password: req.Password}
	m.nextID++
	m.accounts[req.Email] = a

	log.Info().Int64("id", a.ID).Str("email", a.Email).Msg("Account registered")
	c.JSON(http.StatusCreated, m.session(a))
}

func (m *MockProviders) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	m.mu.Lock()
	a, ok := m.accounts[req.Email]
	m.mu.Unlock()

	if !ok || a.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	log.Info().Int64("id", a.ID).Msg("Session issued")
	c.JSON(http.StatusOK, m.session(a))
}

func (m *MockProviders) SetPhone(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	id := c.Param("id")

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if fmt.Sprintf("%d", a.ID) == id {
			a.Phone = req.Phone
			c.JSON(http.StatusOK, gin.H{"id": a.ID, "phone": a.Phone})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
}

func (m *MockProviders) PutObject(c *gin.Context) {
	key := c.Param("key")
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	log.Info().Str("key", key).Int("bytes", len(data)).Msg("Object stored")
	c.JSON(http.StatusOK, gin.H{"key": key, "size": len(data)})
}

func (m *MockProviders) GetObject(c *gin.Context) {
	key := c.Param("key")

	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (m *MockProviders) DeleteObject(c *gin.Context) {
	key := c.Param("key")

	m.mu.Lock()
	_, ok := m.objects[key]
	delete(m.objects, key)
	m.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}

	log.Info().Str("key", key).Msg("Object deleted")
	c.Status(http.StatusOK)
}

func (m *MockProviders) SendEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	m.mu.Lock()
	m.emails = append(m.emails, req)
	total := len(m.emails)
	m.mu.Unlock()

	log.Info().Str("to", req.To).Str("subject", req.Subject).Int("total", total).Msg("Email accepted")
	c.JSON(http.StatusAccepted, gin.H{"id": uuid.NewString()})
}

// ListEmails exposes accepted mail for e2e assertions.
func (m *MockProviders) ListEmails(c *gin.Context) {
	m.mu.Lock()
	emails := make([]emailRequest, len(m.emails))
	copy(emails, m.emails)
	m.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

func (m *MockProviders) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

func SetupRouter(m *MockProviders) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/rates/:code", m.GetRate)
		v1.PUT("/rates", m.SetRate)
		v1.POST("/accounts", m.Register)
		v1.POST("/sessions", m.Login)
		v1.PUT("/accounts/:id/phone", m.SetPhone)
		v1.POST("/emails", m.SendEmail)
		v1.GET("/emails", m.ListEmails)
		v1.GET("/health", m.HealthCheck)
	}

	objects := router.Group("/objects")
	{
		objects.PUT("/:key", m.PutObject)
		objects.GET("/:key", m.GetObject)
		objects.DELETE("/:key", m.DeleteObject)
	}

	router.GET("/health", m.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8081")

	log.Info().Str("port", port).Msg("Starting provider stub")

	providers := NewMockProviders()
	router := SetupRouter(providers)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
