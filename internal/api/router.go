package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"waitlist-backend/config"
	"waitlist-backend/internal/engine"
	"waitlist-backend/internal/mw"
	"waitlist-backend/internal/store"
)

// NewRouter creates and configures a new Gin router for the waitlist API.
func NewRouter(cfg config.ServerConfig, eng *engine.Engine, s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(eng, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/queue", handler.PostQueue)
		api.GET("/queue", handler.GetQueue)
		api.GET("/queue/:entry_id", handler.GetQueueEntry)
		api.POST("/queue/:entry_id/seat", handler.PostSeat)
		api.POST("/queue/:entry_id/finish", handler.PostFinish)
		api.POST("/queue/:entry_id/cancel", handler.PostCancel)

		// The table board drives callNext decisions, so it is never cached.
		api.GET("/tables", handler.GetTables)
		api.POST("/tables/:table_id/call", handler.PostCallNext)

		api.GET("/stats/daily", caching, handler.GetDailyStats)

		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
