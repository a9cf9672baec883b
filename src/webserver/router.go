package webserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/config"
	"github.com/promptverse/promptfeed/src/engagement"
	"github.com/promptverse/promptfeed/src/feed"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/metrics"
	"github.com/promptverse/promptfeed/src/prompts"
	"github.com/promptverse/promptfeed/src/ranking"
	"github.com/promptverse/promptfeed/src/stats"
)

// Deps are the components the routes delegate to.
type Deps struct {
	DB      *gorm.DB
	Catalog *prompts.Catalog
	Ranker  *ranking.Ranker
	Index   *engagement.Index
	Feed    *feed.Composer
	Ledger  *stats.Ledger
	Metrics *metrics.Collector
	Log     *zap.Logger
}

type Server struct {
	Deps
	cfg config.Config
	log *zap.Logger
}

// New builds the gin engine with every route attached.
func New(cfg config.Config, d Deps) *gin.Engine {
	registerValidators()

	s := &Server{Deps: d, cfg: cfg, log: logging.OrNop(d.Log)}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLog(s.log), Observe(d.Metrics))
	attachRoutes(r, s)
	return r
}

func attachRoutes(r *gin.Engine, s *Server) {
	r.Use(cors.New(corsConfig(s.cfg.AllowedOrigins)))

	limiter := NewRateLimiter(s.cfg.RateLimit, s.cfg.RateWindow)
	write := r.Group("/", RateLimitMiddleware(limiter))

	// prompt catalog
	write.POST("/add-public-prompts/", s.addPublicPrompt)
	write.POST("/add-premium-prompts/", s.addPremiumPrompt)
	r.GET("/get-public-prompts/", s.getPublicPrompts)
	r.POST("/filter-public-prompts/", s.filterPublicPrompts)
	r.GET("/get-premium-prompts/", s.getPremiumPrompts)
	r.POST("/filter-premium-prompts/", s.filterPremiumPrompts)
	r.GET("/premium-prompt-filters/", s.premiumPromptFilters)
	r.GET("/prompt-tags/", s.promptTags)
	r.GET("/prompts/:id", s.getPrompt)
	write.DELETE("/prompts/:id", s.deletePrompt)

	// engagement
	write.POST("/like-prompt/", s.likePrompt)
	write.POST("/comment-prompt/", s.commentPrompt)
	r.GET("/prompts/:id/comments", s.promptComments)
	write.POST("/follow/", s.follow)
	write.DELETE("/follow/", s.unfollow)
	r.GET("/top-liked/", s.topLiked)

	// feeds
	r.GET("/feed/:account", s.feed)
	r.GET("/feed/:account/followers", s.followersFeed)
	r.GET("/feed/:account/following", s.followingFeed)

	// stats
	lb := r.Group("/leaderboard")
	lb.GET("/xp/", s.leaderboard(stats.BoardXP))
	lb.GET("/streaks/", s.leaderboard(stats.BoardStreaks))
	lb.GET("/generations-24h/", s.leaderboard(stats.BoardGenerations24h))
	r.GET("/stats/:account", s.userStats)

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", AccountHeader, requestIDHeader, "If-None-Match"},
		ExposeHeaders: []string{"Content-Length", "ETag", requestIDHeader},
	}
	// cors panics on an empty origin list
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
