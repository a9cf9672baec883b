package webserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptverse/promptfeed/src/feed"
	"github.com/promptverse/promptfeed/src/paging"
	"github.com/promptverse/promptfeed/src/stats"
)

type feedFunc func(ctx context.Context, viewer string, req paging.Request) (paging.Result[feed.Entry], error)

// Feeds are reshuffled per request, so they are never ETagged.
func (s *Server) serveFeed(c *gin.Context, compose feedFunc) {
	req, err := s.pageFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := compose(c.Request.Context(), c.Param("account"), req)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) feed(c *gin.Context)          { s.serveFeed(c, s.Feed.Feed) }
func (s *Server) followersFeed(c *gin.Context) { s.serveFeed(c, s.Feed.FollowersFeed) }
func (s *Server) followingFeed(c *gin.Context) { s.serveFeed(c, s.Feed.FollowingFeed) }

func (s *Server) leaderboard(board stats.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := s.pageFromQuery(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		res, err := s.Ledger.Leaderboard(c.Request.Context(), board, req)
		if err != nil {
			fail(c, s.log, err)
			return
		}
		cachedJSON(c, res)
	}
}

func (s *Server) userStats(c *gin.Context) {
	stat, err := s.Ledger.Get(c.Request.Context(), c.Param("account"))
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, stat)
}
