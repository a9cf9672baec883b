package webserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptverse/promptfeed/src/types"
)

const defaultTopLiked = 10

type engageRequest struct {
	PromptID    uint64           `json:"prompt_id" binding:"required"`
	PromptType  types.PromptType `json:"prompt_type" binding:"required,prompttype"`
	UserAccount string           `json:"user_account" binding:"required"`
}

func (s *Server) likePrompt(c *gin.Context) {
	var req engageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Index.Like(c.Request.Context(), req.PromptID, req.PromptType, req.UserAccount); err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prompt liked successfully"})
}

func (s *Server) commentPrompt(c *gin.Context) {
	var req struct {
		engageRequest
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cm, err := s.Index.Comment(c.Request.Context(), req.PromptID, req.PromptType, req.UserAccount, req.Comment)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment added successfully", "comment": cm})
}

// limit reads ?limit=, bounded by the configured max page size.
func (s *Server) limit(c *gin.Context, def int) (int, error) {
	raw, ok := c.GetQuery("limit")
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > s.cfg.MaxPageSize {
		return 0, fmt.Errorf("limit must be between 1 and %d", s.cfg.MaxPageSize)
	}
	return n, nil
}

func (s *Server) promptComments(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	n, err := s.limit(c, s.cfg.DefaultPageSize)
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	p, err := s.Catalog.Get(ctx, id)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	comments, err := s.Index.TopComments(ctx, p.ID, p.PromptType, n)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type followRequest struct {
	FollowerAccount string `json:"follower_account" binding:"required"`
	CreatorAccount  string `json:"creator_account" binding:"required"`
}

func (s *Server) follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Index.Follow(c.Request.Context(), req.FollowerAccount, req.CreatorAccount); err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Followed"})
}

func (s *Server) unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Index.Unfollow(c.Request.Context(), req.FollowerAccount, req.CreatorAccount); err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}

// topLiked ranks prompts by the creators in ?account= (repeatable).
func (s *Server) topLiked(c *gin.Context) {
	n, err := s.limit(c, defaultTopLiked)
	if err != nil {
		badRequest(c, err)
		return
	}
	items, err := s.Index.TopLikedItems(c.Request.Context(), c.QueryArray("account"), n)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	cachedJSON(c, gin.H{"results": items})
}
