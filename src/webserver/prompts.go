package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptverse/promptfeed/src/prompts"
	"github.com/promptverse/promptfeed/src/types"
)

type promptRequest struct {
	IPFSImageURL   string          `json:"ipfs_image_url" binding:"required"`
	Prompt         string          `json:"prompt" binding:"required"`
	AccountAddress string          `json:"account_address" binding:"required"`
	PostName       string          `json:"post_name" binding:"required"`
	Public         bool            `json:"public"`
	PromptTag      types.PromptTag `json:"prompt_tag" binding:"required,prompttag"`
	CollectionName *string         `json:"collection_name"`
	MaxSupply      *int            `json:"max_supply"`
	PromptNFTPrice *string         `json:"prompt_nft_price"`
}

func (r promptRequest) draft() prompts.Draft {
	return prompts.Draft{
		IPFSImageURL:   r.IPFSImageURL,
		Prompt:         r.Prompt,
		AccountAddress: r.AccountAddress,
		PostName:       r.PostName,
		Public:         r.Public,
		PromptTag:      r.PromptTag,
		CollectionName: r.CollectionName,
		MaxSupply:      r.MaxSupply,
		PromptNFTPrice: r.PromptNFTPrice,
	}
}

func (s *Server) addPublicPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.Catalog.CreatePublic(c.Request.Context(), req.draft())
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Public prompt created", "prompt": p})
}

func (s *Server) addPremiumPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.Catalog.CreatePremium(c.Request.Context(), req.draft())
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Premium prompt created", "prompt": p})
}

func (s *Server) getPublicPrompts(c *gin.Context) {
	req, err := s.pageFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.Catalog.ListPublic(c.Request.Context(), req)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	cachedJSON(c, promptList(res))
}

func (s *Server) filterPublicPrompts(c *gin.Context) {
	var req struct {
		PromptTag string       `json:"prompt_tag"`
		Public    optionalBool `json:"public"`
		pageBody
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page, err := s.pageFromBody(req.pageBody)
	if err != nil {
		badRequest(c, err)
		return
	}

	// An absent visibility flag filters to public=true; explicit null
	// disables the filter.
	public := req.Public.value
	if !req.Public.set {
		yes := true
		public = &yes
	}

	res, err := s.Catalog.FilterPublic(c.Request.Context(), req.PromptTag, public, page)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	cachedJSON(c, promptList(res))
}

func (s *Server) getPremiumPrompts(c *gin.Context) {
	req, err := s.pageFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.Catalog.ListPremium(c.Request.Context(), req)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	cachedJSON(c, promptList(res))
}

func (s *Server) filterPremiumPrompts(c *gin.Context) {
	var req struct {
		FilterType types.FilterType `json:"filter_type" binding:"omitempty,filtertype"`
		pageBody
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page, err := s.pageFromBody(req.pageBody)
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.Ranker.List(c.Request.Context(), types.PromptTypePremium, req.FilterType, page)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	// popular is reshuffled per request, so an ETag would never match
	if req.FilterType == types.FilterPopular {
		c.JSON(http.StatusOK, promptList(res))
		return
	}
	cachedJSON(c, promptList(res))
}

func (s *Server) premiumPromptFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"premium_prompt_filters": s.Catalog.FilterTypes()})
}

func (s *Server) promptTags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompt_tags": s.Catalog.Tags()})
}

func (s *Server) getPrompt(c *gin.Context) {
	id, err := parseID(c)
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
	likes, err := s.Index.CountLikes(ctx, p.ID, p.PromptType)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	comments, err := s.Index.CountComments(ctx, p.ID, p.PromptType)
	if err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": p, "likes": likes, "comments": comments})
}

func (s *Server) deletePrompt(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	owner := c.Query("account_address")
	if owner == "" {
		owner = c.GetHeader(AccountHeader)
	}
	if err := s.Catalog.Delete(c.Request.Context(), id, owner); err != nil {
		fail(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prompt deleted"})
}
