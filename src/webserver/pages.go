package webserver

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptverse/promptfeed/src/paging"
)

// pageBody is the optional page part of a JSON filter body.
type pageBody struct {
	Page     *int `json:"page"`
	PageSize *int `json:"page_size"`
}

func (s *Server) pageFromBody(b pageBody) (paging.Request, error) {
	req := paging.Request{Page: 1, PageSize: s.cfg.DefaultPageSize}
	if b.Page != nil {
		req.Page = *b.Page
	}
	if b.PageSize != nil {
		req.PageSize = *b.PageSize
	}
	return req, req.Validate(s.cfg.MaxPageSize)
}

// pageFromQuery reads ?page=&page_size=, defaulting absent values.
func (s *Server) pageFromQuery(c *gin.Context) (paging.Request, error) {
	req := paging.Request{Page: 1, PageSize: s.cfg.DefaultPageSize}
	for key, dst := range map[string]*int{"page": &req.Page, "page_size": &req.PageSize} {
		raw, ok := c.GetQuery(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%s must be an integer", key)
		}
		*dst = n
	}
	return req, req.Validate(s.cfg.MaxPageSize)
}

// promptList renders a page under the "prompts" key used by the catalog
// endpoints.
func promptList[T any](r paging.Result[T]) gin.H {
	return gin.H{
		"prompts":   r.Results,
		"total":     r.Total,
		"page":      r.Page,
		"page_size": r.PageSize,
	}
}

// optionalBool tells an absent JSON field apart from an explicit null.
type optionalBool struct {
	set   bool
	value *bool
}

func (o *optionalBool) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

func parseID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid prompt id %q", c.Param("id"))
	}
	return id, nil
}
