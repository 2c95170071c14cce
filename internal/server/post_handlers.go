package server

import "github.com/gofiber/fiber/v2"

// GetPosts handles GET / and GET /api/posts
//
// @Summary      List posts
// @Description  One page of posts, optionally filtered by a case-insensitive substring over every column, plus the total number of matching posts.
// @Tags         posts
// @Produce      json
// @Param        page       query     int     false  "0-based page index"            minimum(0) default(0)
// @Param        pageSize   query     int     false  "Rows per page"                 minimum(1) default(10)
// @Param        sortBy     query     string  false  "Sort column"                   Enums(id, title, content, created_at) default(id)
// @Param        sortOrder  query     string  false  "Sort direction"                Enums(asc, desc) default(asc)
// @Param        search     query     string  false  "Substring to match"
// @Success      200        {object}  models.PaginatedResponse[models.Post]
// @Failure      400        {object}  models.ErrorResponse
// @Failure      429        {object}  models.ErrorResponse
// @Failure      500        {object}  models.ErrorResponse
// @Router       /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	params, err := parseListingParams(c)
	if err != nil {
		return s.respondError(c, err)
	}

	resp, err := s.postService.ListPosts(c.UserContext(), params)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(resp)
}
