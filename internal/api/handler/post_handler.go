package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/updoot/discussion-backend/internal/api/middleware"
	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

type PostHandler struct {
	postService ports.PostService
}

func NewPostHandler(postService ports.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

type createPostRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Text  string `json:"text"`
}

type voteRequest struct {
	Value int `json:"value" validate:"required,oneof=1 -1"`
}

type postResponse struct {
	ID         int64         `json:"id"`
	Title      string        `json:"title"`
	Text       string        `json:"text"`
	Points     int           `json:"points"`
	Author     *userResponse `json:"author,omitempty"`
	VoteStatus *int          `json:"vote_status,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type postPage struct {
	Posts      []postResponse `json:"posts"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type postResult struct {
	Post   *postResponse       `json:"post,omitempty"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

// Create inserts a new post authored by the session user.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        body  body      createPostRequest  true  "Post contents"
// @Success      201   {object}  postResult
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess := middleware.SessionFromContext(c)
	authorID, _ := sess.CurrentUserID()
	post, ferrs, err := h.postService.Create(c.Request().Context(), authorID, req.Title, req.Text)
	if err != nil {
		return err
	}
	if len(ferrs) > 0 {
		return c.JSON(http.StatusOK, postResult{Errors: ferrs})
	}

	resp := presentPost(*post, nil, nil)
	return c.JSON(http.StatusCreated, postResult{Post: &resp})
}

// List returns a page of posts newest first, with authors and the viewer's
// vote status resolved through the per-request loaders: one bulk fetch per
// entity type for the whole page, however many rows reference them.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Param        limit   query     int     false  "Page size (max 50)"
// @Param        cursor  query     string  false  "RFC3339 creation time to page from"
// @Success      200     {object}  postPage
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	var cursor time.Time
	if raw := c.QueryParam("cursor"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
		cursor = parsed
	}

	ctx := c.Request().Context()
	posts, err := h.postService.List(ctx, limit, cursor)
	if err != nil {
		return err
	}

	sess := middleware.SessionFromContext(c)
	loaders := middleware.LoadersFromContext(c)

	authorIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; !ok {
			seen[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}
	authors, err := loaders.Users.LoadAll(ctx, authorIDs)
	if err != nil {
		return err
	}

	var votes map[domain.UpdootKey]int
	if viewerID, ok := sess.CurrentUserID(); ok {
		keys := make([]domain.UpdootKey, len(posts))
		for i, p := range posts {
			keys[i] = domain.UpdootKey{UserID: viewerID, PostID: p.ID}
		}
		votes, err = loaders.Updoots.LoadAll(ctx, keys)
		if err != nil {
			return err
		}
	}

	page := postPage{Posts: make([]postResponse, 0, len(posts))}
	viewerID, _ := sess.CurrentUserID()
	for _, p := range posts {
		var author *userResponse
		if a, ok := authors[p.AuthorID]; ok {
			author = presentUser(&a, sess)
		}
		var voteStatus *int
		if v, ok := votes[domain.UpdootKey{UserID: viewerID, PostID: p.ID}]; ok {
			value := v
			voteStatus = &value
		}
		page.Posts = append(page.Posts, presentPost(p, author, voteStatus))
	}
	if len(posts) > 0 {
		page.NextCursor = posts[len(posts)-1].CreatedAt.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, page)
}

// Get returns a single post with its author resolved.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        id   path      int  true  "Post id"
// @Success      200  {object}  postResponse
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	ctx := c.Request().Context()
	post, err := h.postService.Get(ctx, id)
	if err != nil {
		return err
	}

	sess := middleware.SessionFromContext(c)
	loaders := middleware.LoadersFromContext(c)

	var author *userResponse
	if a, ok, err := loaders.Users.Load(ctx, post.AuthorID); err != nil {
		return err
	} else if ok {
		author = presentUser(&a, sess)
	}

	resp := presentPost(*post, author, nil)
	return c.JSON(http.StatusOK, resp)
}

// Vote records the session user's vote on a post.
//
// @Summary      Vote on a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Post id"
// @Param        body  body      voteRequest  true  "Vote value"
// @Success      200   {object}  okResponse
// @Router       /posts/{id}/vote [post]
func (h *PostHandler) Vote(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess := middleware.SessionFromContext(c)
	userID, _ := sess.CurrentUserID()
	if err := h.postService.Vote(c.Request().Context(), userID, id, req.Value); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func presentPost(p domain.Post, author *userResponse, voteStatus *int) postResponse {
	return postResponse{
		ID:         p.ID,
		Title:      p.Title,
		Text:       p.Text,
		Points:     p.Points,
		Author:     author,
		VoteStatus: voteStatus,
		CreatedAt:  p.CreatedAt,
	}
}
