package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/blogposts/api"
	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/internal/middleware"
)

type PostService interface {
	Index(ctx context.Context, page int) (*domain.Page[*domain.Post], error)
	Create(ctx context.Context, actorID int64) (string, error)
	Store(ctx context.Context, actorID int64, in domain.NewPost) (*domain.Post, error)
	Show(ctx context.Context, id int64) (*domain.Post, error)
	Edit(ctx context.Context, id int64, actorID int64) (string, error)
	Update(ctx context.Context, id int64, actorID int64, changes domain.PostChanges) (*domain.Post, error)
	Destroy(ctx context.Context, id int64, actorID int64) error
}

type PostHandler struct {
	posts PostService
}

func NewPostHandler(posts PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) Index(c *gin.Context) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}

	result, err := h.posts.Index(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewPostPage(result))
}

func (h *PostHandler) Create(c *gin.Context) {
	actorID, _ := middleware.UserID(c)
	view, err := h.posts.Create(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.View{View: view})
}

func (h *PostHandler) Store(c *gin.Context) {
	var req api.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	actorID, _ := middleware.UserID(c)
	post, err := h.posts.Store(c.Request.Context(), actorID, req.ToDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.NewPost(post))
}

func (h *PostHandler) Show(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	post, err := h.posts.Show(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewPost(post))
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	actorID, _ := middleware.UserID(c)
	view, err := h.posts.Edit(c.Request.Context(), id, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.View{View: view})
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	var req api.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	actorID, _ := middleware.UserID(c)
	post, err := h.posts.Update(c.Request.Context(), id, actorID, req.ToDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewPost(post))
}

func (h *PostHandler) Destroy(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	actorID, _ := middleware.UserID(c)
	if err := h.posts.Destroy(c.Request.Context(), id, actorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// postID parses the :id path segment. Anything that cannot name a post is a 404.
func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domain.ErrNotFound)
		return 0, false
	}
	return id, true
}
