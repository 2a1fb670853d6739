package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/config"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
)

type FeedHandler struct {
	feedService    *services.FeedService
	likeService    *services.LikeService
	commentService *services.CommentService
	config         *config.FeedConfig
	logger         *logger.Logger
}

func NewFeedHandler(
	feedService *services.FeedService,
	likeService *services.LikeService,
	commentService *services.CommentService,
	config *config.FeedConfig,
	logger *logger.Logger,
) *FeedHandler {
	return &FeedHandler{
		feedService:    feedService,
		likeService:    likeService,
		commentService: commentService,
		config:         config,
		logger:         logger,
	}
}

// page reads pagination parameters; a size above the configured maximum is rejected.
func (h *FeedHandler) page(c *gin.Context, pageKey, sizeKey string) (int, int, bool) {
	page, size, ok := pageQuery(c, pageKey, sizeKey, h.config.DefaultPageSize)
	if !ok {
		return 0, 0, false
	}
	if h.config.MaxPageSize > 0 && size > h.config.MaxPageSize {
		writeError(c, h.logger, fmt.Errorf("%w: pageSize %d exceeds %d", services.ErrInvalidPage, size, h.config.MaxPageSize))
		return 0, 0, false
	}
	return page, size, true
}

func (h *FeedHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !actingAs(c, h.logger, req.UserID) {
		return
	}

	post, err := h.feedService.CreatePost(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *FeedHandler) GetPost(c *gin.Context) {
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}

	post, err := h.feedService.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *FeedHandler) DeletePost(c *gin.Context) {
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}

	// 只有作者可以删除
	post, err := h.feedService.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !actingAs(c, h.logger, post.UserID) {
		return
	}

	if err := h.feedService.DeletePost(c.Request.Context(), postID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetWallPosts returns the friend feed of :userId.
func (h *FeedHandler) GetWallPosts(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	pageNumber, pageSize, ok := h.page(c, "pageNumber", "pageSize")
	if !ok {
		return
	}

	posts, err := h.feedService.GetPosts(c.Request.Context(), userID, pageNumber, pageSize)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *FeedHandler) GetUserPosts(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	pageNumber, pageSize, ok := h.page(c, "pageNumber", "pageSize")
	if !ok {
		return
	}

	posts, err := h.feedService.GetUserPosts(c.Request.Context(), userID, pageNumber, pageSize)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *FeedHandler) CreateComment(c *gin.Context) {
	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var parentID *uint
	if c.Query("parentCommentId") != "" {
		id, ok := uintQuery(c, "parentCommentId")
		if !ok {
			return
		}
		parentID = &id
	}
	if !actingAs(c, h.logger, req.UserID) {
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), parentID, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *FeedHandler) GetComment(c *gin.Context) {
	commentID, ok := uintParam(c, "commentId")
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *FeedHandler) GetPostComments(c *gin.Context) {
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}
	pageNr, pageSize, ok := h.page(c, "pageNr", "pageSize")
	if !ok {
		return
	}

	comments, err := h.commentService.GetCommentsByPostID(c.Request.Context(), postID, pageNr, pageSize)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *FeedHandler) GetChildComments(c *gin.Context) {
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}
	parentID, ok := uintParam(c, "parentCommentId")
	if !ok {
		return
	}

	comments, err := h.commentService.GetCommentsByParentCommentID(c.Request.Context(), postID, parentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// DeleteComment removes the comment together with its replies.
func (h *FeedHandler) DeleteComment(c *gin.Context) {
	commentID, ok := uintParam(c, "commentId")
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !actingAs(c, h.logger, comment.UserID) {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), commentID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeletePostComments clears the comment section; only the post author may do it.
func (h *FeedHandler) DeletePostComments(c *gin.Context) {
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}

	post, err := h.feedService.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !actingAs(c, h.logger, post.UserID) {
		return
	}

	if err := h.commentService.DeleteCommentsFromPost(c.Request.Context(), postID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) DeleteUserComments(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	if !actingAs(c, h.logger, userID) {
		return
	}

	if err := h.commentService.DeleteUserComments(c.Request.Context(), userID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) CreateLike(c *gin.Context) {
	var req services.CreateLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !actingAs(c, h.logger, req.UserID) {
		return
	}

	like, err := h.likeService.CreateLike(c.Request.Context(), req.UserID, req.PostID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, like)
}

func (h *FeedHandler) GetLike(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}

	like, err := h.likeService.GetLike(c.Request.Context(), userID, postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, like)
}

func (h *FeedHandler) DeleteLike(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}
	if !actingAs(c, h.logger, userID) {
		return
	}

	if err := h.likeService.DeleteLike(c.Request.Context(), userID, postID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) GetPostLikes(c *gin.Context) {
	postID, ok := uintParam(c, "postId")
	if !ok {
		return
	}

	likes, err := h.likeService.GetLikesFromPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, likes)
}
