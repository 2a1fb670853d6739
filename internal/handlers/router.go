package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/middleware"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	User       *UserHandler
	Friendship *FriendshipHandler
	Feed       *FeedHandler
	Chat       *ChatHandler
	Activity   *ActivityHandler
	// ChatHub upgrades /chatHub; nil disables the route.
	ChatHub gin.HandlerFunc
}

// RegisterRoutes mounts the public and authenticated routes on router.
func RegisterRoutes(router *gin.Engine, h *Handlers, jwtConfig *middleware.JWTConfig) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	router.POST("/register", h.User.Register)
	router.POST("/login", h.User.Login)

	auth := middleware.NewJWTAuth(jwtConfig)

	if h.ChatHub != nil {
		router.GET("/chatHub", auth, h.ChatHub)
	}

	api := router.Group("/api")
	api.Use(auth)
	{
		api.POST("/exercises", h.Activity.CreateExercise)
		api.GET("/exercises/:id", h.Activity.GetExercise)

		users := api.Group("/users")

		// 好友
		users.POST("/friends", h.Friendship.CreateFriendship)
		users.GET("/friends/:friendshipId", h.Friendship.GetFriendship)
		users.GET("/:userId/friends", h.Friendship.GetFriends)
		users.GET("/:userId/friends/requests", h.Friendship.GetFriendRequests)
		users.GET("/:userId/friends/:friendId", h.Friendship.GetFriendshipByUsers)
		users.PUT("/:userId/friends/:friendId/accept", h.Friendship.AcceptFriendship)
		users.PUT("/:userId/friends/:friendId/decline", h.Friendship.DeclineFriendship)
		users.DELETE("/:userId/friends/:friendId", h.Friendship.DeleteFriendship)

		// 帖子
		users.POST("/posts", h.Feed.CreatePost)
		users.GET("/posts/:postId", h.Feed.GetPost)
		users.DELETE("/posts/:postId", h.Feed.DeletePost)
		users.GET("/:userId/wall/posts", h.Feed.GetWallPosts)
		users.GET("/:userId/posts", h.Feed.GetUserPosts)

		// 评论
		users.POST("/posts/comments", h.Feed.CreateComment)
		users.GET("/posts/comments/:commentId", h.Feed.GetComment)
		users.DELETE("/posts/comments/:commentId", h.Feed.DeleteComment)
		users.GET("/posts/:postId/comments", h.Feed.GetPostComments)
		users.GET("/posts/:postId/comments/:parentCommentId", h.Feed.GetChildComments)
		users.DELETE("/posts/:postId/comments", h.Feed.DeletePostComments)
		users.DELETE("/:userId/comments", h.Feed.DeleteUserComments)

		// 点赞
		users.POST("/posts/likes", h.Feed.CreateLike)
		users.GET("/:userId/posts/:postId/likes", h.Feed.GetLike)
		users.DELETE("/:userId/posts/:postId/likes", h.Feed.DeleteLike)
		users.GET("/posts/:postId/likes", h.Feed.GetPostLikes)

		// 私信
		users.POST("/messages", h.Chat.CreateMessage)
		users.GET("/messages/:id", h.Chat.GetMessage)
		users.GET("/messages/:id/:to", h.Chat.GetMessages)
		users.GET("/messages/:id/:to/new", h.Chat.GetNumberOfNewMessages)
		users.PUT("/messages/:id/:to", h.Chat.MarkMessagesRead)

		// 运动与目标
		users.POST("/workouts", h.Activity.CreateWorkout)
		users.GET("/workouts/:id", h.Activity.GetWorkout)
		users.DELETE("/workouts/:id", h.Activity.DeleteWorkout)
		users.POST("/workouts/exercises", h.Activity.AddExerciseToWorkout)
		users.POST("/goals", h.Activity.CreateGoal)
		users.POST("/goals/types", h.Activity.CreateGoalType)
		users.GET("/goals/:id", h.Activity.GetGoal)
		users.GET("/:userId/goals", h.Activity.GetUserGoals)

		users.GET("/:userId", h.User.GetUser)
		users.GET("/:userId/search", h.User.SearchUsers)
	}
}
