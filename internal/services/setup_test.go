package services_test

import (
	"testing"
	"time"

	"github.com/healthtracker/healthtracker/internal/config"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/internal/testutil"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	publisher *testutil.RecordingPublisher
	cache     *testutil.MemoryCache

	users       *services.UserService
	friendships *services.FriendshipService
	feed        *services.FeedService
	comments    *services.CommentService
	likes       *services.LikeService
	chat        *services.ChatService
	activity    *services.ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.NewNopLogger()
	publisher := &testutil.RecordingPublisher{}
	memCache := testutil.NewMemoryCache()

	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	feedConfig := &config.FeedConfig{CacheTTL: time.Minute, DefaultPageSize: 10, MaxPageSize: 100}

	return &testEnv{
		db:          db,
		publisher:   publisher,
		cache:       memCache,
		users:       services.NewUserService(userRepo, publisher, log),
		friendships: services.NewFriendshipService(friendshipRepo, userRepo, publisher, log),
		feed:        services.NewFeedService(postRepo, commentRepo, likeRepo, userRepo, friendshipRepo, memCache, publisher, feedConfig, log),
		comments:    services.NewCommentService(postRepo, commentRepo, userRepo, publisher, log),
		likes:       services.NewLikeService(postRepo, likeRepo, userRepo, publisher, log),
		chat:        services.NewChatService(messageRepo, userRepo, publisher, log),
		activity: services.NewActivityService(
			repository.NewWorkoutRepository(db),
			repository.NewExerciseRepository(db),
			repository.NewGoalRepository(db),
			userRepo,
			log,
		),
	}
}
