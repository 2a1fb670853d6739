package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
	"github.com/sirupsen/logrus"
)

// Subscriber is satisfied by *queue.KafkaConsumer.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(queue.Message) error) error
}

// VersionStore is satisfied by *cache.RedisClient.
type VersionStore interface {
	IncrMany(ctx context.Context, keys ...string) error
}

type FriendLister interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type PostLookup interface {
	GetByID(ctx context.Context, id uint) (*repository.PostRow, error)
}

// CommunityWorker keeps cached friend feeds fresh. Every event that changes
// what a user's wall shows bumps that user's feed version, which retires all
// cached pages at once.
type CommunityWorker struct {
	consumer Subscriber
	versions VersionStore
	friends  FriendLister
	posts    PostLookup
	logger   *logger.Logger
}

func NewCommunityWorker(
	consumer Subscriber,
	versions VersionStore,
	friends FriendLister,
	posts PostLookup,
	logger *logger.Logger,
) *CommunityWorker {
	return &CommunityWorker{
		consumer: consumer,
		versions: versions,
		friends:  friends,
		posts:    posts,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled or the consumer fails.
func (w *CommunityWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting community worker...")

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		return w.HandleMessage(ctx, msg)
	})
}

func (w *CommunityWorker) HandleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg.Value)
	if err != nil {
		return err
	}

	w.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventPostCreated, queue.EventPostDeleted:
		var data queue.PostEventData
		if err := decodeData(event, &data); err != nil {
			return err
		}
		return w.bumpFriendsOf(ctx, data.UserID)

	case queue.EventFriendshipAccepted, queue.EventFriendshipDeleted:
		var data queue.FriendshipEventData
		if err := decodeData(event, &data); err != nil {
			return err
		}
		return w.bump(ctx, data.UserID, data.FriendID)

	case queue.EventLikeCreated, queue.EventLikeDeleted:
		var data queue.LikeEventData
		if err := decodeData(event, &data); err != nil {
			return err
		}
		return w.bumpForPost(ctx, data.PostID)

	case queue.EventCommentCreated, queue.EventCommentDeleted:
		var data queue.CommentEventData
		if err := decodeData(event, &data); err != nil {
			return err
		}
		return w.bumpForPost(ctx, data.PostID)

	default:
		w.logger.WithField("event_type", event.Type).Debug("Ignoring event")
		return nil
	}
}

// bumpForPost invalidates the feeds that show postID. A post deleted in the
// meantime is covered by its own post_deleted event.
func (w *CommunityWorker) bumpForPost(ctx context.Context, postID uint) error {
	post, err := w.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return nil
	}
	return w.bumpFriendsOf(ctx, post.UserID)
}

func (w *CommunityWorker) bumpFriendsOf(ctx context.Context, authorID uint) error {
	friendIDs, err := w.friends.FriendIDs(ctx, authorID)
	if err != nil {
		return err
	}
	return w.bump(ctx, friendIDs...)
}

func (w *CommunityWorker) bump(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = services.FeedVersionKey(id)
	}
	if err := w.versions.IncrMany(ctx, keys...); err != nil {
		return fmt.Errorf("failed to bump feed versions: %w", err)
	}

	w.logger.WithField("users", len(userIDs)).Debug("Feed versions bumped")
	return nil
}

func decodeData(event *queue.RawEvent, dest interface{}) error {
	if err := json.Unmarshal(event.Data, dest); err != nil {
		return fmt.Errorf("invalid %s event data: %w", event.Type, err)
	}
	return nil
}
