// Package app assembles the data layer: one store connection, one change
// broker, the query layer on top of both, and the repositories on top of the
// query layer.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/mprlab/places/internal/database"
	"github.com/mprlab/places/internal/feed"
	"github.com/mprlab/places/internal/live"
	"github.com/mprlab/places/internal/query"
	"github.com/mprlab/places/internal/repository"
	"github.com/mprlab/places/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errMissingPaths = errors.New("app: database and session paths are required")

// Config carries everything the container needs to boot.
type Config struct {
	DatabasePath string
	SessionPath  string
	Clock        func() time.Time
	IDProvider   repository.IDProvider
	Logger       *zap.Logger
}

// Container holds the wired data layer. Fields are exported so the HTTP
// facade and tests can reach any level directly.
type Container struct {
	DB     *gorm.DB
	Broker *live.Broker
	Logger *zap.Logger

	Queries Queries

	Users         *repository.Users
	TravelCards   *repository.TravelCards
	Comments      *repository.Comments
	Notifications *repository.Notifications
	Activities    *repository.Activities
	Published     *repository.PublishedActivities
	FeedPosts     *repository.FeedPosts
	Messaging     *repository.Messaging

	Session *session.Manager
	Feed    *feed.Aggregator
}

// Queries groups the data-access objects by table.
type Queries struct {
	Users         *query.Users
	TravelCards   *query.TravelCards
	Comments      *query.Comments
	Notifications *query.Notifications
	Activities    *query.Activities
	Published     *query.PublishedActivities
	FeedPosts     *query.FeedPosts
	Conversations *query.Conversations
	Messages      *query.Messages
}

// New opens the store and wires every layer. Defaults mirror the repository
// constructors: a nil clock becomes time.Now, a nil id provider becomes the
// UUID provider, a nil logger becomes a no-op logger.
func New(cfg Config) (*Container, error) {
	if cfg.DatabasePath == "" || cfg.SessionPath == "" {
		return nil, errMissingPaths
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = repository.NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.Open(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	broker := live.NewBroker()
	queries := Queries{
		Users:         query.NewUsers(db, broker),
		TravelCards:   query.NewTravelCards(db, broker),
		Comments:      query.NewComments(db, broker),
		Notifications: query.NewNotifications(db, broker),
		Activities:    query.NewActivities(db, broker),
		Published:     query.NewPublishedActivities(db, broker),
		FeedPosts:     query.NewFeedPosts(db, broker),
		Conversations: query.NewConversations(db, broker),
		Messages:      query.NewMessages(db, broker),
	}

	users, err := repository.NewUsers(repository.UsersConfig{
		Queries: queries.Users,
		Clock:   clock,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	notifications, err := repository.NewNotifications(repository.NotificationsConfig{
		Queries:    queries.Notifications,
		IDProvider: ids,
		Clock:      clock,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	travelCards, err := repository.NewTravelCards(repository.TravelCardsConfig{
		Queries:       queries.TravelCards,
		Notifications: notifications,
		Clock:         clock,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	comments, err := repository.NewComments(repository.CommentsConfig{
		Queries:       queries.Comments,
		Cards:         queries.TravelCards,
		Notifications: notifications,
		IDProvider:    ids,
		Clock:         clock,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	activities, err := repository.NewActivities(repository.ActivitiesConfig{
		Queries:    queries.Activities,
		Published:  queries.Published,
		IDProvider: ids,
		Clock:      clock,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	published, err := repository.NewPublishedActivities(repository.PublishedActivitiesConfig{
		Queries: queries.Published,
		Clock:   clock,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	feedPosts, err := repository.NewFeedPosts(repository.FeedPostsConfig{
		Queries: queries.FeedPosts,
		Clock:   clock,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	messaging, err := repository.NewMessaging(repository.MessagingConfig{
		Conversations: queries.Conversations,
		Messages:      queries.Messages,
		IDProvider:    ids,
		Clock:         clock,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(session.ManagerConfig{
		Path:       cfg.SessionPath,
		Users:      queries.Users,
		IDProvider: ids,
		Clock:      clock,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	aggregator, err := feed.NewAggregator(feed.AggregatorConfig{
		Published: queries.Published,
		Posts:     queries.FeedPosts,
		Broker:    broker,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		DB:            db,
		Broker:        broker,
		Logger:        logger,
		Queries:       queries,
		Users:         users,
		TravelCards:   travelCards,
		Comments:      comments,
		Notifications: notifications,
		Activities:    activities,
		Published:     published,
		FeedPosts:     feedPosts,
		Messaging:     messaging,
		Session:       sessions,
		Feed:          aggregator,
	}, nil
}

// SeedSampleData populates the demo feed rows when they are absent.
func (c *Container) SeedSampleData(ctx context.Context) error {
	if err := c.Published.SeedSampleData(ctx); err != nil {
		return err
	}
	return c.FeedPosts.SeedSampleData(ctx)
}

// Close releases the store connection.
func (c *Container) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
