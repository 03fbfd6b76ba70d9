package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/observability"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

const notificationBufferSize = 16

// NotificationService persists notifications, streams them to connected users
// and fans review outcomes out to whole groups. Publishing identical pending
// notifications is a no-op, which makes review retries safe.
type NotificationService interface {
	ReviewNotifier
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, bool, error)
	List(ctx context.Context, recipientID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error)
	Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	groups      repository.GroupRepository
	redis       *redis.Client
	redisChan   string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	broker      *notificationBroker
	nodeID      string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs a notification service. Redis and NATS
// are optional; when absent the service degrades to single-node delivery.
func NewNotificationService(repo repository.NotificationRepository, groups repository.GroupRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		groups:      groups,
		redis:       redisClient,
		redisChan:   channel,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "notification_service").Logger(),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChan != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, bool, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, false, err
	}

	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if cleanMessage == "" {
		return dto.NotificationResponse{}, false, errors.New("notification message empty after sanitization")
	}

	model := models.Notification{
		RecipientID:   payload.RecipientID,
		RecipientType: payload.RecipientType,
		GroupID:       payload.GroupID,
		Title:         payload.Title,
		Message:       cleanMessage,
		Type:          payload.Type,
	}

	created, err := s.repo.CreateIfAbsent(ctx, &model)
	if err != nil {
		return dto.NotificationResponse{}, false, err
	}

	response := dto.NewNotificationResponse(model)
	if !created {
		// An identical pending notification already exists; nothing to fan out.
		return response, false, nil
	}

	s.broker.broadcast(response.RecipientID, response)
	if err := s.publish(ctx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification to broker")
	}

	observability.NotificationsPublished().WithLabelValues(response.Type).Inc()

	return response, true, nil
}

// NotifyGroup fans one message out to every student in the group and reports
// how many notifications were actually created.
func (s *notificationService) NotifyGroup(ctx context.Context, groupID uint, title, message, notificationType string) (int, error) {
	memberIDs, err := s.groups.MemberIDs(ctx, groupID)
	if err != nil {
		return 0, err
	}

	group := groupID
	created := 0
	for _, memberID := range memberIDs {
		_, fresh, err := s.Publish(ctx, dto.NotificationCreateRequest{
			RecipientID:   memberID,
			RecipientType: models.CommenterTypeStudent,
			GroupID:       &group,
			Title:         title,
			Message:       message,
			Type:          notificationType,
		})
		if err != nil {
			s.logger.Error().Err(err).Uint("recipient_id", memberID).Msg("failed to notify group member")
			continue
		}
		if fresh {
			created++
		}
	}

	return created, nil
}

func (s *notificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if recipientID == 0 {
		return nil, errors.New("recipient id is required")
	}

	notifications, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(recipientID, channel)
	observability.SSEClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(recipientID, channel)
		observability.SSEClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChan != "" {
		if err := s.redis.Publish(ctx, s.redisChan, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChan)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "thesistrack-notifications", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	notification := event.Notification
	if notification.Type == "" {
		notification.Type = "generic"
	}

	s.broker.broadcast(notification.RecipientID, notification)
}

func (b *notificationBroker) subscribe(recipientID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[recipientID]; !exists {
		b.subscribers[recipientID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[recipientID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(recipientID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[recipientID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, recipientID)
		}
	}
}

func (b *notificationBroker) broadcast(recipientID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[recipientID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
