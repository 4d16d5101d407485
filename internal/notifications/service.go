package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/movies"
	"cinebook/internal/shared/config"
	"cinebook/internal/users"
	"cinebook/pkg/logger"
)

// NotificationService is the outbound side of the booking flows: booking
// confirmations, new-show announcements, and showtime reminders all go
// through here onto the Kafka topic, where consumer workers turn them
// into email.
type NotificationService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendBatchNotifications(ctx context.Context, notifications []*EmailNotification) error

	NotifyBookingConfirmed(ctx context.Context, booking *bookings.Booking) error
	AnnounceShowAdded(ctx context.Context, movie *movies.Movie, showCount int) error

	Start(ctx context.Context) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type ServiceConfig struct {
	KafkaBrokers       []string
	NotificationTopic  string
	ConsumerGroupID    string
	NumConsumerWorkers int
	Currency           string
	SMTP               *SMTPConfig
}

// NewServiceConfig builds the notification wiring from app config.
func NewServiceConfig(cfg *config.Config) *ServiceConfig {
	return &ServiceConfig{
		KafkaBrokers:       cfg.Kafka.Brokers,
		NotificationTopic:  cfg.Kafka.NotificationTopic,
		ConsumerGroupID:    cfg.Kafka.ConsumerGroupID,
		NumConsumerWorkers: cfg.Kafka.ConsumerWorkers,
		Currency:           cfg.Payments.Currency,
		SMTP: &SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
			UseTLS:    true,
		},
	}
}

type emailNotificationService struct {
	config      *ServiceConfig
	producer    NotificationProducer
	consumer    NotificationConsumer
	userService users.Service
	log         *logger.Logger

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

var _ bookings.Notifier = (NotificationService)(nil)

func NewEmailNotificationService(config *ServiceConfig, userService users.Service) (NotificationService, error) {
	var emailService EmailService
	if config.SMTP.Host == "" || config.SMTP.Username == "" {
		// No SMTP credentials; deliveries are logged rather than sent.
		emailService = NewMockEmailService()
	} else {
		smtpService, err := NewSMTPEmailService(config.SMTP)
		if err != nil {
			return nil, err
		}
		emailService = smtpService
	}

	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = config.KafkaBrokers
	producerConfig.NotificationTopic = config.NotificationTopic

	producer, err := NewKafkaNotificationProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = config.KafkaBrokers
	consumerConfig.Topics = []string{config.NotificationTopic}
	consumerConfig.GroupID = config.ConsumerGroupID

	consumer, err := NewKafkaNotificationConsumer(consumerConfig, emailService)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &emailNotificationService{
		config:      config,
		producer:    producer,
		consumer:    consumer,
		userService: userService,
		log:         logger.GetDefault(),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func (ens *emailNotificationService) Start(ctx context.Context) error {
	ens.mu.Lock()
	defer ens.mu.Unlock()

	if ens.isRunning {
		return fmt.Errorf("notification service is already running")
	}

	if err := ens.consumer.StartConsumers(ens.ctx, ens.config.NumConsumerWorkers); err != nil {
		return fmt.Errorf("failed to start consumers: %w", err)
	}

	ens.isRunning = true
	ens.log.Info("notification service started")
	return nil
}

func (ens *emailNotificationService) Stop() error {
	ens.mu.Lock()
	defer ens.mu.Unlock()

	if !ens.isRunning {
		return fmt.Errorf("notification service is not running")
	}

	ens.cancel()

	if err := ens.consumer.Stop(); err != nil {
		ens.log.Error("error stopping consumer: " + err.Error())
	}
	if err := ens.producer.Close(); err != nil {
		ens.log.Error("error closing producer: " + err.Error())
	}

	ens.isRunning = false
	return nil
}

func (ens *emailNotificationService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	return ens.producer.PublishNotification(ctx, notification)
}

func (ens *emailNotificationService) SendBatchNotifications(ctx context.Context, notifications []*EmailNotification) error {
	return ens.producer.PublishBatchNotifications(ctx, notifications)
}

func (ens *emailNotificationService) NotifyBookingConfirmed(ctx context.Context, booking *bookings.Booking) error {
	user := booking.User
	if user == nil {
		loaded, err := ens.userService.GetUser(ctx, booking.UserID)
		if err != nil {
			return fmt.Errorf("failed to resolve booking recipient: %w", err)
		}
		user = loaded
	}

	movieTitle := "your movie"
	showTime := ""
	if booking.Show != nil {
		showTime = booking.Show.StartTime.Format("Mon, 02 Jan 2006 15:04")
		if booking.Show.Movie != nil {
			movieTitle = booking.Show.Movie.Title
		}
	}

	notification := NewNotificationBuilder().
		WithType(NotificationTypeBookingConfirmed).
		WithRecipient(user.ID, user.Email, user.Name).
		WithBookingContext(booking.ID).
		WithShowContext(booking.ShowID).
		WithSubject(fmt.Sprintf("Booking confirmed: %s", movieTitle)).
		WithTemplateData(map[string]interface{}{
			"movie_title": movieTitle,
			"show_time":   showTime,
			"seats":       strings.Join(booking.Seats, ", "),
			"amount":      booking.Amount,
			"currency":    strings.ToUpper(ens.config.Currency),
		}).
		Build()

	return ens.producer.PublishNotification(ctx, notification)
}

func (ens *emailNotificationService) AnnounceShowAdded(ctx context.Context, movie *movies.Movie, showCount int) error {
	recipients, err := ens.userService.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list announcement recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	notifications := make([]*EmailNotification, 0, len(recipients))
	for _, user := range recipients {
		notifications = append(notifications, NewNotificationBuilder().
			WithType(NotificationTypeShowAdded).
			WithRecipient(user.ID, user.Email, user.Name).
			WithMovieContext(movie.ID).
			WithSubject(fmt.Sprintf("New shows added: %s", movie.Title)).
			WithTemplateData(map[string]interface{}{
				"movie_title": movie.Title,
				"show_count":  showCount,
			}).
			WithExpiration(time.Now().Add(72*time.Hour)).
			Build())
	}

	return ens.producer.PublishBatchNotifications(ctx, notifications)
}

func (ens *emailNotificationService) HealthCheck(ctx context.Context) error {
	ens.mu.RLock()
	isRunning := ens.isRunning
	ens.mu.RUnlock()

	if !isRunning {
		return fmt.Errorf("notification service is not running")
	}
	if err := ens.producer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("producer health check failed: %w", err)
	}
	if err := ens.consumer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("consumer health check failed: %w", err)
	}
	return nil
}
