package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/campus/services/events/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ReminderMessage is the payload enqueued for the external mailer. One
// message per due notification preference.
type ReminderMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	EventID   uuid.UUID `json:"event_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartsAt  string    `json:"starts_at"`
	LeadHours float64   `json:"lead_hours"`
}

// ServiceBusClient enqueues reminder messages on the configured queue
type ServiceBusClient interface {
	SendReminder(ctx context.Context, msg ReminderMessage) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     *azservicebus.Sender
	queueName  string
	clientType string
}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.ServiceBusConfig, clientType string) (ServiceBusClient, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.ReminderQueue, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusClient{
		client:     client,
		sender:     sender,
		queueName:  cfg.ReminderQueue,
		clientType: clientType,
	}, nil
}

// SendReminder enqueues one reminder. The event and user ids ride along as
// application properties so the mailer can filter without parsing the body.
func (s *serviceBusClient) SendReminder(ctx context.Context, msg ReminderMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reminder message")
	}

	subject := "event-reminder"
	busMsg := &azservicebus.Message{
		Body:    data,
		Subject: &subject,
		ApplicationProperties: map[string]interface{}{
			"source":   s.clientType,
			"time":     time.Now().UTC().Format(time.RFC3339),
			"event_id": msg.EventID.String(),
			"user_id":  msg.UserID.String(),
		},
	}

	return s.sender.SendMessage(ctx, busMsg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}
