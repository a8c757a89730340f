// Package redis difunde notificaciones en tiempo real por Redis Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/retail-api/internal/application/notification"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

var _ notification.Publisher = (*Publisher)(nil)

// DefaultChannelPrefix prefijo del canal por usuario.
const DefaultChannelPrefix = "notifications:"

// Message carga publicada en el canal del usuario.
type Message struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	CompanyID string          `json:"companyId,omitempty"`
	StoreID   string          `json:"storeId,omitempty"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Severity  string          `json:"severity"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Publisher publica cada notificación en <prefix><userId>.
type Publisher struct {
	client *goredis.Client
	prefix string
}

// NewClient abre un cliente a partir de REDIS_URL y verifica la conexión.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewPublisher construye el publicador. prefix vacío usa DefaultChannelPrefix.
func NewPublisher(client *goredis.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

// Channel canal de un usuario.
func (p *Publisher) Channel(userID string) string {
	return p.prefix + userID
}

// Publish serializa la notificación y la publica en el canal del destinatario.
func (p *Publisher) Publish(ctx context.Context, n *entity.Notification) error {
	payload, err := json.Marshal(Message{
		ID:        n.ID,
		UserID:    n.UserID,
		CompanyID: n.CompanyID,
		StoreID:   n.StoreID,
		Title:     n.Title,
		Message:   n.Message,
		Severity:  string(n.Severity),
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
