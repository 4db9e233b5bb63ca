package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

const (
	alertsCollection      = "alerts"
	subscribersCollection = "subscribers"
)

// MongoDB keeps alerts and subscribers as documents in two collections.
type MongoDB struct {
	client      *mongo.Client
	alerts      *mongo.Collection
	subscribers *mongo.Collection
}

var _ Store = (*MongoDB)(nil)

type alertDocument struct {
	ID          primitive.ObjectID       `bson:"_id,omitempty"`
	Title       string                   `bson:"title,omitempty"`
	Description string                   `bson:"description"`
	Location    string                   `bson:"location"`
	Severity    string                   `bson:"severity"`
	Type        string                   `bson:"type"`
	Status      string                   `bson:"status"`
	MessageType string                   `bson:"messageType"`
	CreatedAt   time.Time                `bson:"createdAt"`
	Recipients  []recipientStatusDocument `bson:"recipients"`
}

type recipientStatusDocument struct {
	Phone     string    `bson:"phone"`
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
}

type subscriberDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	PhoneNumber string             `bson:"phoneNumber"`
	Area        string             `bson:"area,omitempty"`
	Subscribed  bool               `bson:"subscribed"`
	IsTest      bool               `bson:"isTest"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func NewMongoDB(ctx context.Context, uri, database string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error while pinging mongo: %w", err)
	}

	db := client.Database(database)
	return &MongoDB{
		client:      client,
		alerts:      db.Collection(alertsCollection),
		subscribers: db.Collection(subscribersCollection),
	}, nil
}

func (m *MongoDB) AddAlert(ctx context.Context, a *models.Alert) error {
	doc := alertDocument{
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Severity:    string(a.Severity),
		Type:        a.Type,
		Status:      a.Status,
		MessageType: a.MessageType,
		CreatedAt:   a.CreatedAt,
		Recipients:  make([]recipientStatusDocument, 0, len(a.Recipients)),
	}
	for _, r := range a.Recipients {
		doc.Recipients = append(doc.Recipients, recipientStatusDocument(r))
	}

	res, err := m.alerts.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}

	a.ID = objectIDHex(res.InsertedID)
	return nil
}

func (m *MongoDB) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	cursor, err := m.alerts.Find(ctx, bson.M{}, insertionOrder())
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []alertDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding alerts: %w", err)
	}

	alerts := make([]models.Alert, 0, len(docs))
	for _, d := range docs {
		a := models.Alert{
			ID:          d.ID.Hex(),
			Title:       d.Title,
			Description: d.Description,
			Location:    d.Location,
			Severity:    models.AlertSeverity(d.Severity),
			Type:        d.Type,
			Status:      d.Status,
			MessageType: d.MessageType,
			CreatedAt:   d.CreatedAt,
			Recipients:  make([]models.RecipientStatus, 0, len(d.Recipients)),
		}
		for _, r := range d.Recipients {
			a.Recipients = append(a.Recipients, models.RecipientStatus(r))
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (m *MongoDB) AddSubscriber(ctx context.Context, s *models.Subscriber) error {
	res, err := m.subscribers.InsertOne(ctx, subscriberDocument{
		PhoneNumber: s.PhoneNumber,
		Area:        s.Area,
		Subscribed:  s.Subscribed,
		IsTest:      s.IsTest,
		CreatedAt:   s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("error inserting subscriber: %w", err)
	}

	s.ID = objectIDHex(res.InsertedID)
	return nil
}

func (m *MongoDB) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	cursor, err := m.subscribers.Find(ctx, bson.M{}, insertionOrder())
	if err != nil {
		return nil, fmt.Errorf("error querying subscribers: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []subscriberDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding subscribers: %w", err)
	}

	subscribers := make([]models.Subscriber, 0, len(docs))
	for _, d := range docs {
		subscribers = append(subscribers, models.Subscriber{
			ID:          d.ID.Hex(),
			PhoneNumber: d.PhoneNumber,
			Area:        d.Area,
			Subscribed:  d.Subscribed,
			IsTest:      d.IsTest,
			CreatedAt:   d.CreatedAt,
		})
	}
	return subscribers, nil
}

func (m *MongoDB) DeleteSubscribersByPhone(ctx context.Context, phoneNumber string) (int64, error) {
	res, err := m.subscribers.DeleteMany(ctx, bson.M{"phoneNumber": phoneNumber})
	if err != nil {
		return 0, fmt.Errorf("error deleting subscribers: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// ObjectIDs grow with insertion time, so sorting on _id keeps write order.
func insertionOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

func objectIDHex(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
