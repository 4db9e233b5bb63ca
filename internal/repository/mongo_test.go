package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

// Runs only against a live server, e.g. MONGO_TEST_URI=mongodb://localhost:27017
func setupTestMongo(t *testing.T) *MongoDB {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("crisis_alerts_test_%d", time.Now().UnixNano())
	db, err := NewMongoDB(ctx, uri, dbName)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.client.Database(dbName).Drop(context.Background())
		_ = db.Close()
	})
	return db
}

func TestMongoDB_Alerts(t *testing.T) {
	db := setupTestMongo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	alert := &models.Alert{
		Description: "Flood warning",
		Location:    "Downtown",
		Severity:    models.AlertSeverityHigh,
		Type:        models.AlertTypeEmergency,
		Status:      models.AlertStatusSent,
		MessageType: models.MessageTypeTest,
		CreatedAt:   now,
		Recipients: []models.RecipientStatus{
			{Phone: "+1234567890", Status: models.DeliveryDelivered, Timestamp: now},
		},
	}
	require.NoError(t, db.AddAlert(ctx, alert))
	require.NotEmpty(t, alert.ID)

	alerts, err := db.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.ID, alerts[0].ID)
	assert.Equal(t, "Flood warning", alerts[0].Description)
	assert.Equal(t, alert.Recipients, alerts[0].Recipients)
}

func TestMongoDB_DeleteSubscribersByPhone(t *testing.T) {
	db := setupTestMongo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, phone := range []string{"+1234567890", "+1234567890", "+1122334455"} {
		require.NoError(t, db.AddSubscriber(ctx, &models.Subscriber{PhoneNumber: phone, Subscribed: true, CreatedAt: now}))
	}

	deleted, err := db.DeleteSubscribersByPhone(ctx, "+1234567890")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = db.DeleteSubscribersByPhone(ctx, "+1234567890")
	require.NoError(t, err)
	assert.Zero(t, deleted)

	subs, err := db.ListSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "+1122334455", subs[0].PhoneNumber)
}
