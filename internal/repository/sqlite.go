package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

var _ Store = (*SQLiteDB)(nil)

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// :memory: databases are per-connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			title TEXT,
			description TEXT NOT NULL,
			location TEXT NOT NULL,
			severity TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			message_type TEXT NOT NULL,
			recipients TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS subscribers (
			id TEXT PRIMARY KEY,
			phone_number TEXT NOT NULL,
			area TEXT,
			subscribed INTEGER NOT NULL,
			is_test INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_subscribers_phone ON subscribers(phone_number);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert) error {
	recipients, err := json.Marshal(a.Recipients)
	if err != nil {
		return fmt.Errorf("error encoding recipients: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, title, description, location, severity, type, status, message_type, recipients, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.Title, a.Description, a.Location, string(a.Severity), a.Type, a.Status, a.MessageType,
		string(recipients), a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}

	a.ID = id
	return nil
}

func (s *SQLiteDB) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, location, severity, type, status, message_type, recipients, created_at
		FROM alerts
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var (
			a          models.Alert
			title      sql.NullString
			severity   string
			recipients string
			createdAt  string
		)
		if err := rows.Scan(&a.ID, &title, &a.Description, &a.Location, &severity, &a.Type,
			&a.Status, &a.MessageType, &recipients, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		a.Title = title.String
		a.Severity = models.AlertSeverity(severity)
		if err := json.Unmarshal([]byte(recipients), &a.Recipients); err != nil {
			return nil, fmt.Errorf("error decoding recipients for alert %s: %w", a.ID, err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("error parsing created_at for alert %s: %w", a.ID, err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

func (s *SQLiteDB) AddSubscriber(ctx context.Context, sub *models.Subscriber) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, phone_number, area, subscribed, is_test, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, sub.PhoneNumber, sub.Area, sub.Subscribed, sub.IsTest, sub.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error inserting subscriber: %w", err)
	}

	sub.ID = id
	return nil
}

func (s *SQLiteDB) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phone_number, area, subscribed, is_test, created_at
		FROM subscribers
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("error querying subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []models.Subscriber{}
	for rows.Next() {
		var (
			sub       models.Subscriber
			area      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&sub.ID, &sub.PhoneNumber, &area, &sub.Subscribed, &sub.IsTest, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning subscriber: %w", err)
		}
		sub.Area = area.String
		if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("error parsing created_at for subscriber %s: %w", sub.ID, err)
		}
		subscribers = append(subscribers, sub)
	}

	return subscribers, rows.Err()
}

func (s *SQLiteDB) DeleteSubscribersByPhone(ctx context.Context, phoneNumber string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE phone_number = ?`, phoneNumber)
	if err != nil {
		return 0, fmt.Errorf("error deleting subscribers: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
