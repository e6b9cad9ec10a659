package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	closed int
}

func (p *fakePublisher) PublishTransactionChanged(context.Context, string, core.ChangeAction) error {
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed++
	return nil
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "fintrack",
		AMQPQueue:    "events",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "events", cfg.AMQPQueue)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "postgres"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Nil(t, res.Publisher)
	assert.NoError(t, res.Cleanup())
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fintrack.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer res.Cleanup()

	ctx := context.Background()
	require.NoError(t, res.Store.Ping(ctx))

	svc := services.NewTransactionService(res.Store, res.Publisher)
	amount := core.NewMoney(-1500)
	desc := "Taxi"
	date := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	cat := core.CategoryTransport
	created, err := svc.Create(ctx, core.TransactionPatch{Amount: &amount, Description: &desc, Date: &date, Category: &cat})
	require.NoError(t, err)

	got, err := res.Store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Taxi", got.Description)
}

func TestCreateBackend_Publisher(t *testing.T) {
	pub := &fakePublisher{}
	f := &DefaultFactory{
		logger: discardLogger(),
		dial: func(url, exchange, queue string) (services.EventPublisher, error) {
			assert.Equal(t, "amqp://broker", url)
			assert.Equal(t, "fintrack", exchange)
			assert.Equal(t, "events", queue)
			return pub, nil
		},
	}

	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://broker", AMQPExchange: "fintrack", AMQPQueue: "events",
	})
	require.NoError(t, err)
	assert.Same(t, pub, res.Publisher)

	require.NoError(t, res.Cleanup())
	assert.Equal(t, 1, pub.closed)
}

func TestCreateBackend_BrokerDownDisablesEvents(t *testing.T) {
	f := &DefaultFactory{
		logger: discardLogger(),
		dial: func(string, string, string) (services.EventPublisher, error) {
			return nil, errors.New("connection refused")
		},
	}

	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://broker", AMQPExchange: "fintrack", AMQPQueue: "events",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Publisher)
	assert.NoError(t, res.Cleanup())
}

func TestCreateBackend_Invalid(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
