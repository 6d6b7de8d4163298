package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/logging"
	"github.com/dmitrijs2005/ecoportal/internal/server/config"
	"github.com/dmitrijs2005/ecoportal/internal/server/records/airtable"
	"github.com/dmitrijs2005/ecoportal/internal/server/records/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.Addr = "127.0.0.1:0"
	c.RecordStore = config.StoreMemory
	c.S3Bucket = "docs"
	c.S3AccessKeyID = "key"
	c.S3SecretAccessKey = "secret"
	return c
}

func TestOpenRecordStore(t *testing.T) {
	ctx := context.Background()

	c := testConfig()
	store, closeFn, err := OpenRecordStore(ctx, c)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, closeFn())

	c.RecordStore = config.StoreAirtable
	c.AirtableAPIKey, c.AirtableBaseID = "key", "app123"
	store, _, err = OpenRecordStore(ctx, c)
	require.NoError(t, err)
	assert.IsType(t, &airtable.Client{}, store)

	c.RecordStore = "sqlite"
	_, _, err = OpenRecordStore(ctx, c)
	assert.Error(t, err)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Environment = config.EnvProduction
	c.SessionSecret = ""

	_, err := newApp(context.Background(), c, logging.Nop{})
	assert.ErrorContains(t, err, "SESSION_SECRET")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(), logging.Nop{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
