package notification

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pharmagister-backend/internal/metrics"
	"pharmagister-backend/internal/model"
	"pharmagister-backend/internal/push"
	"pharmagister-backend/internal/store"
)

// recordingDispatcher captures dispatched jobs without running workers.
type recordingDispatcher struct {
	jobs   []Job
	accept bool
}

func (d *recordingDispatcher) Dispatch(job Job) bool {
	d.jobs = append(d.jobs, job)
	return d.accept
}

var writerDBSeq int

func newWriterStore(t *testing.T) store.Store {
	t.Helper()
	writerDBSeq++
	dsn := fmt.Sprintf("file:writer_test_%d?mode=memory&cache=shared", writerDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))
	return store.NewGormStore(db)
}

func TestNotify_WritesRecordAndQueuesDelivery(t *testing.T) {
	s := newWriterStore(t)
	dispatcher := &recordingDispatcher{accept: true}
	w := NewWriter(s, dispatcher, metrics.NewAccumulator())

	id, err := w.Notify(context.Background(),
		"user-b", model.TypeNewMessage, "X", "Y", "conv-123", "/chat/123")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The durable record exists, unread, with server-assigned creation time.
	records, err := s.NotificationsForUser(context.Background(), "user-b")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.False(t, records[0].Read)
	assert.Equal(t, "conv-123", records[0].RelatedID)
	assert.False(t, records[0].CreatedAt.IsZero())

	// One delivery job, tagged "<type>-<id>".
	require.Len(t, dispatcher.jobs, 1)
	job := dispatcher.jobs[0]
	assert.Equal(t, "user-b", job.UserID)
	assert.Equal(t, push.Payload{
		Title: "X",
		Body:  "Y",
		URL:   "/chat/123",
		Tag:   model.TypeNewMessage + "-" + id,
	}, job.Payload)
}

func TestNotify_FullQueueDoesNotFailTheWrite(t *testing.T) {
	s := newWriterStore(t)
	dispatcher := &recordingDispatcher{accept: false}
	w := NewWriter(s, dispatcher, metrics.NewAccumulator())

	id, err := w.Notify(context.Background(),
		"user-b", model.TypeStatusChange, "t", "m", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := s.NotificationsForUser(context.Background(), "user-b")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNotify_RecordWriteFailure(t *testing.T) {
	s := newWriterStore(t)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	dispatcher := &recordingDispatcher{accept: true}
	w := NewWriter(s, dispatcher, metrics.NewAccumulator())

	_, err = w.Notify(context.Background(),
		"user-b", model.TypeNewApplication, "t", "m", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecordWriteFailed)

	// No delivery job for a record that was never written.
	assert.Empty(t, dispatcher.jobs)
}
