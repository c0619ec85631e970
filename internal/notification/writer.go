package notification

import (
	"context"
	"errors"
	"fmt"

	"pharmagister-backend/internal/metrics"
	"pharmagister-backend/internal/model"
	"pharmagister-backend/internal/push"
	"pharmagister-backend/internal/store"
)

// ErrRecordWriteFailed indicates the in-app notification record could not be
// persisted. Push delivery problems never surface through Notify.
var ErrRecordWriteFailed = errors.New("notification record write failed")

// Dispatcher queues a delivery job for asynchronous fan-out.
type Dispatcher interface {
	Dispatch(job Job) bool
}

// Writer creates durable notification records and hands delivery to the
// worker pool as a non-critical side effect.
type Writer struct {
	store      store.Store
	dispatcher Dispatcher
	metrics    *metrics.Accumulator
}

// NewWriter creates a record writer.
func NewWriter(s store.Store, d Dispatcher, acc *metrics.Accumulator) *Writer {
	return &Writer{store: s, dispatcher: d, metrics: acc}
}

// Notify writes one unread notification record for userID and queues a push
// fan-out tagged "<type>-<id>". The returned id identifies the created
// record. Only the record write itself can fail; a full delivery queue or a
// failing provider is absorbed downstream.
func (w *Writer) Notify(ctx context.Context, userID, typ, title, message, relatedID, url string) (string, error) {
	record := model.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Read:      false,
		RelatedID: relatedID,
		URL:       url,
	}
	if err := w.store.CreateNotification(ctx, &record); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecordWriteFailed, err)
	}
	w.metrics.Add(metrics.NotificationsWritten, 1)

	w.dispatcher.Dispatch(Job{
		UserID: userID,
		Payload: push.Payload{
			Title: title,
			Body:  message,
			URL:   url,
			Tag:   fmt.Sprintf("%s-%s", typ, record.ID),
		},
	})

	return record.ID, nil
}
