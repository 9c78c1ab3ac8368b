package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"feedmaker/feed"
	"feedmaker/internal/builder"
	"feedmaker/internal/config"
	"feedmaker/internal/db"
	"feedmaker/internal/logger"
	"feedmaker/internal/metrics"
	"feedmaker/internal/queue"
)

var ErrUnknownChannel = errors.New("unknown channel")

// Notifier получает уведомление после записи ленты.
type Notifier interface {
	Notify(ctx context.Context, n queue.Notification) error
}

// Worker пересобирает ленты каналов и сохраняет их в output_path.
type Worker struct {
	store    db.Store
	channels []config.ChannelConfig
	metrics  *metrics.Metrics
	notifier Notifier
	locks    sync.Map // имя канала -> *sync.Mutex

	// Clock задаёт текущее время для сборки; nil означает time.Now.
	Clock feed.Clock
}

func NewWorker(store db.Store, channels []config.ChannelConfig, m *metrics.Metrics, notifier Notifier) *Worker {
	return &Worker{store: store, channels: channels, metrics: m, notifier: notifier}
}

// HandleTask обрабатывает запрос на пересборку: тело сообщения - имя канала.
func (w *Worker) HandleTask(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := w.Publish(ctx, strings.TrimSpace(string(body)))
	return err
}

// Publish собирает ленту канала name и записывает её на диск.
// Возвращает путь к файлу или пустую строку, если у канала нет output_path.
func (w *Worker) Publish(ctx context.Context, name string) (string, error) {
	ch, ok := w.channel(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}

	log := logger.Component("worker").WithField("channel", name)
	if ch.OutputPath == "" {
		log.Debug("Channel has no output path, skipping")
		return "", nil
	}

	mu := w.lock(name)
	mu.Lock()
	path, items, err := w.save(ctx, ch)
	mu.Unlock()
	if err != nil {
		w.metrics.SaveErrors.WithLabelValues(name).Inc()
		log.Errorf("Publish failed: %v", err)
		return "", err
	}
	w.metrics.FeedsSaved.WithLabelValues(name).Inc()
	log.WithField("items_count", items).Infof("Feed saved to %s", path)

	if w.notifier != nil {
		n := queue.Notification{Channel: name, Path: path, Items: items, BuiltAt: w.now()}
		if err := w.notifier.Notify(ctx, n); err != nil {
			log.Warnf("Notify failed: %v", err)
		}
	}
	return path, nil
}

func (w *Worker) save(ctx context.Context, ch config.ChannelConfig) (string, int, error) {
	entries, err := w.store.ListEntries(ctx, ch.Name, ch.ItemLimit())
	if err != nil {
		return "", 0, fmt.Errorf("list entries: %w", err)
	}

	f, err := builder.Build(ch, entries, w.Clock)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(ch.OutputPath), 0o755); err != nil {
		return "", 0, err
	}
	if err := f.Save(ch.OutputPath); err != nil {
		return "", 0, err
	}
	return ch.OutputPath, len(entries), nil
}

// PublishAll публикует все каналы с output_path и возвращает объединённые ошибки.
func (w *Worker) PublishAll(ctx context.Context) error {
	var errs []error
	for _, ch := range w.channels {
		if ch.OutputPath == "" {
			continue
		}
		if _, err := w.Publish(ctx, ch.Name); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (w *Worker) channel(name string) (config.ChannelConfig, bool) {
	for _, ch := range w.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return config.ChannelConfig{}, false
}

// lock возвращает мьютекс канала: ticker и обработчики очереди не пишут
// один файл одновременно.
func (w *Worker) lock(name string) *sync.Mutex {
	mu, _ := w.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (w *Worker) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now()
}
