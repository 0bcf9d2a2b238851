package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDelay - пауза после последнего события, редакторы пишут файл в несколько приёмов
const reloadDelay = 300 * time.Millisecond

// Watch следит за файлом снимка и заново загружает его в store при изменении.
// Перезагрузка заменяет всё состояние. Файл с ошибкой пропускается, данные остаются прежними.
// Наблюдение идёт до отмены ctx; возвращённый канал закрывается после остановки.
func Watch(ctx context.Context, store *Store, path string, logger zerolog.Logger) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// следим за папкой: при сохранении через rename файл меняет inode
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	logger = logger.With().Str("seed_file", abs).Logger()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer watcher.Close()

		timer := time.NewTimer(reloadDelay)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					timer.Reset(reloadDelay)
				}
			case <-timer.C:
				snap, err := LoadSnapshot(abs)
				if err != nil {
					logger.Warn().Err(err).Msg("seed reload failed, keeping current state")
					continue
				}
				store.Import(snap)
				logger.Info().Int("exercises", len(snap.Exercises)).Msg("seed reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}()

	logger.Info().Msg("watching seed file")
	return done, nil
}
