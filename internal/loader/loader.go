// Package loader fetches every configured source export, runs it through
// normalization and swaps the resulting snapshots into the stores.
package loader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/csvio"
	"github.com/callboard/backend/internal/metrics"
	"github.com/callboard/backend/internal/normalize"
	"github.com/callboard/backend/internal/store"
	"github.com/callboard/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SourceError is a load failure attributed to one source. Other sources are
// unaffected by it.
type SourceError struct {
	Source types.SourceType
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Notifier receives load-lifecycle notifications for connected dashboards.
type Notifier interface {
	Notify(n types.Notification)
}

// Loader owns the fetch-normalize-store cycle for all sources.
type Loader struct {
	client   *http.Client
	cfg      *config.Config
	engine   *normalize.Engine
	stores   *store.Stores
	notifier Notifier
	logger   zerolog.Logger

	refreshCh chan struct{}
}

// New creates a loader. notifier may be nil.
func New(cfg *config.Config, engine *normalize.Engine, stores *store.Stores, notifier Notifier, logger zerolog.Logger) *Loader {
	return &Loader{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		cfg:       cfg,
		engine:    engine,
		stores:    stores,
		notifier:  notifier,
		logger:    logger.With().Str("component", "loader").Logger(),
		refreshCh: make(chan struct{}, 1),
	}
}

// LoadAll fetches every configured source concurrently and waits for all of
// them. A failing source empties its own store and is reported; it never
// blocks or aborts the others.
func (l *Loader) LoadAll(ctx context.Context) {
	loadID := uuid.New().String()
	start := time.Now()

	var wg sync.WaitGroup
	for _, src := range types.AllSources {
		url := l.cfg.SourceURLs[string(src)]
		if url == "" {
			continue
		}
		wg.Add(1)
		go func(src types.SourceType, url string) {
			defer wg.Done()
			if err := l.loadSource(ctx, src, url, loadID); err != nil {
				srcErr := &SourceError{Source: src, Err: err}
				metrics.Get().RecordLoadError()
				l.stores.SetError(src, srcErr.Error())
				l.logger.Error().
					Str("load_id", loadID).
					Str("source", string(src)).
					Err(err).
					Msg("source load failed")
				l.notify(types.Notification{
					Type:      types.NotifySourceFailed,
					Source:    src,
					Message:   srcErr.Error(),
					Timestamp: time.Now(),
				})
			}
		}(src, url)
	}
	wg.Wait()

	metrics.Get().RecordLoad(time.Since(start))
	l.logger.Info().
		Str("load_id", loadID).
		Dur("elapsed", time.Since(start)).
		Msg("load cycle complete")
	l.notify(types.Notification{Type: types.NotifyRefreshComplete, Timestamp: time.Now()})
}

func (l *Loader) loadSource(ctx context.Context, src types.SourceType, url, loadID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch failed: HTTP %d", resp.StatusCode)
	}

	var headers []string
	var rows []types.RawRecord
	if isXLSX(url, resp.Header.Get("Content-Type")) {
		headers, rows, err = readXLSX(resp.Body)
	} else {
		headers, rows, err = csvio.Read(resp.Body)
	}
	if err != nil {
		return err
	}

	records, roles := l.engine.NormalizeAll(src, headers, rows)
	l.stores.Load(src, records, roles, types.SourceMeta{
		LoadID:   loadID,
		LoadedAt: time.Now(),
		Columns:  headers,
	})

	l.logger.Info().
		Str("load_id", loadID).
		Str("source", string(src)).
		Int("raw_rows", len(rows)).
		Int("valid_rows", len(records)).
		Msg("source loaded")
	return nil
}

func isXLSX(url, contentType string) bool {
	if strings.Contains(contentType, "spreadsheetml") {
		return true
	}
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(strings.ToLower(trimmed), ".xlsx")
}

// TriggerRefresh requests a reload. Rapid successive triggers coalesce into
// a single load cycle.
func (l *Loader) TriggerRefresh() {
	select {
	case l.refreshCh <- struct{}{}:
	default:
	}
}

// Run services debounced refresh triggers until ctx is done. The initial
// load is the caller's business; Run only handles refreshes.
func (l *Loader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("loader stopped")
			return
		case <-l.refreshCh:
			// Debounce window: absorb triggers that arrive while the
			// previous click is still settling.
			timer := time.NewTimer(l.cfg.RefreshDebounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			// Drain anything that queued during the window.
			select {
			case <-l.refreshCh:
			default:
			}
			l.stores.Clear()
			l.LoadAll(ctx)
		}
	}
}

func (l *Loader) notify(n types.Notification) {
	if l.notifier != nil {
		l.notifier.Notify(n)
	}
}
