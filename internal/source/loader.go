package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"mamacal/internal/event"
	applog "mamacal/internal/log"
	"mamacal/internal/model"
)

// Loader fetches the event list from its source endpoints. The xlsx
// URL is the primary source; on any primary failure (network, status,
// parse) the JSON URL is tried. Both failing is a load error and the
// store is left untouched by the caller.
type Loader struct {
	client  *http.Client
	xlsxURL string
	jsonURL string
}

// NewLoader creates a Loader for the given endpoints. Either URL may
// be empty; an empty URL fails its path immediately.
func NewLoader(xlsxURL, jsonURL string) *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		xlsxURL: xlsxURL,
		jsonURL: jsonURL,
	}
}

// jsonDocument is the fallback source shape.
type jsonDocument struct {
	Events []map[string]any `json:"events"`
}

// Load fetches, normalizes and filters the event list. Returned events
// keep source order; rows whose date fails normalization are dropped,
// never fatal.
func (l *Loader) Load(ctx context.Context) ([]model.Event, error) {
	events, xlsxErr := l.loadXLSX(ctx)
	if xlsxErr == nil {
		return events, nil
	}
	applog.Error("primary source failed, trying fallback", xlsxErr, "url", l.xlsxURL)

	events, jsonErr := l.loadJSON(ctx)
	if jsonErr == nil {
		return events, nil
	}

	return nil, fmt.Errorf("both sources failed: xlsx: %v; json: %w", xlsxErr, jsonErr)
}

// loadXLSX fetches the workbook and reads its first sheet, first row
// as header names.
func (l *Loader) loadXLSX(ctx context.Context) ([]model.Event, error) {
	body, err := l.fetch(ctx, l.xlsxURL)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []model.Event{}, nil
	}

	headers := rows[0]
	events := make([]model.Event, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw := make(model.Record, len(headers))
		for i, name := range headers {
			if i < len(row) {
				raw[name] = row[i]
			}
		}
		ev := event.Normalize(raw)
		if !ev.Usable() {
			applog.Debug("dropping row with unusable date", "title", ev.Title)
			continue
		}
		events = append(events, ev)
	}

	applog.Info("loaded events from xlsx", "count", len(events), "rows", len(rows)-1)
	return events, nil
}

// loadJSON fetches the structured fallback document.
func (l *Loader) loadJSON(ctx context.Context) ([]model.Event, error) {
	body, err := l.fetch(ctx, l.jsonURL)
	if err != nil {
		return nil, err
	}

	var doc jsonDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode events document: %w", err)
	}

	events := make([]model.Event, 0, len(doc.Events))
	for _, item := range doc.Events {
		raw := make(model.Record, len(item))
		for k, v := range item {
			if v == nil {
				continue
			}
			raw[k] = fmt.Sprint(v)
		}
		ev := event.Normalize(raw)
		if !ev.Usable() {
			continue
		}
		events = append(events, ev)
	}

	applog.Info("loaded events from json", "count", len(events))
	return events, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("source URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
