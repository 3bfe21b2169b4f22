// Package anki talks to Anki through the AnkiConnect add-on (API version 6).
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is where AnkiConnect listens by default.
const DefaultURL = "http://localhost:8765"

const apiVersion = 6

// Client is an AnkiConnect client.
type Client struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for the AnkiConnect endpoint at url (DefaultURL
// when empty).
func NewClient(url string, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.With("adapter", "anki"),
	}
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke runs one action and decodes its result into out (when non-nil).
func (c *Client) invoke(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Params: params})
	if err != nil {
		return &ExportError{Action: action, Err: fmt.Errorf("encode request: %w", err)}
	}

	c.log.DebugContext(ctx, "anki request", slog.String("action", action))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &ExportError{Action: action, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ExportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ExportError{Action: action, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return &ExportError{Action: action, Err: fmt.Errorf("decode response: %w", err)}
	}
	if r.Error != nil {
		return &ExportError{Action: action, Err: errors.New(*r.Error)}
	}
	if out != nil {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return &ExportError{Action: action, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

// Version returns the AnkiConnect API version; useful as a reachability check.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	err := c.invoke(ctx, "version", nil, &v)
	return v, err
}

// AddNote creates a note and returns its id.
func (c *Client) AddNote(ctx context.Context, note Note) (int64, error) {
	var id int64
	if err := c.invoke(ctx, "addNote", map[string]any{"note": note}, &id); err != nil {
		var ee *ExportError
		if errors.As(err, &ee) {
			ee.Expression = note.Expression
		}
		return 0, err
	}
	c.log.DebugContext(ctx, "note added", slog.String("expression", note.Expression), slog.Int64("id", id))
	return id, nil
}

// FindNotes returns the ids of the notes matching an Anki search query.
func (c *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	err := c.invoke(ctx, "findNotes", map[string]any{"query": query}, &ids)
	return ids, err
}

// NoteInfo is the subset of notesInfo output this package reads.
type NoteInfo struct {
	NoteID    int64                 `json:"noteId"`
	ModelName string                `json:"modelName"`
	Tags      []string              `json:"tags"`
	Fields    map[string]FieldValue `json:"fields"`
}

// FieldValue is one field of a NoteInfo.
type FieldValue struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// NotesInfo returns the contents of the given notes.
func (c *Client) NotesInfo(ctx context.Context, ids []int64) ([]NoteInfo, error) {
	if ids == nil {
		ids = []int64{}
	}
	var infos []NoteInfo
	err := c.invoke(ctx, "notesInfo", map[string]any{"notes": ids}, &infos)
	return infos, err
}

// DeckQuery is the search query selecting every note of deck.
func DeckQuery(deck string) string {
	return fmt.Sprintf("deck:%q", deck)
}

// DeckValues returns, for every note in deck, the value of the named field.
// Notes that lack the field are skipped.
func (c *Client) DeckValues(ctx context.Context, deck, field string) ([]string, error) {
	ids, err := c.FindNotes(ctx, DeckQuery(deck))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	infos, err := c.NotesInfo(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		f, ok := info.Fields[field]
		if !ok {
			c.log.WarnContext(ctx, "note without field", slog.Int64("note", info.NoteID), slog.String("field", field))
			continue
		}
		out = append(out, f.Value)
	}
	return out, nil
}
