package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"media-router/internal/demux"
	"media-router/internal/metrics"
)

// DemuxerResponse is a custom demuxer as shown to clients.
type DemuxerResponse struct {
	ID          demux.EntryID     `json:"id"`
	Index       int               `json:"index"`
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	Predicates  []demux.Predicate `json:"predicates"`
	ReaderCmd   string            `json:"readerCmd"`
	ExtraArgs   []string          `json:"extraArgs"`
}

// DemuxerUpdate changes the fields that are present.
type DemuxerUpdate struct {
	Name       *string            `json:"name"`
	Predicates *[]demux.Predicate `json:"predicates"`
	ReaderCmd  *string            `json:"readerCmd"`
	ExtraArgs  *[]string          `json:"extraArgs"`
}

func demuxerResponse(e demux.Entry, index int) DemuxerResponse {
	resp := DemuxerResponse{
		ID:          e.ID,
		Index:       index,
		Name:        e.Name,
		DisplayName: e.DisplayName(),
		Predicates:  e.Predicates,
		ReaderCmd:   strings.TrimSpace(e.ReaderCmd.String()),
		ExtraArgs:   e.ExtraArgs,
	}
	if resp.Predicates == nil {
		resp.Predicates = []demux.Predicate{}
	}
	if resp.ExtraArgs == nil {
		resp.ExtraArgs = []string{}
	}
	return resp
}

// listLocked renders the table. Callers hold mu.
func (h *Handlers) listLocked() []DemuxerResponse {
	entries := h.cfg.CustomDemuxers.Entries()
	out := make([]DemuxerResponse, len(entries))
	for i, e := range entries {
		out[i] = demuxerResponse(e, i)
	}
	return out
}

// entryLocked returns the entry addressed by the id route variable.
// Callers hold mu.
func (h *Handlers) entryLocked(r *http.Request) (demux.Entry, int, bool) {
	id := demux.EntryID(mux.Vars(r)["id"])
	i := h.cfg.CustomDemuxers.IndexOf(id)
	if i < 0 {
		return demux.Entry{}, -1, false
	}
	e, _ := h.cfg.CustomDemuxers.At(i)
	return e, i, true
}

// respondSaved writes v, or a 500 when the configuration could not be
// written. The in-memory change is kept either way.
func respondSaved(w http.ResponseWriter, saveErr error, v interface{}, statusCode int) {
	if saveErr != nil {
		writeJSONError(w, saveFailedMessage(saveErr), http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, v, statusCode)
}

func saveFailedMessage(err error) string {
	return "change applied but config could not be saved: " + err.Error()
}

// ListDemuxers returns the table in priority order.
func (h *Handlers) ListDemuxers(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSONStatusCode(w, h.listLocked(), http.StatusOK)
}

// AddDemuxer appends an empty entry at the lowest priority.
func (h *Handlers) AddDemuxer(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.cfg.CustomDemuxers.Add()
	e, _ := h.cfg.CustomDemuxers.At(i)
	err := h.mutated("add")
	respondSaved(w, err, demuxerResponse(e, i), http.StatusCreated)
}

// GetDemuxer returns one entry.
func (h *Handlers) GetDemuxer(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, i, ok := h.entryLocked(r)
	if !ok {
		writeJSONError(w, "demuxer not found", http.StatusNotFound)
		return
	}
	writeJSONStatusCode(w, demuxerResponse(e, i), http.StatusOK)
}

// UpdateDemuxer replaces the fields present in the body. A reader command
// that does not parse rejects the whole update.
func (h *Handlers) UpdateDemuxer(w http.ResponseWriter, r *http.Request) {
	var req DemuxerUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cmd demux.Command
	if req.ReaderCmd != nil {
		parsed, err := demux.ParseCommand(*req.ReaderCmd)
		if err != nil {
			metrics.RuleEditErrorsTotal.Inc()
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		cmd = parsed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := demux.EntryID(mux.Vars(r)["id"])
	ok := h.cfg.CustomDemuxers.Update(id, func(e *demux.Entry) {
		if req.Name != nil {
			e.Name = *req.Name
		}
		if req.Predicates != nil {
			e.Predicates = append([]demux.Predicate{}, *req.Predicates...)
		}
		if req.ReaderCmd != nil {
			e.ReaderCmd = cmd
		}
		if req.ExtraArgs != nil {
			e.ExtraArgs = append([]string{}, *req.ExtraArgs...)
		}
	})
	if !ok {
		writeJSONError(w, "demuxer not found", http.StatusNotFound)
		return
	}

	e, i, _ := h.entryLocked(r)
	err := h.mutated("update")
	respondSaved(w, err, demuxerResponse(e, i), http.StatusOK)
}

// DeleteDemuxer removes an entry. An edit in progress on it is dropped
// when it ends.
func (h *Handlers) DeleteDemuxer(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.cfg.CustomDemuxers.RemoveID(demux.EntryID(mux.Vars(r)["id"])) {
		writeJSONError(w, "demuxer not found", http.StatusNotFound)
		return
	}
	if err := h.mutated("remove"); err != nil {
		writeJSONError(w, saveFailedMessage(err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloneDemuxer inserts a copy of an entry directly above it.
func (h *Handlers) CloneDemuxer(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	newID, ok := h.cfg.CustomDemuxers.CloneID(demux.EntryID(mux.Vars(r)["id"]))
	if !ok {
		writeJSONError(w, "demuxer not found", http.StatusNotFound)
		return
	}
	i := h.cfg.CustomDemuxers.IndexOf(newID)
	e, _ := h.cfg.CustomDemuxers.At(i)
	err := h.mutated("clone")
	respondSaved(w, err, demuxerResponse(e, i), http.StatusCreated)
}

// MoveDemuxer raises or lowers the priority of an entry by one, according
// to the direction query parameter. Moving past either end is a no-op.
func (h *Handlers) MoveDemuxer(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	if direction != "up" && direction != "down" {
		writeJSONError(w, `direction must be "up" or "down"`, http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := demux.EntryID(mux.Vars(r)["id"])
	before := h.cfg.CustomDemuxers.IndexOf(id)
	if before < 0 {
		writeJSONError(w, "demuxer not found", http.StatusNotFound)
		return
	}
	if direction == "up" {
		h.cfg.CustomDemuxers.MoveUp(id)
	} else {
		h.cfg.CustomDemuxers.MoveDown(id)
	}

	var err error
	if h.cfg.CustomDemuxers.IndexOf(id) != before {
		err = h.mutated("move")
	}
	respondSaved(w, err, h.listLocked(), http.StatusOK)
}

// EditState is the edit slot as seen by clients.
type EditState struct {
	Active bool          `json:"active"`
	ID     demux.EntryID `json:"id,omitempty"`
	Field  string        `json:"field,omitempty"`
	Text   string        `json:"text"`
	Error  string        `json:"error,omitempty"`
}

// editTarget parses the id and field route variables.
func editTarget(r *http.Request) (demux.EditTarget, error) {
	vars := mux.Vars(r)
	field, err := demux.ParseField(vars["field"])
	if err != nil {
		return demux.EditTarget{}, err
	}
	return demux.EditTarget{Entry: demux.EntryID(vars["id"]), Field: field}, nil
}

// editStateLocked describes target. Callers hold mu.
func (h *Handlers) editStateLocked(target demux.EditTarget) EditState {
	active, ok := h.editor.Active()
	return EditState{
		Active: ok && active == target,
		ID:     target.Entry,
		Field:  target.Field.String(),
		Text:   h.editor.Text(h.cfg.CustomDemuxers, target),
		Error:  h.editor.Err(),
	}
}

// GetEdit returns what the field shows: the buffer while it is edited,
// the committed value otherwise.
func (h *Handlers) GetEdit(w http.ResponseWriter, r *http.Request) {
	target, err := editTarget(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.CustomDemuxers.IndexOf(target.Entry) < 0 {
		writeJSONError(w, "demuxer not found", http.StatusNotFound)
		return
	}
	writeJSONStatusCode(w, h.editStateLocked(target), http.StatusOK)
}

// BeginEdit starts editing a field. An edit in progress elsewhere is
// discarded, or committed with ?previous=commit.
func (h *Handlers) BeginEdit(w http.ResponseWriter, r *http.Request) {
	target, err := editTarget(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	policy := demux.Discard
	switch r.URL.Query().Get("previous") {
	case "", "discard":
	case "commit":
		policy = demux.Commit
	default:
		writeJSONError(w, `previous must be "commit" or "discard"`, http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev, hadPrev := h.editor.Active()
	prevErr := h.editor.Err()
	if _, err := h.editor.Begin(h.cfg.CustomDemuxers, target, policy); err != nil {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	var saveErr error
	if hadPrev && prev != target && policy == demux.Commit {
		if e := h.editor.Err(); e != "" && e != prevErr {
			metrics.RuleEditErrorsTotal.Inc()
		}
		saveErr = h.mutated("edit")
	}
	respondSaved(w, saveErr, h.editStateLocked(target), http.StatusOK)
}

// editText is the body of SetEditBuffer.
type editText struct {
	Text string `json:"text"`
}

// SetEditBuffer replaces the in-flight text of the field being edited.
func (h *Handlers) SetEditBuffer(w http.ResponseWriter, r *http.Request) {
	target, err := editTarget(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req editText
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if active, ok := h.editor.Active(); !ok || active != target {
		writeJSONError(w, "field is not being edited", http.StatusConflict)
		return
	}
	h.editor.SetBuffer(req.Text)
	writeJSONStatusCode(w, h.editStateLocked(target), http.StatusOK)
}

// EndEdit finishes the edit of a field. A command that does not parse is
// reported with 422 and the previous command is kept. ?discard=true
// abandons the edit instead.
func (h *Handlers) EndEdit(w http.ResponseWriter, r *http.Request) {
	target, err := editTarget(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if active, ok := h.editor.Active(); !ok || active != target {
		writeJSONError(w, "field is not being edited", http.StatusConflict)
		return
	}

	if r.URL.Query().Get("discard") == "true" {
		h.editor.Cancel()
		writeJSONStatusCode(w, h.editStateLocked(target), http.StatusOK)
		return
	}

	if err := h.editor.End(h.cfg.CustomDemuxers); err != nil {
		metrics.RuleEditErrorsTotal.Inc()
		var parseErr *demux.CommandParseError
		if errors.As(err, &parseErr) {
			writeJSONStatusCode(w, h.editStateLocked(target), http.StatusUnprocessableEntity)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var saveErr error
	if h.cfg.CustomDemuxers.IndexOf(target.Entry) >= 0 {
		saveErr = h.mutated("edit")
	}
	respondSaved(w, saveErr, h.editStateLocked(target), http.StatusOK)
}
