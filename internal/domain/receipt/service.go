package receipt

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
	"stockroom/pkg/logger"
)

var tracer = otel.Tracer("stockroom/receipt")

// SlotView is the editing slot as seen by clients.
type SlotView struct {
	State   receiving.SlotState           `json:"state"`
	Item    *receiving.ItemSnapshot       `json:"item,omitempty"`
	Input   *receiving.ReceivingLineInput `json:"input,omitempty"`
	Figures *receiving.Figures            `json:"figures,omitempty"`
}

// SessionView is a read-only copy of a session.
type SessionView struct {
	SessionID  string                    `json:"sessionId"`
	Header     Header                    `json:"header"`
	Lines      []receiving.ReceivingLine `json:"lines"`
	Totals     Totals                    `json:"totals"`
	Slot       SlotView                  `json:"slot"`
	Submitting bool                      `json:"submitting"`
}

// sweepInterval bounds how often idle sessions are looked for.
const sweepInterval = time.Minute

// workspace is the live state of one session.
type workspace struct {
	mu    sync.Mutex
	store *SessionStore
	slot  *receiving.EditSlot
	seq   *id.Sequence

	inFlight bool
	// epoch changes on every explicit cancel; a submission that resolves
	// under a different epoch belongs to a discarded session.
	epoch uint64

	// closed is set once the workspace has left Service.sessions.
	closed   bool
	lastUsed time.Time
}

// Service coordinates receipt sessions: header edits, the editing slot,
// line storage and submission.
type Service struct {
	kv      KeyValueStore
	catalog receiving.Catalog
	creator Creator
	cfg     Config

	mu        sync.Mutex
	sessions  map[string]*workspace
	lastSweep time.Time
}

// NewService creates a receipt service.
func NewService(kv KeyValueStore, catalog receiving.Catalog, creator Creator, cfg Config) *Service {
	if cfg.Today == nil {
		cfg.Today = types.Today
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LineIDStrategy == "" {
		cfg.LineIDStrategy = LineIDUUID
	}
	return &Service{
		kv:       kv,
		catalog:  catalog,
		creator:  creator,
		cfg:      cfg,
		sessions: make(map[string]*workspace),
	}
}

// Preview recomputes figures for an input without touching any session.
func (s *Service) Preview(in receiving.ReceivingLineInput) receiving.Figures {
	return receiving.Recompute(in, s.cfg.Today(), s.cfg.Policy)
}

// NewSession starts an empty session and persists its default header.
func (s *Service) NewSession(ctx context.Context) (SessionView, error) {
	sessionID := id.New().String()
	ws := s.newWorkspace(sessionID, nil)

	if err := ws.store.Persist(ctx); err != nil {
		return SessionView{}, err
	}
	ws.lastUsed = s.cfg.Now()

	s.mu.Lock()
	s.sessions[sessionID] = ws
	s.mu.Unlock()

	logger.Info(ctx, "receiving session started", "session_id", sessionID)

	return ws.view(), nil
}

// Get returns a session, restoring it from storage when not loaded.
func (s *Service) Get(ctx context.Context, sessionID string) (SessionView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	defer ws.mu.Unlock()
	return ws.view(), nil
}

// UpdateHeader merges a header patch.
func (s *Service) UpdateHeader(ctx context.Context, sessionID string, patch HeaderPatch) (SessionView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	defer ws.mu.Unlock()

	if ws.inFlight {
		return SessionView{}, apperror.NewSubmissionInFlight(sessionID)
	}
	if _, err := ws.store.UpdateHeader(ctx, patch); err != nil {
		return SessionView{}, err
	}
	return ws.view(), nil
}

// SelectItem looks the item up in the catalog and starts editing it.
func (s *Service) SelectItem(ctx context.Context, sessionID, itemRef string) (SlotView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SlotView{}, err
	}
	defer ws.mu.Unlock()

	// Check before the catalog round trip so a busy slot fails fast.
	if st := ws.slot.State(); st != receiving.SlotIdle {
		cur, _ := ws.slot.Item()
		return SlotView{}, apperror.NewEditInProgress(cur.ItemRef)
	}

	item, err := s.catalog.GetItem(ctx, itemRef)
	if err != nil {
		return SlotView{}, err
	}
	if _, err := ws.slot.Select(item); err != nil {
		return SlotView{}, err
	}
	return ws.slotView(), nil
}

// UpdateSlot replaces the input of the item being edited.
func (s *Service) UpdateSlot(ctx context.Context, sessionID string, in receiving.ReceivingLineInput) (SlotView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SlotView{}, err
	}
	defer ws.mu.Unlock()

	if _, err := ws.slot.Update(in); err != nil {
		return SlotView{}, err
	}
	return ws.slotView(), nil
}

// CommitSlot assembles the item being edited and adds it to the session.
func (s *Service) CommitSlot(ctx context.Context, sessionID string) (receiving.ReceivingLine, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return receiving.ReceivingLine{}, err
	}
	defer ws.mu.Unlock()

	if ws.inFlight {
		return receiving.ReceivingLine{}, apperror.NewSubmissionInFlight(sessionID)
	}

	line, err := ws.slot.Commit(ctx, ws.store.AddLine)
	if err != nil {
		return receiving.ReceivingLine{}, err
	}

	logger.Info(ctx, "receiving line added",
		"session_id", sessionID,
		"line_id", line.LineID,
		"item_ref", line.Input.ItemRef,
		"paid_quantity", line.Quantities.PaidQuantity)

	return line, nil
}

// CancelSlot discards the item being edited.
func (s *Service) CancelSlot(ctx context.Context, sessionID string) (SlotView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SlotView{}, err
	}
	defer ws.mu.Unlock()

	ws.slot.Cancel()
	return ws.slotView(), nil
}

// RemoveLine deletes a line from the session.
func (s *Service) RemoveLine(ctx context.Context, sessionID, lineID string) (SessionView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	defer ws.mu.Unlock()

	if ws.inFlight {
		return SessionView{}, apperror.NewSubmissionInFlight(sessionID)
	}
	if err := ws.store.RemoveLine(ctx, lineID); err != nil {
		return SessionView{}, err
	}
	return ws.view(), nil
}

// Cancel clears the session: header, lines, editing slot and persisted keys.
// The session id is released. A submission still in flight is detached and
// its outcome discarded.
func (s *Service) Cancel(ctx context.Context, sessionID string) (SessionView, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	defer ws.mu.Unlock()

	if err := ws.store.Clear(ctx); err != nil {
		return SessionView{}, err
	}
	ws.slot.Cancel()
	if ws.inFlight {
		logger.Warn(ctx, "session cancelled during submission", "session_id", sessionID)
	}
	ws.inFlight = false
	ws.epoch++

	view := ws.view()
	s.evict(ws)

	logger.Info(ctx, "receiving session cancelled", "session_id", sessionID)

	return view, nil
}

// Submit hands the session to the receipt creator. The session is locked
// against changes while the call is in flight. On success it is cleared; on
// failure it is kept intact so the operator can retry.
func (s *Service) Submit(ctx context.Context, sessionID string) (Result, error) {
	ws, err := s.acquire(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	if ws.inFlight {
		ws.mu.Unlock()
		return Result{}, apperror.NewSubmissionInFlight(sessionID)
	}
	header := ws.store.Header()
	if err := header.Validate(); err != nil {
		ws.mu.Unlock()
		return Result{}, err
	}
	if ws.store.Len() == 0 {
		ws.mu.Unlock()
		return Result{}, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	payload := BuildPayload(header, ws.store.Lines())
	ws.inFlight = true
	epoch := ws.epoch
	ws.mu.Unlock()

	ctx, span := tracer.Start(ctx, "receipt.submit",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("receipt.lines", len(payload.Items)),
		))
	defer span.End()

	result, createErr := s.creator.CreateReceipt(ctx, payload)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.epoch != epoch {
		logger.Warn(ctx, "submission resolved after cancel, outcome discarded",
			"session_id", sessionID,
			"number", result.Number,
			"error", createErr)
		if createErr != nil {
			span.RecordError(createErr)
			return Result{}, apperror.NewSubmissionFailed(createErr)
		}
		return result, nil
	}
	ws.inFlight = false

	if createErr != nil {
		span.RecordError(createErr)
		span.SetStatus(codes.Error, "create receipt failed")
		logger.Error(ctx, "receipt submission failed", "session_id", sessionID, "error", createErr)
		return Result{}, apperror.NewSubmissionFailed(createErr)
	}

	if err := ws.store.Clear(ctx); err != nil {
		// The receipt exists; a stale snapshot is only a nuisance.
		logger.Warn(ctx, "clear submitted session failed", "session_id", sessionID, "error", err)
	}
	ws.slot.Cancel()
	s.evict(ws)

	logger.Info(ctx, "receipt submitted",
		"session_id", sessionID,
		"receipt_id", result.ReceiptID,
		"number", result.Number,
		"lines", len(payload.Items))

	return result, nil
}

// acquire returns the session locked. The caller unlocks ws.mu.
func (s *Service) acquire(ctx context.Context, sessionID string) (*workspace, error) {
	for {
		ws, restored, err := s.workspace(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		ws.mu.Lock()
		if ws.closed {
			// Cancelled, submitted or swept between lookup and lock.
			ws.mu.Unlock()
			continue
		}
		if s.cfg.SharedStore && !restored && !ws.inFlight {
			if err := s.reload(ctx, ws); err != nil {
				ws.mu.Unlock()
				return nil, err
			}
		}
		ws.lastUsed = s.cfg.Now()
		return ws, nil
	}
}

// workspace returns the loaded session or restores it from storage. restored
// reports that the state was read from the store by this call.
func (s *Service) workspace(ctx context.Context, sessionID string) (ws *workspace, restored bool, err error) {
	if sessionID == "" {
		return nil, false, apperror.NewValidation("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepIdle(ctx)

	if ws, ok := s.sessions[sessionID]; ok {
		return ws, false, nil
	}

	store := NewSessionStore(sessionID, s.kv, s.cfg.Today)
	found, err := store.Restore(ctx)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, apperror.NewNotFound("receiving session", sessionID)
	}

	ws = s.newWorkspace(sessionID, store)
	ws.lastUsed = s.cfg.Now()
	s.sessions[sessionID] = ws

	logger.Debug(ctx, "receiving session restored", "session_id", sessionID, "lines", store.Len())

	return ws, true, nil
}

// reload replaces the header and lines with what the store holds now, which
// another instance may have changed. The editing slot stays local. Caller
// holds ws.mu.
func (s *Service) reload(ctx context.Context, ws *workspace) error {
	sessionID := ws.store.SessionID()

	found, err := ws.store.Restore(ctx)
	if err != nil {
		return err
	}
	if !found {
		s.evict(ws)
		return apperror.NewNotFound("receiving session", sessionID)
	}
	if ws.seq != nil {
		ws.seq.Advance(lastLineSequence(ws.store.lines))
	}
	return nil
}

// evict closes the workspace and forgets it. Caller holds ws.mu.
func (s *Service) evict(ws *workspace) {
	ws.closed = true

	s.mu.Lock()
	if cur, ok := s.sessions[ws.store.SessionID()]; ok && cur == ws {
		delete(s.sessions, ws.store.SessionID())
	}
	s.mu.Unlock()
}

// sweepIdle forgets sessions unused for longer than IdleTTL. Busy sessions
// and submissions in flight are skipped. Caller holds s.mu.
func (s *Service) sweepIdle(ctx context.Context) {
	if s.cfg.IdleTTL <= 0 {
		return
	}
	now := s.cfg.Now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	for sessionID, ws := range s.sessions {
		if !ws.mu.TryLock() {
			continue
		}
		if !ws.inFlight && now.Sub(ws.lastUsed) > s.cfg.IdleTTL {
			ws.closed = true
			delete(s.sessions, sessionID)
			logger.Debug(ctx, "idle receiving session unloaded", "session_id", sessionID)
		}
		ws.mu.Unlock()
	}
}

func (s *Service) newWorkspace(sessionID string, store *SessionStore) *workspace {
	if store == nil {
		store = NewSessionStore(sessionID, s.kv, s.cfg.Today)
	}

	ws := &workspace{store: store}

	var gen id.Generator = id.UUIDGenerator{}
	if s.cfg.LineIDStrategy == LineIDSequence {
		ws.seq = id.NewSequence(lineSequencePrefix, lastLineSequence(store.lines))
		gen = ws.seq
	}
	ws.slot = receiving.NewEditSlot(s.cfg.Policy, gen, s.cfg.Today)

	return ws
}

// lastLineSequence returns the highest sequence number among the lines.
func lastLineSequence(lines []receiving.ReceivingLine) int64 {
	var last int64
	for _, l := range lines {
		if v := id.SequenceValue(lineSequencePrefix, l.LineID); v > last {
			last = v
		}
	}
	return last
}

func (w *workspace) view() SessionView {
	lines := w.store.Lines()
	return SessionView{
		SessionID:  w.store.SessionID(),
		Header:     w.store.Header(),
		Lines:      lines,
		Totals:     ComputeTotals(lines),
		Slot:       w.slotView(),
		Submitting: w.inFlight,
	}
}

func (w *workspace) slotView() SlotView {
	v := SlotView{State: w.slot.State()}
	if item, ok := w.slot.Item(); ok {
		in := w.slot.Input()
		fig := w.slot.Figures()
		v.Item = &item
		v.Input = &in
		v.Figures = &fig
	}
	return v
}
