package qrsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/internal/platform/bank"
	"github.com/fatflowers/fuelpos/pkg/logctx"
	"github.com/fatflowers/fuelpos/pkg/metrics"
	"github.com/fatflowers/fuelpos/pkg/tool"
)

const (
	subscriberBuffer = 32
	recordTimeout    = 30 * time.Second
)

type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	TickInterval time.Duration
	// Retention is how long finished sessions stay queryable. Zero disables
	// the background janitor; Prune can still be called directly.
	Retention time.Duration
	RefPrefix string
	// Listener observes every event. It runs under the manager lock and must
	// not call back into the Manager.
	Listener func(Event)
}

// Renderer turns a payload into an image.
type Renderer interface {
	Render(payload string) ([]byte, error)
}

// Recorder persists a paid sale.
type Recorder interface {
	Record(ctx context.Context, req *transaction.RecordRequest) (*models.Transaction, error)
}

type Manager struct {
	opts        Options
	build       PayloadBuilder
	merchantRef string
	renderer    Renderer
	checker     bank.StatusChecker
	recorder    Recorder
	metrics     *metrics.Business
	log         *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

func NewManager(opts Options, build PayloadBuilder, merchantRef string, renderer Renderer, checker bank.StatusChecker, recorder Recorder, m *metrics.Business, log *zap.SugaredLogger) *Manager {
	if opts.RefPrefix == "" {
		opts.RefPrefix = "TXN"
	}
	ctx, cancel := context.WithCancel(context.Background())
	mgr := &Manager{
		opts:        opts,
		build:       build,
		merchantRef: merchantRef,
		renderer:    renderer,
		checker:     checker,
		recorder:    recorder,
		metrics:     m,
		log:         log,
		sessions:    make(map[string]*session),
		baseCtx:     ctx,
		baseCancel:  cancel,
	}
	if opts.Retention > 0 {
		mgr.wg.Add(1)
		go mgr.janitor()
	}
	return mgr
}

// Start creates a session and, when the payload can be built, begins
// waiting for payment. An encoding failure yields a failed session, not an
// error.
func (m *Manager) Start(ctx context.Context, req StartRequest) (Session, error) {
	return m.start(ctx, req, "")
}

func (m *Manager) start(ctx context.Context, req StartRequest, retryOf string) (Session, error) {
	if req.Sale != nil && !req.Sale.PaymentMethod.IsQR() {
		return Session{}, fmt.Errorf("%w: payment method %q is not a QR method", ErrInvalidRequest, req.Sale.PaymentMethod)
	}

	now := time.Now()
	s := &session{
		Session: Session{
			ID:             tool.GenerateUUIDV7(),
			TransactionRef: tool.GenerateTransactionRef(m.opts.RefPrefix, now),
			Amount:         req.Amount,
			MerchantRef:    m.merchantRef,
			CreatedAt:      now,
			ExpiresAt:      now.Add(m.opts.Timeout),
			RetryOf:        retryOf,
		},
		req:     req,
		traceID: logctx.TraceID(ctx),
		subs:    make(map[int]chan Event),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Session{}, ErrClosed
	}
	m.sessions[s.ID] = s
	m.setStateLocked(s, StateGenerating, ReasonNone, "")
	m.mu.Unlock()

	payload, err := m.build(s.TransactionRef, req.Amount)
	var img []byte
	if err == nil {
		img, err = m.renderer.Render(payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State != StateGenerating || m.closed {
		return s.snapshot(time.Now()), nil
	}
	if err != nil {
		logctx.FromCtx(ctx, m.log).Warnw("qr_payload_generation_failed", "session_id", s.ID, "err", err)
		m.setStateLocked(s, StateFailed, ReasonEncodingError, err.Error())
		return s.snapshot(time.Now()), nil
	}

	s.Payload = payload
	s.image = img
	sctx, cancel := context.WithCancel(m.baseCtx)
	s.cancel = cancel
	m.setStateLocked(s, StateWaiting, ReasonNone, "")

	m.wg.Add(2)
	go m.poll(sctx, s)
	go m.countdown(sctx, s)
	return s.snapshot(time.Now()), nil
}

func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s.snapshot(time.Now()), nil
}

// Image returns the rendered QR of a session.
func (m *Manager) Image(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if len(s.image) == 0 {
		return nil, ErrNoImage
	}
	return s.image, nil
}

// Cancel ends a session that has not succeeded. Once it returns, nothing
// from the session's poller can change its state.
func (m *Manager) Cancel(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.State.Terminal() || s.RetriedBy != "" || s.retrying {
		return s.snapshot(time.Now()), fmt.Errorf("%w: cannot cancel %s session", ErrInvalidTransition, s.State)
	}
	m.setStateLocked(s, StateCancelled, ReasonCancelled, "")
	return s.snapshot(time.Now()), nil
}

// Retry replaces a failed or timed out session with a fresh one for the
// same sale: new id, new transaction reference, new deadline.
func (m *Manager) Retry(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}
	switch {
	case !s.State.Retryable():
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: cannot retry %s session", ErrInvalidTransition, s.State)
	case s.Reason == ReasonEncodingError:
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: payload cannot be encoded", ErrInvalidTransition)
	case s.RetriedBy != "" || s.retrying:
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: already retried", ErrInvalidTransition)
	}
	s.retrying = true
	req := s.req
	m.mu.Unlock()

	next, err := m.start(ctx, req, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	s.retrying = false
	if err != nil {
		return Session{}, err
	}
	s.RetriedBy = next.ID
	m.publishLocked(s, Event{
		Type:          EventRetried,
		SessionID:     s.ID,
		State:         s.State,
		Reason:        s.Reason,
		NextSessionID: next.ID,
		At:            time.Now(),
	})
	m.closeSubsLocked(s)
	logctx.FromCtx(ctx, m.log).Infow("qr_session_retried", "session_id", id, "next_session_id", next.ID)
	return next, nil
}

// Subscribe streams the session's events, starting with its current state.
// The channel is closed when the session succeeds, is cancelled, is retried
// or is pruned; call the returned func to stop early.
func (m *Manager) Subscribe(id string) (<-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	ch := make(chan Event, subscriberBuffer)
	ch <- m.stateEventLocked(s)
	if s.State.Terminal() || s.RetriedBy != "" {
		close(ch)
		return ch, func() {}, nil
	}
	subID := s.nextSub
	s.nextSub++
	s.subs[subID] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := s.subs[subID]; ok {
			delete(s.subs, subID)
			close(c)
		}
	}, nil
}

// Active counts sessions still waiting for payment.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.State == StateWaiting {
			n++
		}
	}
	return n
}

// Prune drops sessions that finished at least Retention before now.
func (m *Manager) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.FinishedAt == nil || s.retrying || now.Sub(*s.FinishedAt) < m.opts.Retention {
			continue
		}
		m.closeSubsLocked(s)
		delete(m.sessions, id)
		n++
	}
	return n
}

// Close stops every session's tasks and waits for them, or for ctx.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, s := range m.sessions {
		m.closeSubsLocked(s)
	}
	m.mu.Unlock()
	m.baseCancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) janitor() {
	defer m.wg.Done()
	t := time.NewTicker(max(m.opts.Retention/2, 10*time.Millisecond))
	defer t.Stop()
	for {
		select {
		case <-m.baseCtx.Done():
			return
		case now := <-t.C:
			if n := m.Prune(now); n > 0 {
				m.log.Debugw("qr_sessions_pruned", "count", n)
			}
		}
	}
}

// activeLocked reports whether results from s's tasks may still apply.
func (m *Manager) activeLocked(s *session) bool {
	return !m.closed && m.sessions[s.ID] == s && s.State == StateWaiting
}

// setStateLocked moves s to state and publishes the transition, except for
// succeeded which is published once the sale has been recorded.
func (m *Manager) setStateLocked(s *session, state State, reason Reason, detail string) {
	prev := s.State
	now := time.Now()
	s.State = state
	s.Reason = reason
	s.Detail = detail
	if prev == StateWaiting {
		m.metrics.SessionWaited(float64(now.Sub(s.CreatedAt).Milliseconds()))
	}
	if state != StateGenerating && state != StateWaiting {
		s.FinishedAt = &now
		if s.cancel != nil {
			s.cancel()
		}
	}
	m.metrics.SessionTransition(string(state), string(reason))
	m.log.Infow("qr_session_state_changed",
		"session_id", s.ID,
		"transaction_ref", s.TransactionRef,
		"from", prev,
		"to", state,
		"reason", reason,
		"trace_id", s.traceID,
	)
	if state == StateSucceeded {
		return
	}
	m.publishLocked(s, m.stateEventLocked(s))
	if state.Terminal() {
		m.closeSubsLocked(s)
	}
}

func (m *Manager) stateEventLocked(s *session) Event {
	snap := s.snapshot(time.Now())
	ev := Event{
		Type:                  EventState,
		SessionID:             s.ID,
		State:                 s.State,
		Reason:                s.Reason,
		Detail:                s.Detail,
		RemainingMs:           snap.RemainingMs,
		Remaining:             time.Duration(snap.RemainingMs) * time.Millisecond,
		ExternalTransactionID: s.ExternalTransactionID,
		NeedsReconciliation:   s.NeedsReconciliation,
		NextSessionID:         s.RetriedBy,
		At:                    time.Now(),
	}
	return ev
}

func (m *Manager) publishLocked(s *session, ev Event) {
	if ev.Err != nil {
		ev.Error = ev.Err.Error()
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; it can still read the final state with Get.
		}
	}
	if m.opts.Listener != nil {
		m.opts.Listener(ev)
	}
}

func (m *Manager) closeSubsLocked(s *session) {
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (m *Manager) tick(s *session, remaining time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.activeLocked(s) {
		return
	}
	m.publishLocked(s, Event{
		Type:        EventTick,
		SessionID:   s.ID,
		State:       s.State,
		Remaining:   remaining,
		RemainingMs: remaining.Milliseconds(),
		At:          time.Now(),
	})
}

func (m *Manager) timeout(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.activeLocked(s) {
		return
	}
	m.setStateLocked(s, StateTimedOut, ReasonTimeout, "")
}

func (m *Manager) fail(s *session, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.activeLocked(s) {
		return
	}
	m.setStateLocked(s, StateFailed, ReasonExternalFailure, detail)
}

// succeed moves s to succeeded and records the sale. The state check under
// the lock is what makes the recorder run at most once per session.
func (m *Manager) succeed(s *session, externalID string) {
	m.mu.Lock()
	if !m.activeLocked(s) {
		m.mu.Unlock()
		return
	}
	if !time.Now().Before(s.ExpiresAt) {
		m.setStateLocked(s, StateTimedOut, ReasonTimeout, "")
		m.mu.Unlock()
		return
	}
	s.ExternalTransactionID = externalID
	m.setStateLocked(s, StateSucceeded, ReasonNone, "")
	m.mu.Unlock()

	tx, err := m.record(s, externalID)

	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.log.With("session_id", s.ID, "trace_id", s.traceID)
	if tx != nil {
		s.TransactionID = tx.ID
		s.ReceiptNumber = tx.ReceiptNumber
		if !tx.TotalAmount.Equal(s.Amount) {
			s.NeedsReconciliation = true
			log.Warnw("qr_paid_amount_differs_from_total", "paid", s.Amount.StringFixed(2), "total", tx.TotalAmount.StringFixed(2))
		}
	}
	if err != nil {
		s.NeedsReconciliation = true
		s.Detail = err.Error()
		log.Errorw("qr_session_record_failed", "external_transaction_id", externalID, "err", err)
	}
	ev := m.stateEventLocked(s)
	ev.Transaction = tx
	ev.Err = err
	m.publishLocked(s, ev)
	m.closeSubsLocked(s)
}

func (m *Manager) record(s *session, externalID string) (*models.Transaction, error) {
	sale := s.req.Sale
	if m.recorder == nil || sale == nil {
		return nil, nil
	}
	ctx := logctx.WithTraceID(context.Background(), s.traceID)
	ctx = logctx.WithEmployeeID(ctx, sale.EmployeeID)
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	tx, err := m.recorder.Record(ctx, &transaction.RecordRequest{
		EmployeeID:            sale.EmployeeID,
		FuelTypeID:            sale.FuelTypeID,
		FuelAmount:            sale.FuelAmount,
		PaymentMethod:         sale.PaymentMethod,
		SessionID:             s.ID,
		TransactionRef:        s.TransactionRef,
		ExternalTransactionID: externalID,
		Notes:                 sale.Notes,
		ClientTotal:           &s.Amount,
		Meta:                  sale.Meta,
	})
	if errors.Is(err, transaction.ErrAlreadyRecorded) && tx != nil {
		return tx, nil
	}
	return tx, err
}
