package services

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// CooldownWindow is how long a completed quiz blocks a retake.
const CooldownWindow = 30 * 24 * time.Hour

// DefaultPace is the pause between an answer acknowledgement and the next
// question. It is purely user-perceived pacing; no state changes during it.
const DefaultPace = time.Second

// CooldownLedger is the durable per-user completion record. Put must be an
// atomic full replace of the mapping and writes must be serialized.
type CooldownLedger interface {
	Get(userID string) (time.Time, bool, error)
	Put(userID string, completedAt time.Time) error
	Snapshot() (map[string]time.Time, error)
	Delete(userID string) (bool, error)
}

// Notifier delivers private messages to a user. The chat gateway implements
// it; tests use an in-process stub.
type Notifier interface {
	SendNotice(userID, text string) error
	SendPrompt(userID string, p *Prompt) error
	SendAck(userID string, a *AnswerAck) error
	SendReport(userID string, r *Report) error
}

// EngineMetrics counts engine events. NopMetrics discards them.
type EngineMetrics interface {
	SessionStarted()
	CooldownRejected()
	AnswerRecorded()
	StaleDropped()
	SessionCompleted(label TypeLabel)
	LedgerWriteFailed()
}

// NopMetrics is the default EngineMetrics.
type NopMetrics struct{}

func (NopMetrics) SessionStarted()            {}
func (NopMetrics) CooldownRejected()          {}
func (NopMetrics) AnswerRecorded()            {}
func (NopMetrics) StaleDropped()              {}
func (NopMetrics) SessionCompleted(TypeLabel) {}
func (NopMetrics) LedgerWriteFailed()         {}

// StartOutcome reports whether a session began or the cooldown rejected it.
type StartOutcome struct {
	Started     bool
	Total       int
	NextAllowed time.Time
}

type sessionState struct {
	mu   sync.Mutex
	sess *Session
	done bool
}

// SessionService drives every active quiz session: question presentation,
// answer recording with the observed-cursor staleness guard, the wording
// toggle, and finalization.
type SessionService struct {
	bank     *Bank
	ledger   CooldownLedger
	notifier Notifier
	reporter *ReportService
	metrics  EngineMetrics

	now      func() time.Time
	rngMu    sync.Mutex
	rng      *rand.Rand
	pace     time.Duration
	schedule func(d time.Duration, f func())

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewSessionService wires the engine. Tests override now, rng, pace and
// schedule for determinism.
func NewSessionService(bank *Bank, ledger CooldownLedger, notifier Notifier, reporter *ReportService) *SessionService {
	return &SessionService{
		bank:     bank,
		ledger:   ledger,
		notifier: notifier,
		reporter: reporter,
		metrics:  NopMetrics{},
		now:      func() time.Time { return time.Now().UTC() },
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		pace:     DefaultPace,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		sessions: map[string]*sessionState{},
	}
}

// SetPace adjusts the pause before the next question is presented.
func (s *SessionService) SetPace(d time.Duration) {
	if d >= 0 {
		s.pace = d
	}
}

// SetMetrics installs a metrics collector; nil restores the no-op one.
func (s *SessionService) SetMetrics(m EngineMetrics) {
	if m == nil {
		m = NopMetrics{}
	}
	s.metrics = m
}

// Start begins a quiz for userID unless the cooldown window is still open.
// On success the shuffled session is stored (overwriting any stale one for
// the same user), the intro notice goes out, and the first question is
// presented.
func (s *SessionService) Start(userID, groupID string) (*StartOutcome, error) {
	if userID == "" {
		return nil, NewInvalidError("user_id required")
	}
	last, found, err := s.ledger.Get(userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if found && now.Before(last.Add(CooldownWindow)) {
		next := last.Add(CooldownWindow)
		s.metrics.CooldownRejected()
		_ = s.notifier.SendNotice(userID, fmt.Sprintf(
			"You took the quiz on %s. You can take it again on %s.",
			last.Format("2006-01-02"), next.Format("2006-01-02")))
		return &StartOutcome{NextAllowed: next}, nil
	}

	questions := s.bank.Flatten()
	s.rngMu.Lock()
	s.rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	s.rngMu.Unlock()

	scores := make(map[Function]int, len(FunctionOrder))
	for _, fn := range FunctionOrder {
		scores[fn] = 0
	}
	st := &sessionState{sess: &Session{
		UserID:    userID,
		GroupID:   groupID,
		Questions: questions,
		Scores:    scores,
		StartedAt: now,
	}}
	s.mu.Lock()
	s.sessions[userID] = st
	s.mu.Unlock()
	s.metrics.SessionStarted()

	_ = s.notifier.SendNotice(userID, fmt.Sprintf(
		"Eight-function quiz started. Answer with 1 (strongly disagree) through 5 (strongly agree). "+
			"%d questions in total; they will arrive here, one at a time.", len(questions)))
	if err := s.Present(userID); err != nil {
		return nil, err
	}
	return &StartOutcome{Started: true, Total: len(questions)}, nil
}

// Present pushes the current question in its evocative wording, or triggers
// finalization when the cursor has reached the end of the sequence.
func (s *SessionService) Present(userID string) error {
	st := s.state(userID)
	if st == nil {
		return NewNotFoundError("no active session")
	}
	st.mu.Lock()
	if st.done {
		st.mu.Unlock()
		return nil
	}
	if st.sess.Cursor >= len(st.sess.Questions) {
		st.mu.Unlock()
		s.finalize(userID)
		return nil
	}
	p := buildPrompt(st.sess, WordingEvocative)
	st.mu.Unlock()
	return s.notifier.SendPrompt(userID, p)
}

// RecordAnswer applies one button press. observedCursor is the cursor value
// the responder saw; if it no longer matches the session cursor the press is
// a stale duplicate and is dropped without any mutation. The guard and the
// cursor increment happen under the session lock, so concurrent presses for
// the same question commit at most once.
func (s *SessionService) RecordAnswer(userID string, observedCursor, score int) error {
	if score < 1 || score > 5 {
		return NewInvalidError("score must be between 1 and 5")
	}
	st := s.state(userID)
	if st == nil {
		// A press with no session behind it is by definition late; a
		// completed session has already been removed. Not an error.
		s.metrics.StaleDropped()
		return nil
	}

	st.mu.Lock()
	if st.done || observedCursor != st.sess.Cursor ||
		observedCursor < 0 || observedCursor >= len(st.sess.Questions) {
		st.mu.Unlock()
		s.metrics.StaleDropped()
		return nil
	}
	q := st.sess.Questions[observedCursor]
	st.sess.Scores[q.Function] += score
	st.sess.Cursor++
	total := len(st.sess.Questions)
	st.mu.Unlock()

	s.metrics.AnswerRecorded()
	_ = s.notifier.SendAck(userID, &AnswerAck{
		Cursor:   observedCursor,
		Total:    total,
		Score:    score,
		Question: q.Pair.Evocative,
	})
	// Pacing pause only; the next presentation re-reads the session state.
	s.schedule(s.pace, func() {
		if err := s.Present(userID); err != nil {
			log.Printf("session engine: present after answer for %s: %v", userID, err)
		}
	})
	return nil
}

// Wording re-presents the current question in the requested phrasing. It
// never mutates session state; a toggle carrying an old cursor is ignored.
func (s *SessionService) Wording(userID string, observedCursor int, w Wording) error {
	if w != WordingEvocative && w != WordingPlain {
		return NewInvalidError("wording must be evocative or plain")
	}
	st := s.state(userID)
	if st == nil {
		return nil // late toggle on a finished session
	}
	st.mu.Lock()
	if st.done || observedCursor != st.sess.Cursor || st.sess.Cursor >= len(st.sess.Questions) {
		st.mu.Unlock()
		return nil
	}
	p := buildPrompt(st.sess, w)
	st.mu.Unlock()
	return s.notifier.SendPrompt(userID, p)
}

// CurrentPrompt is the pull variant of Present: it returns the current
// question without sending anything or changing state.
func (s *SessionService) CurrentPrompt(userID string, w Wording) (*Prompt, error) {
	if w == "" {
		w = WordingEvocative
	}
	if w != WordingEvocative && w != WordingPlain {
		return nil, NewInvalidError("wording must be evocative or plain")
	}
	st := s.state(userID)
	if st == nil {
		return nil, NewNotFoundError("no active session")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.done || st.sess.Cursor >= len(st.sess.Questions) {
		return nil, NewNotFoundError("session has no pending question")
	}
	return buildPrompt(st.sess, w), nil
}

// ActiveSessions reports how many sessions are currently in flight.
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) state(userID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// finalize classifies the finished session, persists the cooldown entry,
// emits the report (role assignment and group stats included when a group
// context exists) and removes the session. A second call for the same user
// is a no-op.
func (s *SessionService) finalize(userID string) {
	st := s.state(userID)
	if st == nil {
		return
	}
	st.mu.Lock()
	if st.done || st.sess.Cursor < len(st.sess.Questions) {
		st.mu.Unlock()
		return
	}
	st.done = true
	sess := st.sess
	st.mu.Unlock()

	cls := Classify(sess.Scores)
	if err := s.ledger.Put(sess.UserID, sess.StartedAt); err != nil {
		// One immediate retry; a failed write is an operational error and
		// must never vanish silently.
		if err2 := s.ledger.Put(sess.UserID, sess.StartedAt); err2 != nil {
			s.metrics.LedgerWriteFailed()
			log.Printf("session engine: cooldown ledger write for %s: %v", sess.UserID, err2)
		}
	}

	rep := s.reporter.Build(sess.UserID, sess.GroupID, cls)
	_ = s.notifier.SendReport(sess.UserID, rep)
	s.metrics.SessionCompleted(rep.Label)

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// buildPrompt renders the question at the session cursor. Every option
// captures its own copy of the cursor and score at construction time, so a
// press always names the exact question it was rendered for.
func buildPrompt(sess *Session, w Wording) *Prompt {
	q := sess.Questions[sess.Cursor]
	text, alt := q.Pair.Evocative, WordingPlain
	if w == WordingPlain {
		text, alt = q.Pair.Plain, WordingEvocative
	}
	opts := make([]PromptOption, 0, 5)
	for score := 1; score <= 5; score++ {
		opts = append(opts, PromptOption{Cursor: sess.Cursor, Score: score})
	}
	return &Prompt{
		Cursor:     sess.Cursor,
		Total:      len(sess.Questions),
		Function:   q.Function,
		Wording:    w,
		Text:       text,
		AltWording: alt,
		Options:    opts,
	}
}
