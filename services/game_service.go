// services/game_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/models"
	"github.com/wfunc/survivalserver/monitor"
	"github.com/wfunc/survivalserver/persistence"
	"github.com/wfunc/survivalserver/session"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/telemetry"
	"github.com/wfunc/survivalserver/timer"
	"github.com/wfunc/survivalserver/turn"
	"github.com/wfunc/survivalserver/world"
)

// Response is what every transport returns for a session.
type Response struct {
	SessionID string `json:"session_id"`
	*turn.Result
}

// Options configures a GameService.
type Options struct {
	// Seed is mixed into every session seed. 0 draws a fresh seed per session.
	Seed          int64
	SessionIdle   time.Duration
	SweepInterval time.Duration
}

// GameService runs the load, dispatch, save cycle for one action at a time
// per session. Sessions are cached in memory between requests; the
// database copy is authoritative.
type GameService struct {
	db         persistence.Database
	sessions   *session.Manager
	dispatcher *turn.Dispatcher
	world      world.Provider
	monitor    *monitor.Monitor
	timers     *timer.Manager
	tracer     trace.Tracer
	opts       Options
	now        func() time.Time
}

func NewGameService(db persistence.Database, w world.Provider, mon *monitor.Monitor, opts Options) *GameService {
	s := &GameService{
		db:         db,
		sessions:   session.NewManager(),
		dispatcher: turn.NewDispatcher(w),
		world:      w,
		monitor:    mon,
		tracer:     telemetry.Tracer("services"),
		opts:       opts,
		now:        time.Now,
	}
	s.dispatcher.OnViolation = func(*session.Session, error) {
		s.monitor.IncGraphViolations()
	}
	return s
}

// StartSweeper evicts idle sessions from the cache at the configured
// interval. Evicted sessions are reloaded from the database on their next
// action, without live references.
func (s *GameService) StartSweeper() {
	if s.opts.SessionIdle <= 0 || s.opts.SweepInterval <= 0 || s.timers != nil {
		return
	}
	s.timers = timer.NewManager(0)
	s.timers.Every("evict-idle-sessions", s.opts.SweepInterval, s.sweep)
	s.timers.Start()
}

func (s *GameService) sweep(now time.Time) {
	evicted := s.sessions.EvictIdle(s.opts.SessionIdle, now)
	if len(evicted) > 0 {
		logger.Log.Infow("evicted idle sessions", "count", len(evicted))
	}
	s.monitor.AddEvicted(len(evicted))
	s.monitor.SetActiveSessions(s.sessions.Count())
}

func (s *GameService) Close() {
	if s.timers != nil {
		s.timers.Stop()
	}
}

// NewSession starts a survivor at the world's start location.
func (s *GameService) NewSession(ctx context.Context, userID int64, name string) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.NewSession")
	defer span.End()

	seed := s.opts.Seed
	if seed == 0 {
		var err error
		if seed, err = dice.NewSeed(); err != nil {
			telemetry.Fail(span, err)
			return nil, apperr.Wrap(apperr.CodeInternal, err, "could not start a session")
		}
	}
	if name == "" {
		name = "Survivor"
	}

	sess := session.NewSession(uuid.NewString(), userID, seed, name, s.world.Start())
	sess.Narrate("You wake at %s with a knife and a coil of cordage.", s.locationName(sess.Player.Location))
	span.SetAttributes(attribute.String("session.id", sess.ID))

	if err := s.save(ctx, sess); err != nil {
		telemetry.Fail(span, err)
		logger.Log.Errorw("save new session failed", "session", sess.ID, "error", err)
		return nil, apperr.Wrap(apperr.CodeInternal, err, "could not save the session")
	}
	s.sessions.Add(sess)
	s.monitor.IncSessionsCreated()
	s.monitor.SetActiveSessions(s.sessions.Count())

	return &Response{SessionID: sess.ID, Result: s.dispatcher.Render(ctx, sess)}, nil
}

// View renders a session without acting on it.
func (s *GameService) View(ctx context.Context, sessionID string) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.View", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	return &Response{SessionID: sess.ID, Result: s.dispatcher.Render(ctx, sess)}, nil
}

// Act applies one action token. On any failure the stored session is left
// as it was, except that a sequence whose live state was lost is ended.
func (s *GameService) Act(ctx context.Context, sessionID, token string) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.Act", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("token", token),
	))
	defer span.End()
	started := s.now()

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		telemetry.Fail(span, err)
		s.monitor.ObserveAction("none", string(apperr.GetCode(err)), s.now().Sub(started))
		return nil, err
	}

	from := sess.Phase()
	family := familyLabel(from)
	span.SetAttributes(attribute.String("phase.from", from.String()))

	r := dice.ForSession(sess.Seed, sess.ID, sess.Version)
	res, err := s.dispatcher.Dispatch(ctx, sess, r, token)
	if err != nil {
		telemetry.Fail(span, err)
		code := apperr.GetCode(err)
		s.monitor.ObserveAction(family, string(code), s.now().Sub(started))
		s.record(ctx, sess, token, family, from, nil, string(code), apperr.Message(err))

		if code == apperr.CodeMissingLiveState {
			s.abandon(ctx, sess)
		}
		return nil, err
	}

	sess.Version++
	sess.Touch()
	res.Summary.Version = sess.Version
	if err := s.save(ctx, sess); err != nil {
		// the cached copy is ahead of the database now
		s.sessions.Remove(sess.ID)
		telemetry.Fail(span, err)
		logger.Log.Errorw("save session failed", "session", sess.ID, "error", err)
		s.monitor.ObserveAction(family, string(apperr.CodeInternal), s.now().Sub(started))
		return nil, apperr.Wrap(apperr.CodeInternal, err, "could not save the session")
	}

	span.SetAttributes(attribute.String("phase.to", res.Phase.String()))
	s.monitor.ObserveAction(family, models.OutcomeOK, s.now().Sub(started))
	s.record(ctx, sess, token, family, from, res.Path, models.OutcomeOK, res.Message)
	return &Response{SessionID: sess.ID, Result: res}, nil
}

// Stats returns the action tally of a session.
func (s *GameService) Stats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.Stats")
	defer span.End()

	if _, err := s.db.LoadSession(ctx, sessionID); err != nil {
		telemetry.Fail(span, err)
		return nil, storeError(err)
	}
	stats, err := s.db.GetSessionStats(ctx, sessionID)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, apperr.Wrap(apperr.CodeInternal, err, "could not read statistics")
	}
	return stats, nil
}

// abandon ends a sequence that can no longer be resumed and stores the
// result, so the next action starts from idle.
func (s *GameService) abandon(ctx context.Context, sess *session.Session) {
	sess.ClearPending()
	sess.TakeTrail()
	sess.Narrate("The moment has passed.")
	sess.Version++
	sess.Touch()
	if err := s.save(ctx, sess); err != nil {
		s.sessions.Remove(sess.ID)
		logger.Log.Errorw("save abandoned session failed", "session", sess.ID, "error", err)
		return
	}
	logger.Log.Warnw("abandoned sequence without live state", "session", sess.ID)
}

// load returns the cached session or restores it from the database.
// Callers hold the session lock.
func (s *GameService) load(ctx context.Context, sessionID string) (*session.Session, error) {
	if sess, ok := s.sessions.Get(sessionID); ok {
		return sess, nil
	}

	ctx, span := s.tracer.Start(ctx, "GameService.load")
	defer span.End()

	rec, err := s.db.LoadSession(ctx, sessionID)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, storeError(err)
	}
	sess, err := session.Decode(rec.Data)
	if err != nil {
		telemetry.Fail(span, err)
		logger.Log.Errorw("corrupt session", "session", sessionID, "error", err)
		return nil, apperr.Wrap(apperr.CodeCorruptState, err, "the saved session is damaged")
	}
	if sess.ID != sessionID {
		return nil, apperr.New(apperr.CodeCorruptState, "the saved session is damaged")
	}
	s.sessions.Add(sess)
	s.monitor.SetActiveSessions(s.sessions.Count())
	return sess, nil
}

func (s *GameService) save(ctx context.Context, sess *session.Session) error {
	ctx, span := s.tracer.Start(ctx, "GameService.save")
	defer span.End()

	data, err := session.Encode(sess)
	if err != nil {
		telemetry.Fail(span, err)
		return err
	}
	err = s.db.SaveSession(ctx, &models.SessionRecord{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Phase:     sess.Phase().String(),
		Version:   sess.Version,
		Data:      data,
	})
	telemetry.Fail(span, err)
	return err
}

func (s *GameService) record(ctx context.Context, sess *session.Session, token, family string, from state.Phase, path []state.Phase, outcome, message string) {
	names := make([]string, 0, len(path))
	for _, p := range path {
		names = append(names, p.String())
	}
	rec := &models.ActivityRecord{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Token:     token,
		Family:    family,
		FromPhase: from.String(),
		ToPhase:   sess.Phase().String(),
		Path:      names,
		Outcome:   outcome,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.db.SaveActivityRecord(ctx, rec); err != nil {
		logger.Log.Warnw("save activity record failed", "session", sess.ID, "error", err)
	}
}

func (s *GameService) locationName(id string) string {
	if loc, ok := s.world.Location(id); ok {
		return loc.Name
	}
	return id
}

func familyLabel(p state.Phase) string {
	if f := p.Family(); f != state.FamilyNone {
		return string(f)
	}
	return "idle"
}

func storeError(err error) error {
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return apperr.New(apperr.CodeSessionNotFound, "No such session.")
	}
	return apperr.Wrap(apperr.CodeInternal, err, "could not load the session")
}
