package turn

import (
	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

// EventFamily runs branching-choice narrative events.
type EventFamily struct{}

func (EventFamily) Name() state.Family {
	return state.FamilyEvent
}

// openEvent presents ev, reusing the session's container if there is one.
func openEvent(tc *Context, ev world.Event) string {
	snap := activity.EventSnapshot{
		EventID: ev.ID(),
		Title:   ev.Title(),
		Text:    ev.Text(),
		Choices: choiceViews(ev.Choices(tc.Session)),
	}
	p := tc.Session.Begin(state.PhaseEventPending)
	p.Event = &activity.EventState{Snapshot: snap, Source: activity.Some(ev)}
	logger.Log.Debugw("event opened", "session", tc.Session.ID, "event", ev.ID())
	return ev.Title() + ": " + ev.Text()
}

func choiceViews(choices []world.Choice) []activity.ChoiceView {
	out := make([]activity.ChoiceView, len(choices))
	i := 0
	for n, c := range choices {
		out[n] = activity.ChoiceView{Label: c.Label, Available: c.Available, Reason: c.Reason}
		if c.Available {
			out[n].ID = ChoiceID(i, c.Label)
			i++
		}
	}
	return out
}

func (EventFamily) Options(tc *Context) []Option {
	p := tc.Session.Pending
	if p.Phase() == state.PhaseEventOutcomeShown {
		return listOptions(continueActions)
	}
	out := []Option{}
	for _, c := range p.Event.Snapshot.Choices {
		if c.Available {
			out = append(out, Option{ID: c.ID, Label: c.Label})
		}
	}
	return out
}

func (f EventFamily) Handle(tc *Context, token string) (string, error) {
	switch tc.Session.Phase() {
	case state.PhaseEventPending:
		return f.submit(tc, token)
	case state.PhaseEventOutcomeShown:
		if _, err := choose(token, continueActions); err != nil {
			return "", err
		}
		return f.dismiss(tc)
	default:
		return "", wrongPhase(tc.Session.Phase(), token)
	}
}

// submit resolves one choice. The id is checked against the choices the
// live event offers now, not the ones stored at presentation time.
func (EventFamily) submit(tc *Context, token string) (string, error) {
	if err := requireLive(tc); err != nil {
		return "", err
	}
	sess := tc.Session
	p := sess.Pending
	ev, _ := p.Event.Source.Get()

	index, label := -1, ""
	n := 0
	for i, c := range ev.Choices(sess) {
		if !c.Available {
			continue
		}
		if token == ChoiceID(n, c.Label) {
			index, label = i, c.Label
			break
		}
		n++
	}
	if index < 0 {
		return "", apperr.New(apperr.CodeUnresolvableChoice, "%q is not one of the current choices.", token).With("token", token)
	}

	outcome, err := ev.Resolve(index, tc.Rand)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, err, "The event could not be resolved.")
	}
	fx := outcome.Effects
	var chained world.Event
	if fx.Chain != "" {
		next, ok := tc.World.Event(fx.Chain)
		if !ok {
			return "", apperr.New(apperr.CodeInternal, "Follow-up event %q is missing.", fx.Chain)
		}
		chained = next
	}

	view := &activity.OutcomeView{
		Choice:    label,
		Text:      outcome.Text,
		Health:    fx.Health,
		Energy:    fx.Energy,
		Hunger:    fx.Hunger,
		Items:     fx.Items,
		Minutes:   fx.Minutes,
		Encounter: fx.Encounter,
	}
	p.LastChoiceID = token
	sess.AdvanceTime(fx.Minutes)
	for item, n := range fx.Items {
		sess.AddItem(item, n)
	}
	if fx.Encounter != "" {
		sess.QueuedEncounter = fx.Encounter
	}
	sess.Narrate("%s", outcome.Text)
	sess.AdjustBody(fx.Health, fx.Energy, fx.Hunger)
	if sess.Dead {
		return outcome.Text, nil
	}

	p.Event.Snapshot.Outcome = view
	if chained != nil {
		p.Event.Source = activity.Some(chained)
		p.Event.Snapshot.ChainedTitle = chained.Title()
	}
	p.Enter(state.PhaseEventOutcomeShown)
	return outcome.Text, nil
}

// dismiss closes the outcome: a chained event opens next, then a queued
// encounter, then a suspended move resumes; otherwise the session is idle.
func (EventFamily) dismiss(tc *Context) (string, error) {
	sess := tc.Session
	p := sess.Pending

	if p.Event.Snapshot.ChainedTitle != "" {
		next, ok := p.Event.Source.Get()
		if !ok {
			return "", missingLive(p.Phase())
		}
		return openEvent(tc, next), nil
	}
	if sess.QueuedEncounter != "" {
		species := sess.QueuedEncounter
		pred, ok := tc.World.Predator(species)
		if !ok {
			return "", apperr.New(apperr.CodeInternal, "Unknown predator %q.", species)
		}
		msg := ""
		if p.ResumeTravel != nil {
			msg = "You abandon the trip to " + p.ResumeTravel.ToName + ". "
			p.ResumeTravel = nil
		}
		return msg + startEncounter(tc, pred), nil
	}
	if p.ResumeTravel != nil {
		plan := *p.ResumeTravel
		p.ResumeTravel = nil
		msg, err := resumeTravel(tc, plan)
		if err != nil {
			p.ResumeTravel = &plan
		}
		return msg, err
	}
	sess.ClearPending()
	return "", nil
}
