package bot

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/vovakirdan/miochat-server/internal/completion"
	"github.com/vovakirdan/miochat-server/internal/metrics"
)

// Reply is the outcome of one persona request. Exactly one of Text or Err is set.
type Reply struct {
	Persona Persona
	Text    string
	Err     error
}

// Dispatcher runs completion requests for persona mentions.
type Dispatcher struct {
	personas  []Persona
	completer completion.Completer
	log       *zerolog.Logger
	metrics   *metrics.Metrics
	tasks     conc.WaitGroup
}

// NewDispatcher builds a dispatcher. A nil completer leaves mentions inert.
func NewDispatcher(completer completion.Completer, personas []Persona, logger *zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	if personas == nil {
		personas = DefaultPersonas()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		personas:  personas,
		completer: completer,
		log:       logger,
		metrics:   m,
	}
}

// Enabled reports whether a completion service is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.completer != nil
}

// Match returns the persona to answer text, if any. It never matches while disabled.
func (d *Dispatcher) Match(text string) (Persona, bool) {
	if !d.Enabled() {
		return Persona{}, false
	}
	return FirstMention(d.personas, text)
}

// Dispatch asks the completion service to answer text as p in the background.
// done is called exactly once, from the background goroutine, whether the
// request succeeds, fails or panics.
func (d *Dispatcher) Dispatch(ctx context.Context, p Persona, text string, done func(Reply)) {
	prompt := Prompt(p, text)
	d.tasks.Go(func() {
		reply := Reply{Persona: p}

		var pc panics.Catcher
		pc.Try(func() {
			reply.Text, reply.Err = d.completer.Complete(ctx, prompt)
		})
		if rec := pc.Recovered(); rec != nil {
			reply.Text, reply.Err = "", rec.AsError()
		}
		if reply.Err == nil && reply.Text == "" {
			reply.Err = completion.ErrEmptyReply
		}

		if reply.Err != nil {
			reply.Text = ""
			d.metrics.BotRequest(p.Handle, metrics.OutcomeFailed)
			d.log.Warn().Err(reply.Err).Str("persona", p.Name).Msg("bot completion failed")
		} else {
			d.metrics.BotRequest(p.Handle, metrics.OutcomeOK)
			d.log.Debug().Str("persona", p.Name).Int("reply_len", len(reply.Text)).Msg("bot completion done")
		}

		done(reply)
	})
}

// Wait blocks until every dispatched request has called its done callback.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}
