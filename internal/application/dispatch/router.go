package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-verify-bot/internal/metrics"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
)

// Dispatch outcomes, used as the metrics "outcome" label.
const (
	OutcomeIgnored     = "ignored"
	OutcomeRoutingMiss = "routing_miss"
	OutcomeRateLimited = "rate_limited"
	OutcomeAckFailed   = "ack_failed"
	OutcomeDenied      = "guard_denied"
	OutcomeFault       = "handler_fault"
	OutcomeCompleted   = "completed"
)

// MsgHandlerError is the opaque reply sent when a handler fails. The argument is the event id.
const MsgHandlerError = "Something went wrong while running this. Please try again later.\nError code: `%s`"

// Options configures a Router.
type Options struct {
	// SelfID returns the bot's own user id; events it authored are dropped.
	SelfID         func() string
	CommandLimiter *RateLimiter
	TriggerLimiter *RateLimiter
	Permissions    PermissionResolver
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// Router matches inbound events to registered handlers. Registration must finish
// before the first Dispatch; after that the Router is safe for concurrent use.
type Router struct {
	commands        []Command
	buttons         map[string]Button
	triggers        []Trigger
	messageHandlers []MessageHandler
	joinHandlers    []JoinHandler

	selfID      func() string
	cmdLimiter  *RateLimiter
	trigLimiter *RateLimiter
	guard       *Guard
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewRouter(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	selfID := opts.SelfID
	if selfID == nil {
		selfID = func() string { return "" }
	}
	return &Router{
		buttons:     make(map[string]Button),
		selfID:      selfID,
		cmdLimiter:  opts.CommandLimiter,
		trigLimiter: opts.TriggerLimiter,
		guard:       NewGuard(opts.Permissions),
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

func (r *Router) RegisterCommands(cmds ...Command) { r.commands = append(r.commands, cmds...) }

func (r *Router) RegisterButtons(btns ...Button) {
	for _, b := range btns {
		for _, id := range b.Meta().IDs {
			r.buttons[id] = b
		}
	}
}

func (r *Router) RegisterTriggers(ts ...Trigger) { r.triggers = append(r.triggers, ts...) }

func (r *Router) RegisterMessageHandlers(hs ...MessageHandler) {
	r.messageHandlers = append(r.messageHandlers, hs...)
}

func (r *Router) RegisterJoinHandlers(hs ...JoinHandler) { r.joinHandlers = append(r.joinHandlers, hs...) }

// Dispatch routes ev to its handler. All failures are contained and logged.
func (r *Router) Dispatch(ctx context.Context, ev platform.Event) {
	var outcome string
	switch e := ev.(type) {
	case *platform.CommandEvent:
		outcome = r.handleCommand(ctx, e)
	case *platform.AutocompleteEvent:
		outcome = r.handleAutocomplete(ctx, e)
	case *platform.ButtonEvent:
		outcome = r.handleButton(ctx, e)
	case *platform.MessageEvent:
		outcome = r.handleMessage(ctx, e)
	case *platform.MemberJoinEvent:
		outcome = r.handleJoin(ctx, e)
	default:
		r.logger.Warn("unhandled event type", zap.String("type", fmt.Sprintf("%T", ev)))
		return
	}
	r.metrics.ObserveEvent(platform.Kind(ev), outcome)
}

func (r *Router) fromSelfOrBot(u platform.User) bool {
	return u.Bot || (u.ID != "" && u.ID == r.selfID())
}

func commandPath(name, group, sub string) string {
	parts := []string{name}
	if group != "" {
		parts = append(parts, group)
	}
	if sub != "" {
		parts = append(parts, sub)
	}
	return strings.Join(parts, " ")
}

// findCommand returns the command whose declared name is the longest whole-word
// prefix of path. An exact match is always the longest.
func (r *Router) findCommand(path string) Command {
	var best Command
	bestLen := -1
	for _, c := range r.commands {
		for _, n := range c.Meta().Names {
			if n != path && !strings.HasPrefix(path, n+" ") {
				continue
			}
			if len(n) > bestLen {
				best, bestLen = c, len(n)
			}
		}
	}
	return best
}

func (r *Router) handleCommand(ctx context.Context, ev *platform.CommandEvent) string {
	if r.fromSelfOrBot(ev.User) {
		return OutcomeIgnored
	}
	path := commandPath(ev.Name, ev.SubcommandGroup, ev.Subcommand)
	cmd := r.findCommand(path)
	if cmd == nil {
		r.logger.Info("command not found", zap.String("interaction_id", ev.ID), zap.String("command", path))
		return OutcomeRoutingMiss
	}
	if r.cmdLimiter != nil && r.cmdLimiter.Take(ev.User.ID) {
		return OutcomeRateLimited
	}

	meta := cmd.Meta()
	if res := r.guard.Check(ctx, meta.Requirements, &ev.Interaction, nil); !res.Passed {
		r.sendDenial(ctx, &ev.Interaction, res.Reason)
		return OutcomeDenied
	}
	if !r.acknowledge(ctx, &ev.Interaction, meta.Defer, path) {
		return OutcomeAckFailed
	}

	data := newEventData(&ev.Interaction)
	start := time.Now()
	err := safeCall(func() error { return cmd.Execute(ctx, ev, data) })
	r.metrics.ObserveHandler("command", time.Since(start))
	if err != nil {
		r.sendError(ctx, &ev.Interaction)
		r.logger.Error("command handler failed",
			zap.Error(err),
			zap.String("interaction_id", ev.ID),
			zap.String("command", path),
			zap.String("user_id", ev.User.ID),
			zap.String("channel_id", ev.ChannelID),
			zap.String("guild_id", ev.GuildID),
		)
		return OutcomeFault
	}
	return OutcomeCompleted
}

func (r *Router) handleAutocomplete(ctx context.Context, ev *platform.AutocompleteEvent) string {
	if r.fromSelfOrBot(ev.User) {
		return OutcomeIgnored
	}
	path := commandPath(ev.Name, ev.SubcommandGroup, ev.Subcommand)
	cmd := r.findCommand(path)
	if cmd == nil {
		r.logger.Info("autocomplete command not found", zap.String("interaction_id", ev.ID), zap.String("command", path))
		return OutcomeRoutingMiss
	}
	ac, ok := cmd.(Autocompleter)
	if !ok {
		r.logger.Error("command has no autocomplete", zap.String("interaction_id", ev.ID), zap.String("command", path))
		return OutcomeRoutingMiss
	}

	var choices []platform.Choice
	err := safeCall(func() error {
		var err error
		choices, err = ac.Autocomplete(ctx, ev, ev.Focused)
		return err
	})
	if err != nil {
		r.logger.Error("autocomplete failed",
			zap.Error(err),
			zap.String("interaction_id", ev.ID),
			zap.String("command", path),
			zap.String("option", ev.Focused.Name),
			zap.String("user_id", ev.User.ID),
			zap.String("channel_id", ev.ChannelID),
			zap.String("guild_id", ev.GuildID),
		)
		return OutcomeFault
	}
	if len(choices) > platform.MaxChoicesPerAutocomplete {
		choices = choices[:platform.MaxChoicesPerAutocomplete]
	}
	if err := platform.Swallow(ev.Responder.Respond(ctx, choices)); err != nil {
		r.logger.Error("autocomplete respond failed", zap.Error(err), zap.String("interaction_id", ev.ID))
		return OutcomeFault
	}
	return OutcomeCompleted
}

func (r *Router) handleButton(ctx context.Context, ev *platform.ButtonEvent) string {
	if r.fromSelfOrBot(ev.User) {
		return OutcomeIgnored
	}
	btn, ok := r.buttons[ev.CustomID]
	if !ok {
		r.logger.Info("button not found", zap.String("interaction_id", ev.ID), zap.String("custom_id", ev.CustomID))
		return OutcomeRoutingMiss
	}

	meta := btn.Meta()
	if res := r.guard.Check(ctx, meta.Requirements, &ev.Interaction, ev.Message); !res.Passed {
		r.sendDenial(ctx, &ev.Interaction, res.Reason)
		return OutcomeDenied
	}
	if !r.acknowledge(ctx, &ev.Interaction, meta.Defer, ev.CustomID) {
		return OutcomeAckFailed
	}

	data := newEventData(&ev.Interaction)
	start := time.Now()
	err := safeCall(func() error { return btn.Execute(ctx, ev, data) })
	r.metrics.ObserveHandler("button", time.Since(start))
	if err != nil {
		r.sendError(ctx, &ev.Interaction)
		r.logger.Error("button handler failed",
			zap.Error(err),
			zap.String("interaction_id", ev.ID),
			zap.String("custom_id", ev.CustomID),
			zap.String("user_id", ev.User.ID),
			zap.String("channel_id", ev.ChannelID),
			zap.String("guild_id", ev.GuildID),
		)
		return OutcomeFault
	}
	return OutcomeCompleted
}

func (r *Router) handleMessage(ctx context.Context, ev *platform.MessageEvent) string {
	if r.fromSelfOrBot(ev.Author) {
		return OutcomeIgnored
	}
	outcome := OutcomeCompleted
	for _, h := range r.messageHandlers {
		if err := safeCall(func() error { return h.HandleMessage(ctx, ev) }); err != nil {
			r.logger.Error("message handler failed",
				zap.Error(err),
				zap.String("message_id", ev.ID),
				zap.String("user_id", ev.Author.ID),
				zap.String("channel_id", ev.ChannelID),
				zap.String("guild_id", ev.GuildID),
			)
			outcome = OutcomeFault
		}
	}
	if len(r.triggers) == 0 {
		return outcome
	}
	if r.trigLimiter != nil && r.trigLimiter.Take(ev.Author.ID) {
		return OutcomeRateLimited
	}

	var fired []Trigger
	for _, t := range r.triggers {
		if t.RequireGuild() && ev.IsDirect() {
			continue
		}
		if t.Triggered(ev) {
			fired = append(fired, t)
		}
	}
	if len(fired) == 0 {
		return outcome
	}

	data := messageEventData(ev)
	for _, t := range fired {
		start := time.Now()
		err := safeCall(func() error { return t.Execute(ctx, ev, data) })
		r.metrics.ObserveHandler("trigger", time.Since(start))
		if err != nil {
			r.logger.Error("trigger failed",
				zap.Error(err),
				zap.String("message_id", ev.ID),
				zap.String("user_id", ev.Author.ID),
				zap.String("channel_id", ev.ChannelID),
				zap.String("guild_id", ev.GuildID),
			)
			outcome = OutcomeFault
		}
	}
	return outcome
}

func (r *Router) handleJoin(ctx context.Context, ev *platform.MemberJoinEvent) string {
	if r.fromSelfOrBot(ev.User) {
		return OutcomeIgnored
	}
	outcome := OutcomeCompleted
	for _, h := range r.joinHandlers {
		if err := safeCall(func() error { return h.HandleJoin(ctx, ev) }); err != nil {
			r.logger.Warn("member join handler failed",
				zap.Error(err),
				zap.String("user_id", ev.User.ID),
				zap.String("guild_id", ev.GuildID),
			)
			outcome = OutcomeFault
		}
	}
	return outcome
}

// acknowledge applies the declared defer mode. It returns false when the handler must not run.
func (r *Router) acknowledge(ctx context.Context, in *platform.Interaction, mode DeferMode, name string) bool {
	var err error
	switch mode {
	case DeferNone:
		return true
	case DeferPublic:
		err = in.Responder.Defer(ctx, false)
	case DeferHidden:
		err = in.Responder.Defer(ctx, true)
	case DeferUpdate:
		err = in.Responder.DeferUpdate(ctx)
	}
	if err != nil && !platform.IsIgnorable(err) {
		r.logger.Error("acknowledge failed",
			zap.Error(err),
			zap.String("interaction_id", in.ID),
			zap.String("handler", name),
			zap.Stringer("defer", mode),
		)
		return false
	}
	if !in.Responder.Deferred() {
		r.logger.Error("acknowledge not applied",
			zap.String("interaction_id", in.ID),
			zap.String("handler", name),
			zap.Stringer("defer", mode),
		)
		return false
	}
	return true
}

func (r *Router) sendDenial(ctx context.Context, in *platform.Interaction, reason string) {
	if err := platform.Swallow(in.Responder.Send(ctx, platform.Text(reason), true)); err != nil {
		r.logger.Warn("send denial failed", zap.Error(err), zap.String("interaction_id", in.ID))
	}
}

func (r *Router) sendError(ctx context.Context, in *platform.Interaction) {
	msg := platform.Text(fmt.Sprintf(MsgHandlerError, in.ID))
	if err := platform.Swallow(in.Responder.Send(ctx, msg, true)); err != nil {
		r.logger.Warn("send error reply failed", zap.Error(err), zap.String("interaction_id", in.ID))
	}
}

// safeCall runs fn and turns a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return fn()
}
