package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/go-verify-bot/internal/platform"
)

// interactionAPI is the part of *discordgo.Session a responder needs.
type interactionAPI interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// responder answers one interaction, choosing between initial response,
// follow-up and edit based on what has been sent so far.
type responder struct {
	api         interactionAPI
	interaction *discordgo.Interaction

	mu       sync.Mutex
	deferred bool
	replied  bool
}

func newResponder(api interactionAPI, i *discordgo.Interaction) *responder {
	return &responder{api: api, interaction: i}
}

func (r *responder) acknowledged() bool { return r.deferred || r.replied }

func (r *responder) Defer(ctx context.Context, hidden bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.acknowledged() {
		return nil
	}
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if hidden {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := r.api.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err)
	}
	r.deferred = true
	return nil
}

func (r *responder) DeferUpdate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.acknowledged() {
		return nil
	}
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	if err := r.api.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err)
	}
	r.deferred = true
	return nil
}

func (r *responder) Deferred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deferred
}

func (r *responder) Replied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replied
}

func (r *responder) Send(ctx context.Context, msg platform.MessageSend, hidden bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.acknowledged() {
		_, err = r.api.FollowupMessageCreate(r.interaction, true, toWebhookParams(msg, hidden), discordgo.WithContext(ctx))
	} else {
		err = r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: toResponseData(msg, hidden),
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		return wrapErr(err)
	}
	r.replied = true
	return nil
}

func (r *responder) EditReply(ctx context.Context, msg platform.MessageSend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.acknowledged() {
		_, err = r.api.InteractionResponseEdit(r.interaction, toWebhookEdit(msg), discordgo.WithContext(ctx))
	} else {
		err = r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: toResponseData(msg, false),
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		return wrapErr(err)
	}
	r.replied = true
	return nil
}

func (r *responder) Update(ctx context.Context, msg platform.MessageSend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.acknowledged() {
		_, err = r.api.InteractionResponseEdit(r.interaction, toWebhookEdit(msg), discordgo.WithContext(ctx))
	} else {
		err = r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: toResponseData(msg, false),
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		return wrapErr(err)
	}
	r.replied = true
	return nil
}

func (r *responder) Respond(ctx context.Context, choices []platform.Choice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: toChoices(choices)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return wrapErr(err)
	}
	r.replied = true
	return nil
}
