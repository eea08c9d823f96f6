// Package session stitches users, campaigns, characters and message
// history into chat turns: it seeds fresh campaigns, runs the
// read-append-call-record cycle for every player message and keeps the
// campaign's activity timestamp current through the store.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/chat"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/registry"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"
)

// StarterMessage opens every fresh campaign on the player's behalf.
const StarterMessage = "Let's begin the adventure!"

// historyLimit is how many prior turns feed the prompt.
const historyLimit = 50

// TurnResult is the outcome of one chat turn. When the provider call
// failed, Failed is set and Content carries the persisted error summary.
type TurnResult struct {
	MessageID uint    `json:"message_id"`
	Content   string  `json:"content"`
	Model     string  `json:"model"`
	TokensIn  int     `json:"tokens_in"`
	TokensOut int     `json:"tokens_out"`
	Latency   float64 `json:"latency_seconds"`
	Cost      float64 `json:"cost_estimate"`
	Failed    bool    `json:"failed,omitempty"`
	ErrorCode string  `json:"error_code,omitempty"`
}

// Orchestrator drives the per-campaign conversation loop.
type Orchestrator struct {
	store  *store.Store
	router *chat.Router
	log    *logger.Logger
}

// New creates an orchestrator.
func New(st *store.Store, router *chat.Router, log *logger.Logger) *Orchestrator {
	return &Orchestrator{store: st, router: router, log: log}
}

// Start seeds a fresh campaign: a system message describing the GM's role,
// the starter user message, and the GM's opening reply, each persisted in
// order. The campaign must have no prior history.
func (o *Orchestrator) Start(ctx context.Context, userID, campaignID uint, characterID *uint) (*TurnResult, error) {
	campaign, err := o.store.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	existing, err := o.store.GetCampaignMessages(userID, &campaignID, 1)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperrors.NewInvalidInputError("campaign already has a conversation")
	}

	var character *models.Character
	if characterID != nil {
		if character, err = o.store.GetCharacter(userID, *characterID); err != nil {
			return nil, err
		}
	}

	systemPrompt := buildSystemPrompt(campaign, character)
	if id := o.store.StoreMessage(userID, models.RoleSystem, systemPrompt, &campaignID, nil); id == 0 {
		return nil, apperrors.NewStorageError("failed to seed system message")
	}
	if id := o.store.StoreMessage(userID, models.RoleUser, StarterMessage, &campaignID, characterID); id == 0 {
		return nil, apperrors.NewStorageError("failed to seed starter message")
	}

	history := []chat.Message{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: StarterMessage},
	}
	return o.completeTurn(ctx, userID, campaign, characterID, history)
}

// SendMessage runs one player turn: load the history window, persist the
// new user message, call the model and persist the reply.
func (o *Orchestrator) SendMessage(ctx context.Context, userID, campaignID uint, characterID *uint, content string) (*TurnResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewInvalidInputError("message content must not be empty")
	}

	campaign, err := o.store.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	prior, err := o.store.GetCampaignMessages(userID, &campaignID, historyLimit)
	if err != nil {
		return nil, err
	}

	if id := o.store.StoreMessage(userID, models.RoleUser, content, &campaignID, characterID); id == 0 {
		return nil, apperrors.NewStorageError("failed to store user message")
	}

	history := make([]chat.Message, 0, len(prior)+1)
	for _, m := range prior {
		history = append(history, chat.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, chat.Message{Role: models.RoleUser, Content: content})

	return o.completeTurn(ctx, userID, campaign, characterID, history)
}

// completeTurn calls the router and persists the outcome. Provider
// failures become a persisted assistant message carrying the error
// summary; only cancellation leaves no assistant turn behind.
func (o *Orchestrator) completeTurn(ctx context.Context, userID uint, campaign *models.Campaign, characterID *uint, history []chat.Message) (*TurnResult, error) {
	model := o.resolveModel(userID, campaign)

	start := time.Now()
	resp, err := o.router.Call(ctx, model, history, nil)
	latency := time.Since(start).Seconds()

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-call: nothing speculative is persisted.
			o.log.Warn("chat turn cancelled", "user_id", userID, "campaign_id", campaign.ID)
			return nil, apperrors.FromError(err)
		}

		code := apperrors.Code(err)
		summary := errorSummary(code)
		if code == apperrors.CodeQuotaExceeded {
			if alts := registry.AvailableAlternatives(model, o.router.Availability()); len(alts) > 0 {
				summary += " Models still available: " + strings.Join(alts, ", ") + "."
			}
		}
		id := o.store.StoreMessage(userID, models.RoleAssistant, summary, &campaign.ID, characterID)
		o.log.Error("chat turn failed", "user_id", userID, "campaign_id", campaign.ID, "model", model, "code", code)
		return &TurnResult{
			MessageID: id,
			Content:   summary,
			Model:     model,
			Latency:   latency,
			Failed:    true,
			ErrorCode: code,
		}, nil
	}

	id := o.store.StoreMessage(userID, models.RoleAssistant, resp.Content, &campaign.ID, characterID)
	cost := registry.EstimateCost(resp.Model, resp.TokensIn, resp.TokensOut)
	o.store.StorePerformance(userID, resp.Model, latency, resp.TokensIn, resp.TokensOut, &campaign.ID, cost)

	o.log.LogModelCall(resp.Model, time.Since(start), resp.TokensIn, resp.TokensOut)

	return &TurnResult{
		MessageID: id,
		Content:   resp.Content,
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
		Latency:   latency,
		Cost:      cost,
	}, nil
}

// resolveModel picks the model for a turn: the campaign's preference, then
// the user's saved choice, then the default.
func (o *Orchestrator) resolveModel(userID uint, campaign *models.Campaign) string {
	if campaign.AIModel != "" {
		return campaign.AIModel
	}
	if choice, err := o.store.GetModelChoice(userID); err == nil && choice != "" {
		return choice
	}
	return registry.DefaultModel
}

// buildSystemPrompt describes the GM's role, the campaign and, when known,
// the player's character.
func buildSystemPrompt(campaign *models.Campaign, character *models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the Game Master of %q, a tabletop role-playing campaign.", campaign.Name)
	if themes := campaign.ThemeList(); len(themes) > 0 {
		fmt.Fprintf(&b, " The campaign themes are %s.", strings.Join(themes, ", "))
	}
	if character != nil {
		fmt.Fprintf(&b, " The player is %s, a level %d %s %s.", character.Name, character.Level, character.Race, character.Class)
		if character.Description != "" {
			fmt.Fprintf(&b, " %s", character.Description)
		}
	}
	language := campaign.Language
	if language == "" {
		language = "en"
	}
	fmt.Fprintf(&b, " Narrate vividly, play all non-player characters, and always end your reply with a question or a choice for the player. Respond in the language %q.", language)
	return b.String()
}

// errorSummary is the player-facing text persisted when a turn fails.
func errorSummary(code string) string {
	switch code {
	case apperrors.CodeQuotaExceeded:
		return "The Game Master is unavailable: the configured provider has run out of quota. Please check your account billing or select another model."
	case apperrors.CodeRateLimited:
		return "The Game Master is catching their breath: too many requests at once. Please retry in a moment."
	case apperrors.CodeUnavailable:
		return "The Game Master is unavailable: no provider is configured for the selected model."
	default:
		return "The Game Master stumbled over an unexpected error. Please try again."
	}
}
