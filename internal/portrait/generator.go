// Package portrait generates GM and character portraits through a fixed
// image-model cascade and promotes successful outputs into the local
// content store. Its contract is best-effort: provider failures degrade to
// a placeholder avatar or to no portrait at all, never to an error, except
// for an empty name.
package portrait

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/providers"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/config"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
)

// placeholderBase is the deterministic avatar service; the seed is the
// entity name, so the same name always yields the same image.
const placeholderBase = "https://api.dicebear.com/7.x/adventurer/png"

// generateTimeout bounds one image-generation round trip.
const generateTimeout = 30 * time.Second

// Options configures the cascade and the content store.
type Options struct {
	PrimaryModel     string
	FallbackModel    string
	Fallback         bool
	StrictLastResort bool
	BlobHostPattern  string
	ContentRoot      string
	DownloadTimeout  time.Duration
}

// OptionsFromConfig reads the portrait settings from the application
// configuration.
func OptionsFromConfig() Options {
	cfg := config.Get()
	return Options{
		PrimaryModel:     cfg.Portrait.PrimaryModel,
		FallbackModel:    cfg.Portrait.FallbackModel,
		Fallback:         cfg.Portrait.Fallback,
		StrictLastResort: cfg.Portrait.StrictLastResort,
		BlobHostPattern:  cfg.Portrait.BlobHostPattern,
		ContentRoot:      cfg.Portrait.ContentRoot,
		DownloadTimeout:  cfg.Portrait.DownloadTimeout,
	}
}

// EntityStore updates the portrait reference on the owning entity.
type EntityStore interface {
	UpdateCharacterPortrait(id uint, url string) (bool, error)
	UpdateCampaignPortrait(id uint, url string) (bool, error)
}

// Generator runs the image-model cascade and owns the content store. It is
// the only component that writes under the content root.
type Generator struct {
	clients    *providers.Factory
	store      EntityStore
	opts       Options
	blobHost   *regexp.Regexp
	downloader *http.Client
	log        *logger.Logger
}

// NewGenerator creates a generator. The blob host pattern must be a valid
// regular expression; it identifies which provider URLs get promoted into
// the content store.
func NewGenerator(clients *providers.Factory, store EntityStore, opts Options, log *logger.Logger) (*Generator, error) {
	blobHost, err := regexp.Compile(opts.BlobHostPattern)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid blob host pattern %q: %v", opts.BlobHostPattern, err))
	}
	timeout := opts.DownloadTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		clients:    clients,
		store:      store,
		opts:       opts,
		blobHost:   blobHost,
		downloader: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// PlaceholderURL returns the deterministic avatar URL for a name.
func PlaceholderURL(name string) string {
	return placeholderBase + "?seed=" + url.QueryEscape(name)
}

// buildPrompt assembles the stylized portrait prompt shared by characters
// and GMs.
func buildPrompt(kind, name, description string) string {
	return fmt.Sprintf(
		"Fantasy portrait of %s named %s, %s, digital art style, high quality, dramatic lighting, blurred background, concept art",
		kind, name, description,
	)
}

// characterDescription prefers the player's own description and falls back
// to one built from the sheet.
func characterDescription(ch *models.Character) string {
	if desc := strings.TrimSpace(ch.Description); desc != "" {
		return desc
	}
	var parts []string
	if ch.Gender != "" {
		parts = append(parts, strings.ToLower(ch.Gender))
	}
	if ch.Race != "" {
		parts = append(parts, strings.ToLower(ch.Race))
	}
	if ch.Class != "" {
		parts = append(parts, strings.ToLower(ch.Class))
	}
	if len(parts) == 0 {
		return "a brave adventurer"
	}
	return "a " + strings.Join(parts, " ")
}

// gmDescription builds the GM's look from the campaign metadata.
func gmDescription(c *models.Campaign) string {
	themes := c.ThemeList()
	theme := "fantasy"
	if len(themes) > 0 {
		theme = themes[0]
	}
	desc := "a wise storyteller presiding over a " + theme + " campaign"
	if len(themes) > 1 {
		desc += " with elements of " + strings.Join(themes[1:], " and ")
	}
	desc += ", mysterious and welcoming expression"
	if c.Language != "" && c.Language != "en" {
		desc += ", " + c.Language + " cultural influences"
	}
	return desc
}

// Generate runs the cascade for one entity and returns the resulting URL
// together with the model tag that produced it. The tag is empty for the
// placeholder avatar. An empty result with a nil error means no portrait.
func (g *Generator) Generate(ctx context.Context, kind, name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperrors.NewInvalidInputError("portrait name must not be empty")
	}

	prompt := buildPrompt(kind, name, description)

	client := g.clients.OpenAI()
	if client == nil {
		keys := g.clients.ValidateKeys()
		if !keys["openai"] && !keys["anthropic"] && !keys["deepseek"] {
			// No credentials at all.
			if g.opts.Fallback {
				recordPortrait(kind, "placeholder")
				return PlaceholderURL(name), "", nil
			}
			recordPortrait(kind, "none")
			return "", "", nil
		}
		// Some providers are configured but the image one is not.
		g.log.Warn("image provider credential missing", "kind", kind)
		if g.opts.StrictLastResort {
			recordPortrait(kind, "placeholder")
			return PlaceholderURL(name), "", nil
		}
		recordPortrait(kind, "none")
		return "", "", nil
	}

	if !g.clients.PrimaryImageDisabled() {
		imageURL, err := g.createImage(ctx, client, g.opts.PrimaryModel, prompt, true)
		if err == nil {
			recordPortrait(kind, g.opts.PrimaryModel)
			return imageURL, g.opts.PrimaryModel, nil
		}
		classified := apperrors.ClassifyProvider(err)
		if classified.Code == apperrors.CodeQuotaExceeded {
			g.clients.DisablePrimaryImage()
			g.log.Warn("quota exhausted on primary image model, disabled for this process",
				"model", g.opts.PrimaryModel,
			)
		} else {
			g.log.Warn("primary image model failed",
				"model", g.opts.PrimaryModel,
				"code", classified.Code,
			)
		}
	}

	imageURL, err := g.createImage(ctx, client, g.opts.FallbackModel, prompt, false)
	if err == nil {
		recordPortrait(kind, g.opts.FallbackModel)
		return imageURL, g.opts.FallbackModel, nil
	}
	g.log.Warn("fallback image model failed",
		"model", g.opts.FallbackModel,
		"code", apperrors.ClassifyProvider(err).Code,
	)

	recordPortrait(kind, "placeholder")
	return PlaceholderURL(name), "", nil
}

// createImage issues one image-generation call. Only the primary model
// carries a quality parameter.
func (g *Generator) createImage(ctx context.Context, client *openai.Client, model, prompt string, withQuality bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	req := openai.ImageRequest{
		Prompt: prompt,
		Model:  model,
		Size:   openai.CreateImageSize1024x1024,
		N:      1,
	}
	if withQuality {
		req.Quality = openai.CreateImageQualityStandard
	}

	resp, err := client.CreateImage(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", apperrors.NewProviderError("image provider returned no data")
	}
	return resp.Data[0].URL, nil
}

// GenerateAndSaveCharacterPortrait generates a portrait for the character,
// promotes provider-hosted URLs into the content store and updates the
// character's portrait reference. Returns the final reference, or an empty
// string when no portrait could be produced.
func (g *Generator) GenerateAndSaveCharacterPortrait(ctx context.Context, ch *models.Character) (string, error) {
	ref, modelTag, err := g.Generate(ctx, "character", ch.Name, characterDescription(ch))
	if err != nil || ref == "" {
		return "", err
	}
	if modelTag != "" {
		ref = g.promote(ctx, ref, KindCharacter, ch.ID)
	}
	g.saveReference(KindCharacter, ch.ID, ref)
	return ref, nil
}

// GenerateAndSaveGMPortrait is the campaign-side counterpart of
// GenerateAndSaveCharacterPortrait.
func (g *Generator) GenerateAndSaveGMPortrait(ctx context.Context, c *models.Campaign) (string, error) {
	ref, modelTag, err := g.Generate(ctx, "game master", c.Name, gmDescription(c))
	if err != nil || ref == "" {
		return "", err
	}
	if modelTag != "" {
		ref = g.promote(ctx, ref, KindGM, c.ID)
	}
	g.saveReference(KindGM, c.ID, ref)
	return ref, nil
}

// saveReference writes the portrait reference back to the owning entity.
// Failures are logged and swallowed; the portrait itself was produced.
func (g *Generator) saveReference(kind Kind, id uint, ref string) {
	if g.store == nil {
		return
	}
	var (
		ok  bool
		err error
	)
	switch kind {
	case KindGM:
		ok, err = g.store.UpdateCampaignPortrait(id, ref)
	default:
		ok, err = g.store.UpdateCharacterPortrait(id, ref)
	}
	if err != nil {
		g.log.Error("failed to save portrait reference", "kind", string(kind), "id", id, "error", err)
	} else if !ok {
		g.log.Warn("portrait owner not found", "kind", string(kind), "id", id)
	}
}
