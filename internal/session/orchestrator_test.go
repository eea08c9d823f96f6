package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/chat"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/providers"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

// providerStub answers chat completions and records the wire models it saw.
type providerStub struct {
	calls      atomic.Int64
	lastModel  string
	failStatus int
	failBody   string
	reply      string
}

func newProviderStub(t *testing.T) (*providerStub, *httptest.Server) {
	stub := &providerStub{reply: "You stand at the gates of Eldreth."}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		stub.lastModel, _ = body["model"].(string)

		if stub.failStatus != 0 {
			w.WriteHeader(stub.failStatus)
			w.Write([]byte(stub.failBody))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": stub.reply}, "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 42, "completion_tokens": 17, "total_tokens": 59},
		})
	}))
	t.Cleanup(ts.Close)
	return stub, ts
}

type fixture struct {
	orch  *Orchestrator
	store *store.Store
	stub  *providerStub
	user  *models.User
}

func newFixture(t *testing.T) *fixture {
	stub, ts := newProviderStub(t)

	db, err := store.OpenInMemory(testLogger())
	require.NoError(t, err)
	st := store.New(db, nil, testLogger())

	factory := providers.NewFactory(providers.Credentials{
		OpenAIKey:     "sk-test",
		OpenAIBaseURL: ts.URL + "/v1",
	})
	router := chat.NewRouter(factory, testLogger())

	user, err := st.CreateUser(&models.CreateUserRequest{Email: "hero@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	return &fixture{
		orch:  New(st, router, testLogger()),
		store: st,
		stub:  stub,
		user:  user,
	}
}

func (f *fixture) campaign(t *testing.T, aiModel string) *models.Campaign {
	campaign, err := f.store.CreateCampaign(f.user.ID, &models.CreateCampaignRequest{
		Name:    "Shadows of Eldreth",
		Themes:  []string{"dark fantasy", "intrigue"},
		AIModel: aiModel,
	})
	require.NoError(t, err)
	return campaign
}

func TestStartSeedsThreeMessagesAndOnePerformanceRow(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "GPT-4o")
	character, err := f.store.CreateCharacter(f.user.ID, &models.CreateCharacterRequest{
		Name: "Hero", Class: "Ranger", Race: "Elf", CampaignID: &campaign.ID,
	})
	require.NoError(t, err)

	result, err := f.orch.Start(context.Background(), f.user.ID, campaign.ID, &character.ID)
	require.NoError(t, err)
	assert.Equal(t, "GPT-4o", result.Model)
	assert.Equal(t, 42, result.TokensIn)
	assert.False(t, result.Failed)

	messages, err := f.store.GetCampaignMessages(f.user.ID, &campaign.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, models.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Shadows of Eldreth")
	assert.Contains(t, messages[0].Content, "Hero")
	assert.Equal(t, models.RoleUser, messages[1].Role)
	assert.Equal(t, StarterMessage, messages[1].Content)
	assert.Equal(t, models.RoleAssistant, messages[2].Role)
	assert.Equal(t, f.stub.reply, messages[2].Content)

	stats, err := f.store.GetPerformanceStats(f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "GPT-4o", stats[0].Model)
	assert.Equal(t, int64(1), stats[0].Count)

	// The campaign's activity timestamp follows the last stored message.
	updated, err := f.store.GetCampaign(f.user.ID, campaign.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, messages[2].Timestamp, updated.UpdatedAt, time.Millisecond)
}

func TestStartRejectsSeededCampaign(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "GPT-4o")

	_, err := f.orch.Start(context.Background(), f.user.ID, campaign.ID, nil)
	require.NoError(t, err)

	_, err = f.orch.Start(context.Background(), f.user.ID, campaign.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeInvalidInput))
}

func TestUnknownCampaignModelFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "NoSuchModel")

	result, err := f.orch.Start(context.Background(), f.user.ID, campaign.ID, nil)
	require.NoError(t, err)

	// One provider call on the default model's wire name, recorded under
	// the resolved display name.
	assert.Equal(t, int64(1), f.stub.calls.Load())
	assert.Equal(t, "gpt-4", f.stub.lastModel)
	assert.Equal(t, "GPT-4", result.Model)

	stats, err := f.store.GetPerformanceStats(f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "GPT-4", stats[0].Model)
}

func TestModelSelectionPriority(t *testing.T) {
	f := newFixture(t)

	// Campaign preference wins.
	campaign := f.campaign(t, "Claude 3.5 Sonnet")
	assert.Equal(t, "Claude 3.5 Sonnet", f.orch.resolveModel(f.user.ID, campaign))

	// Without one, the user's saved choice applies.
	campaign.AIModel = ""
	require.NoError(t, f.store.SaveModelChoice(f.user.ID, "GPT-4o"))
	assert.Equal(t, "GPT-4o", f.orch.resolveModel(f.user.ID, campaign))

	// Without either, the default.
	other, err := f.store.CreateUser(&models.CreateUserRequest{Email: "other@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "GPT-4", f.orch.resolveModel(other.ID, campaign))
}

func TestSendMessageAppendsTurn(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "GPT-4o")

	_, err := f.orch.Start(context.Background(), f.user.ID, campaign.ID, nil)
	require.NoError(t, err)

	result, err := f.orch.SendMessage(context.Background(), f.user.ID, campaign.ID, nil, "I open the gate.")
	require.NoError(t, err)
	assert.Equal(t, f.stub.reply, result.Content)

	messages, err := f.store.GetCampaignMessages(f.user.ID, &campaign.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Equal(t, "I open the gate.", messages[3].Content)
	assert.Equal(t, models.RoleAssistant, messages[4].Role)
}

func TestFailedTurnPersistsErrorAsAssistantMessage(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "GPT-4o")
	f.stub.failStatus = http.StatusTooManyRequests
	f.stub.failBody = `{"error": {"message": "Error 429 insufficient_quota", "type": "insufficient_quota"}}`

	result, err := f.orch.Start(context.Background(), f.user.ID, campaign.ID, nil)
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Equal(t, apperrors.CodeQuotaExceeded, result.ErrorCode)
	assert.Contains(t, result.Content, "quota")

	messages, err := f.store.GetCampaignMessages(f.user.ID, &campaign.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, models.RoleAssistant, messages[2].Role)
	assert.Equal(t, result.Content, messages[2].Content)

	// Failed calls record no performance row.
	stats, err := f.store.GetPerformanceStats(f.user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestCancelledTurnPersistsNoAssistantMessage(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "GPT-4o")

	_, err := f.orch.Start(context.Background(), f.user.ID, campaign.ID, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.orch.SendMessage(ctx, f.user.ID, campaign.ID, nil, "I open the gate.")
	require.Error(t, err)

	messages, msgErr := f.store.GetCampaignMessages(f.user.ID, &campaign.ID, 0)
	require.NoError(t, msgErr)
	require.Len(t, messages, 4)
	// The user's turn is stored; no assistant turn follows it.
	assert.Equal(t, models.RoleUser, messages[3].Role)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	campaign := f.campaign(t, "GPT-4o")

	_, err := f.orch.SendMessage(context.Background(), f.user.ID, campaign.ID, nil, "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeInvalidInput))
	assert.Equal(t, int64(0), f.stub.calls.Load())
}
