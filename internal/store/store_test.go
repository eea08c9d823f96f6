package store

import (
	"testing"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/cache"
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

func newTestStore(t *testing.T) *Store {
	db, err := OpenInMemory(testLogger())
	require.NoError(t, err)
	return New(db, cache.New(5*time.Minute, 0, 100), testLogger())
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	user, err := s.CreateUser(&models.CreateUserRequest{Email: email, Password: "s3cret-pass"})
	require.NoError(t, err)
	return user
}

func seedCampaign(t *testing.T, s *Store, userID uint, name string) *models.Campaign {
	campaign, err := s.CreateCampaign(userID, &models.CreateCampaignRequest{
		Name:   name,
		Themes: []string{"dark fantasy", "intrigue"},
	})
	require.NoError(t, err)
	return campaign
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenInMemory(testLogger())
	require.NoError(t, err)
	require.NoError(t, Migrate(db, testLogger()))

	var applied int64
	require.NoError(t, db.Model(&schemaMigration{}).Count(&applied).Error)
	assert.Equal(t, int64(2), applied)
}

func TestCreateUserNormalizesAndRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser(&models.CreateUserRequest{Email: "  Hero@Example.COM ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "hero@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.Password)

	_, err = s.CreateUser(&models.CreateUserRequest{Email: "hero@example.com", Password: "other-pass"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "hero@example.com")

	user, err := s.Authenticate(&models.LoginRequest{Email: "HERO@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.False(t, user.LastLogin.IsZero())

	_, err = s.Authenticate(&models.LoginRequest{Email: "hero@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(&models.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestModelChoiceUpsert(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")

	choice, err := s.GetModelChoice(user.ID)
	require.NoError(t, err)
	assert.Empty(t, choice)

	require.NoError(t, s.SaveModelChoice(user.ID, "GPT-4o"))
	choice, err = s.GetModelChoice(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "GPT-4o", choice)

	// Overwrite, not a second row.
	require.NoError(t, s.SaveModelChoice(user.ID, "Claude 3.5 Sonnet"))
	choice, err = s.GetModelChoice(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Claude 3.5 Sonnet", choice)

	var rows int64
	require.NoError(t, s.db.Model(&models.ModelChoice{}).Where("user_id = ?", user.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestStoreMessageBumpsCampaignTimestamp(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	campaign := seedCampaign(t, s, user.ID, "Shadows of Eldreth")

	id := s.StoreMessage(user.ID, models.RoleUser, "I open the door.", &campaign.ID, nil)
	require.NotZero(t, id)

	var message models.Message
	require.NoError(t, s.db.First(&message, id).Error)

	updated, err := s.GetCampaign(user.ID, campaign.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, message.Timestamp, updated.UpdatedAt, time.Millisecond)
}

func TestStoreMessageInvalidRoleReturnsSentinel(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")

	assert.Zero(t, s.StoreMessage(user.ID, "narrator", "x", nil, nil))
	assert.Zero(t, s.StoreMessage(user.ID, models.RoleUser, "", nil, nil))
}

func TestGetCampaignMessagesAscendingWindow(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	campaign := seedCampaign(t, s, user.ID, "Shadows of Eldreth")

	for _, content := range []string{"one", "two", "three", "four"} {
		require.NotZero(t, s.StoreMessage(user.ID, models.RoleUser, content, &campaign.ID, nil))
	}

	messages, err := s.GetCampaignMessages(user.ID, &campaign.ID, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// Last three, oldest first.
	assert.Equal(t, "two", messages[0].Content)
	assert.Equal(t, "three", messages[1].Content)
	assert.Equal(t, "four", messages[2].Content)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp))
	}
}

func TestGetCampaignMessagesNilCampaignPicksMostRecent(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	older := seedCampaign(t, s, user.ID, "Older")
	newer := seedCampaign(t, s, user.ID, "Newer")

	require.NotZero(t, s.StoreMessage(user.ID, models.RoleUser, "stale", &older.ID, nil))
	require.NotZero(t, s.StoreMessage(user.ID, models.RoleUser, "fresh", &newer.ID, nil))

	messages, err := s.GetCampaignMessages(user.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "fresh", messages[0].Content)
}

func TestGetUserCampaignsSummaries(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	first := seedCampaign(t, s, user.ID, "First")
	second := seedCampaign(t, s, user.ID, "Second")

	require.NotZero(t, s.StoreMessage(user.ID, models.RoleUser, "a", &first.ID, nil))
	require.NotZero(t, s.StoreMessage(user.ID, models.RoleAssistant, "b", &first.ID, nil))

	summaries, err := s.GetUserCampaigns(user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Message activity bumped First ahead of Second.
	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, int64(2), summaries[0].MessageCount)
	require.NotNil(t, summaries[0].LastActivity)

	assert.Equal(t, second.ID, summaries[1].ID)
	assert.Equal(t, int64(0), summaries[1].MessageCount)
}

func TestCampaignListCacheInvalidatedOnWrite(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	campaign := seedCampaign(t, s, user.ID, "First")

	before, err := s.GetUserCampaigns(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), before[0].MessageCount)

	require.NotZero(t, s.StoreMessage(user.ID, models.RoleUser, "a", &campaign.ID, nil))

	after, err := s.GetUserCampaigns(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after[0].MessageCount)
}

func TestUpdateCampaignPortrait(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	campaign := seedCampaign(t, s, user.ID, "First")

	ok, err := s.UpdateCampaignPortrait(campaign.ID, "static/portraits/gm/gm_1.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateCampaignPortrait(99999, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateCharacterValidatesCampaignOwnership(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")
	campaign := seedCampaign(t, s, owner.ID, "Owned")

	ch, err := s.CreateCharacter(owner.ID, &models.CreateCharacterRequest{
		Name:       "Hero",
		Class:      "Ranger",
		CampaignID: &campaign.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Level)

	_, err = s.CreateCharacter(other.ID, &models.CreateCharacterRequest{
		Name:       "Impostor",
		CampaignID: &campaign.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))
}

func TestUpdateCharacterPortraitRefreshesList(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	ch, err := s.CreateCharacter(user.ID, &models.CreateCharacterRequest{Name: "Hero"})
	require.NoError(t, err)

	// Prime the cache.
	listed, err := s.GetUserCharacters(user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed[0].PortraitURL)

	ok, err := s.UpdateCharacterPortrait(ch.ID, "static/portraits/characters/character_1.png")
	require.NoError(t, err)
	assert.True(t, ok)

	listed, err = s.GetUserCharacters(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "static/portraits/characters/character_1.png", listed[0].PortraitURL)
}

func TestDeactivateCampaignNullsCharacterLinks(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	campaign := seedCampaign(t, s, user.ID, "First")
	ch, err := s.CreateCharacter(user.ID, &models.CreateCharacterRequest{Name: "Hero", CampaignID: &campaign.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeactivateCampaign(user.ID, campaign.ID))

	_, err = s.GetCampaign(user.ID, campaign.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))

	// Weak reference nulled, character survives.
	kept, err := s.GetCharacter(user.ID, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.CampaignID)
}

func TestPerformanceStatsAggregation(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")

	require.NotZero(t, s.StorePerformance(user.ID, "GPT-4", 1.0, 10, 5, nil, 0.02))
	require.NotZero(t, s.StorePerformance(user.ID, "GPT-4", 2.0, 20, 10, nil, 0.03))
	require.NotZero(t, s.StorePerformance(user.ID, "GPT-4o", 3.0, 30, 15, nil, 0.04))

	stats, err := s.GetPerformanceStats(user.ID, 0)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byModel := make(map[string]ModelStats, len(stats))
	for _, st := range stats {
		byModel[st.Model] = st
	}

	gpt4 := byModel["GPT-4"]
	assert.Equal(t, int64(2), gpt4.Count)
	assert.InDelta(t, 1.5, gpt4.AvgLatency, 1e-9)
	assert.Equal(t, int64(30), gpt4.TotalTokensIn)
	assert.Equal(t, int64(15), gpt4.TotalTokensOut)
	assert.InDelta(t, 0.05, gpt4.TotalCost, 1e-9)

	assert.Equal(t, int64(1), byModel["GPT-4o"].Count)
}

func TestStorePerformanceInvalidRecordReturnsSentinel(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")

	assert.Zero(t, s.StorePerformance(user.ID, "", 1.0, 1, 1, nil, 0))
	assert.Zero(t, s.StorePerformance(user.ID, "GPT-4", -1.0, 1, 1, nil, 0))
}

func TestMessageLogIsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	user := seedUser(t, s, "hero@example.com")
	campaign := seedCampaign(t, s, user.ID, "First")

	require.NotZero(t, s.StoreMessage(user.ID, models.RoleUser, "one", &campaign.ID, nil))
	before, err := s.CountCampaignMessages(campaign.ID)
	require.NoError(t, err)

	// Failed writes and soft deletes never shrink the log.
	s.StoreMessage(user.ID, "bogus", "x", &campaign.ID, nil)
	require.NoError(t, s.DeactivateCampaign(user.ID, campaign.ID))

	after, err := s.CountCampaignMessages(campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
