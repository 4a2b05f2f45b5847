package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/retry"
	"github.com/brandwell/contentforge/internal/services/generation"
	"github.com/brandwell/contentforge/internal/services/progress"
	"github.com/brandwell/contentforge/internal/services/recovery"
)

// stubTextService routes calls through a configurable hook
type stubTextService struct {
	mu       sync.Mutex
	generate func(req *interfaces.TextRequest) (string, error)
	calls    []*interfaces.TextRequest
}

func (s *stubTextService) GenerateText(ctx context.Context, req *interfaces.TextRequest) (string, error) {
	s.mu.Lock()
	reqCopy := *req
	s.calls = append(s.calls, &reqCopy)
	hook := s.generate
	s.mu.Unlock()

	if hook != nil {
		return hook(req)
	}
	return "generated text", nil
}

func (s *stubTextService) GenerateStructuredText(ctx context.Context, req *interfaces.StructuredTextRequest) (string, error) {
	return `{"topics": ["A", "B", "C"]}`, nil
}

// stubImageService succeeds unless told otherwise
type stubImageService struct {
	mu       sync.Mutex
	slideErr error
	count    int
}

func (s *stubImageService) next(prefix string) *interfaces.ImageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return &interfaces.ImageResult{URL: fmt.Sprintf("/images/%s_%d.png", prefix, s.count)}
}

func (s *stubImageService) GenerateImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageResult, error) {
	return s.next("img"), nil
}

func (s *stubImageService) GenerateTemplateImage(ctx context.Context, req *interfaces.TemplateImageRequest) (*interfaces.ImageResult, error) {
	return s.next("template"), nil
}

func (s *stubImageService) GenerateCarouselSlide(ctx context.Context, req *interfaces.CarouselSlideRequest) (*interfaces.ImageResult, error) {
	if s.slideErr != nil {
		return nil, s.slideErr
	}
	return s.next("slide"), nil
}

// memoryStore implements the three repositories in memory
type memoryStore struct {
	mu           sync.Mutex
	assets       map[string]models.MediaAsset
	templates    map[string]models.Template
	publications []models.Publication
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assets:    make(map[string]models.MediaAsset),
		templates: make(map[string]models.Template),
	}
}

func (m *memoryStore) GetAsset(ctx context.Context, assetID string) (*models.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("asset not found: %s", assetID)
	}
	return &asset, nil
}

func (m *memoryStore) GetAssets(ctx context.Context, assetIDs []string) ([]models.MediaAsset, error) {
	assets := make([]models.MediaAsset, 0, len(assetIDs))
	for _, id := range assetIDs {
		asset, err := m.GetAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func (m *memoryStore) SaveAsset(ctx context.Context, asset *models.MediaAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[asset.ID] = *asset
	return nil
}

func (m *memoryStore) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	template, ok := m.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}
	return &template, nil
}

func (m *memoryStore) SaveTemplate(ctx context.Context, template *models.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[template.ID] = *template
	return nil
}

func (m *memoryStore) SavePublication(ctx context.Context, publication *models.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publications = append(m.publications, *publication)
	return nil
}

func (m *memoryStore) publicationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.publications)
}

type testHarness struct {
	orchestrator *Orchestrator
	text         *stubTextService
	images       *stubImageService
	store        *memoryStore
	tracker      *progress.Tracker
}

func newHarness(fallbackProvider string) *testHarness {
	logger := arbor.NewLogger()
	text := &stubTextService{}
	images := &stubImageService{}
	store := newMemoryStore()
	tracker := progress.NewTracker(logger)

	config := &common.GenerationConfig{
		MaxAttempts:       2,
		BaseDelay:         "1ms",
		MaxDelay:          "5ms",
		BackoffMultiplier: 2.0,
		StepTimeout:       "5s",
		ExtendedTimeout:   "10s",
		MaxCarouselSlides: 5,
	}

	orch := New(
		generation.NewFactory(text, images, nil, logger),
		tracker,
		recovery.NewSelector(fallbackProvider != "", logger),
		store,
		store,
		store,
		config,
		"standard",
		fallbackProvider,
		logger,
	)

	return &testHarness{orchestrator: orch, text: text, images: images, store: store, tracker: tracker}
}

func textItems(campaignID string, count int) []models.ContentPlanItem {
	items := make([]models.ContentPlanItem, count)
	for i := range items {
		items[i] = models.ContentPlanItem{
			ID:          fmt.Sprintf("item-%d", i+1),
			CampaignID:  campaignID,
			Platform:    models.PlatformInstagram,
			ContentType: models.ContentTypeTextOnly,
			Brief:       fmt.Sprintf("Post number %d", i+1),
		}
	}
	return items
}

func TestRunCampaign_AllItemsSucceed(t *testing.T) {
	h := newHarness("")

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 3), models.BrandGuideline{Voice: "friendly"})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, progress.Status)
	assert.Equal(t, 3, progress.CompletedItems)
	assert.Empty(t, progress.Errors)
	assert.Equal(t, 3, h.store.publicationCount())
}

func TestRunCampaign_IsolatesFailingItem(t *testing.T) {
	h := newHarness("")
	h.text.generate = func(req *interfaces.TextRequest) (string, error) {
		if strings.Contains(req.Brief, "number 2") {
			return "", retry.NewProviderError(401, "invalid api key", nil)
		}
		return "generated text", nil
	}

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 3), models.BrandGuideline{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompletedWithErrors, progress.Status)
	assert.Equal(t, 2, progress.CompletedItems)
	require.Len(t, progress.Errors, 1)
	assert.Equal(t, "item-2", progress.Errors[0].ItemID)
	assert.Equal(t, string(retry.KindAuthentication), progress.Errors[0].Kind)
	assert.Equal(t, 2, h.store.publicationCount())
}

func TestRunCampaign_AllItemsFail(t *testing.T) {
	h := newHarness("")
	h.text.generate = func(req *interfaces.TextRequest) (string, error) {
		return "", retry.NewProviderError(401, "invalid api key", nil)
	}

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 2), models.BrandGuideline{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, progress.Status)
	assert.Equal(t, 0, progress.CompletedItems)
	assert.Len(t, progress.Errors, 2)
	assert.Equal(t, 0, h.store.publicationCount())
}

func TestRunCampaign_InvalidItemRecordedNotFatal(t *testing.T) {
	h := newHarness("")
	items := textItems("camp-1", 2)
	items[0].ContentType = models.ContentTypeTextTemplate // template type without template reference

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", items, models.BrandGuideline{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompletedWithErrors, progress.Status)
	assert.Equal(t, 1, progress.CompletedItems)
	require.Len(t, progress.Errors, 1)
	assert.Equal(t, string(retry.KindValidation), progress.Errors[0].Kind)
}

func TestRunCampaign_DuplicateRejected(t *testing.T) {
	h := newHarness("")

	started := make(chan struct{})
	release := make(chan struct{})
	h.text.generate = func(req *interfaces.TextRequest) (string, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return "generated text", nil
	}

	done := make(chan *models.GenerationProgress, 1)
	go func() {
		progress, _ := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 1), models.BrandGuideline{})
		done <- progress
	}()
	<-started

	_, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 1), models.BrandGuideline{})
	require.Error(t, err, "second concurrent run must be rejected")

	close(release)
	first := <-done
	assert.Equal(t, models.RunStatusCompleted, first.Status)

	// With the first run terminal, the campaign can run again
	_, err = h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 1), models.BrandGuideline{})
	assert.NoError(t, err)
}

func TestCancelCampaign_KeepsCompletedItems(t *testing.T) {
	h := newHarness("")

	firstDone := make(chan struct{})
	blocking := make(chan struct{})
	var once sync.Once
	h.text.generate = func(req *interfaces.TextRequest) (string, error) {
		if strings.Contains(req.Brief, "number 1") {
			once.Do(func() { close(firstDone) })
			return "generated text", nil
		}
		<-blocking
		return "generated text", nil
	}

	initial, err := h.orchestrator.StartCampaign(context.Background(), "camp-1", textItems("camp-1", 3), models.BrandGuideline{})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, initial.Status)

	<-firstDone
	time.Sleep(20 * time.Millisecond) // let item 1 persist and item 2 start

	require.NoError(t, h.orchestrator.CancelCampaign("camp-1"))
	close(blocking)

	deadline := time.After(5 * time.Second)
	for {
		progress := h.orchestrator.GetProgress("camp-1")
		if progress.Status.IsTerminal() {
			assert.Equal(t, models.RunStatusCancelled, progress.Status)
			assert.GreaterOrEqual(t, progress.CompletedItems, 1)
			assert.Less(t, progress.CompletedItems, 3)
			assert.GreaterOrEqual(t, h.store.publicationCount(), 1)
			return
		}
		select {
		case <-deadline:
			t.Fatal("run did not reach a terminal status after cancellation")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCancelCampaign_NoActiveRun(t *testing.T) {
	h := newHarness("")
	assert.Error(t, h.orchestrator.CancelCampaign("camp-unknown"))
}

func TestRecovery_FallbackProviderUsedOnce(t *testing.T) {
	h := newHarness("claude")
	h.text.generate = func(req *interfaces.TextRequest) (string, error) {
		if req.Provider == "claude" {
			return "generated via fallback", nil
		}
		return "", retry.NewProviderError(503, "service overloaded", nil)
	}

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 1), models.BrandGuideline{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, progress.Status)
	assert.Equal(t, 1, progress.CompletedItems)
	require.Equal(t, 1, h.store.publicationCount())
	assert.Equal(t, "generated via fallback", h.store.publications[0].Text)
}

func TestRecovery_SimplifiedGenerationStepsDown(t *testing.T) {
	h := newHarness("")
	h.images.slideErr = retry.AsClassified(fmt.Errorf("some inexplicable failure"))

	item := models.ContentPlanItem{
		ID:          "item-1",
		CampaignID:  "camp-1",
		Platform:    models.PlatformInstagram,
		ContentType: models.ContentTypeCarousel,
		Brief:       "Carousel about coffee",
		AssetIDs:    []string{"a1"},
	}
	require.NoError(t, h.store.SaveAsset(context.Background(), &models.MediaAsset{
		ID: "a1", Kind: models.MediaAssetImage, URL: "/assets/a1.png", Width: 1080, Height: 1080,
	}))

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", []models.ContentPlanItem{item}, models.BrandGuideline{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, progress.Status)
	require.Equal(t, 1, h.store.publicationCount())
	assert.Equal(t, models.ContentTypeTextImage, h.store.publications[0].ContentType,
		"recovery should have stepped the carousel down to text_image")
}

func TestRecovery_AppliedAtMostOnce(t *testing.T) {
	h := newHarness("claude")
	h.text.generate = func(req *interfaces.TextRequest) (string, error) {
		// Fails on both the default and the fallback provider
		return "", retry.NewProviderError(503, "service overloaded", nil)
	}

	progress, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", textItems("camp-1", 1), models.BrandGuideline{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, progress.Status)
	require.Len(t, progress.Errors, 1)

	// Two passes of MaxAttempts=2 each, never a third pass
	h.text.mu.Lock()
	calls := len(h.text.calls)
	h.text.mu.Unlock()
	assert.Equal(t, 4, calls)
}

func TestRunCampaign_EmptyPlanRejected(t *testing.T) {
	h := newHarness("")
	_, err := h.orchestrator.RunCampaign(context.Background(), "camp-1", nil, models.BrandGuideline{})
	assert.Error(t, err)
}
