package generation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/retry"
)

func testOptions() Options {
	return Options{
		RetryConfig: retry.Config{
			MaxAttempts:       3,
			BaseDelay:         time.Millisecond,
			MaxDelay:          5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
		StepTimeout:       time.Second,
		Quality:           "standard",
		MaxCarouselSlides: 5,
	}
}

func testContext(contentType models.ContentType) *models.GenerationContext {
	return &models.GenerationContext{
		Item: models.ContentPlanItem{
			ID:          "item-1",
			CampaignID:  "camp-1",
			Platform:    models.PlatformInstagram,
			ContentType: contentType,
			Brief:       "Announce our new organic coffee blend",
		},
		Brand: models.BrandGuideline{
			Voice:    "warm and friendly",
			Audience: "coffee lovers",
		},
	}
}

func newFactoryForTest(text *mockTextService, images *mockImageService) *Factory {
	return NewFactory(text, images, nil, arbor.NewLogger())
}

func TestTextOnly_Success(t *testing.T) {
	text := &mockTextService{textResponses: []string{"Fresh beans, bold taste."}}
	factory := newFactoryForTest(text, &mockImageService{})

	strategy, err := factory.New(models.ContentTypeTextOnly, testOptions())
	require.NoError(t, err)

	result, err := strategy.Generate(context.Background(), testContext(models.ContentTypeTextOnly))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Fresh beans, bold taste.", result.Text)
	assert.Empty(t, result.ImageURLs)
	assert.Equal(t, 0, result.RetryCount)
	assert.Equal(t, "text_only", result.Metadata.Strategy)
}

func TestTextOnly_RecoversFromTransientFailure(t *testing.T) {
	text := &mockTextService{
		textResponses: []string{"Fresh beans."},
		textErr:       retry.NewProviderError(503, "unavailable", nil),
		failFirst:     2,
	}
	factory := newFactoryForTest(text, &mockImageService{})

	strategy, _ := factory.New(models.ContentTypeTextOnly, testOptions())
	result, err := strategy.Generate(context.Background(), testContext(models.ContentTypeTextOnly))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RetryCount)
}

func TestTextOnly_ProviderFailureYieldsStructuredResult(t *testing.T) {
	text := &mockTextService{
		alwaysFail: true,
		textErr:    retry.NewProviderError(401, "invalid api key", nil),
	}
	factory := newFactoryForTest(text, &mockImageService{})

	strategy, _ := factory.New(models.ContentTypeTextOnly, testOptions())
	result, err := strategy.Generate(context.Background(), testContext(models.ContentTypeTextOnly))

	require.NoError(t, err, "runtime failures are results, not errors")
	assert.False(t, result.Success)
	assert.Equal(t, string(retry.KindAuthentication), result.ErrorKind)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestTextOnly_OverLimitTextFailsValidation(t *testing.T) {
	text := &mockTextService{textResponses: []string{strings.Repeat("a", 300)}}
	factory := newFactoryForTest(text, &mockImageService{})

	gc := testContext(models.ContentTypeTextOnly)
	gc.Item.Platform = models.PlatformX

	strategy, _ := factory.New(models.ContentTypeTextOnly, testOptions())
	result, err := strategy.Generate(context.Background(), gc)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, string(retry.KindValidation), result.ErrorKind)
}

func TestTextOnly_CancellationPropagatesAsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text := &mockTextService{}
	factory := newFactoryForTest(text, &mockImageService{})

	strategy, _ := factory.New(models.ContentTypeTextOnly, testOptions())
	result, err := strategy.Generate(ctx, testContext(models.ContentTypeTextOnly))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextImage_Success(t *testing.T) {
	text := &mockTextService{textResponses: []string{"Taste the difference."}}
	images := &mockImageService{}
	factory := newFactoryForTest(text, images)

	gc := testContext(models.ContentTypeTextImage)
	gc.Assets = []models.MediaAsset{
		{ID: "a1", Kind: models.MediaAssetImage, URL: "/assets/beans.png", Width: 2000, Height: 2000},
	}

	strategy, _ := factory.New(models.ContentTypeTextImage, testOptions())
	result, err := strategy.Generate(context.Background(), gc)
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Len(t, result.ImageURLs, 1)
	require.Len(t, images.imageCalls, 1)
	assert.Equal(t, "a1", images.imageCalls[0].BaseAsset.ID)

	limits := models.LimitsFor(models.PlatformInstagram)
	assert.Equal(t, limits.ImageWidth, images.imageCalls[0].Width)
	assert.Equal(t, limits.ImageHeight, images.imageCalls[0].Height)
}

func TestTextImage_PromptDerivedFromGeneratedText(t *testing.T) {
	text := &mockTextService{textResponses: []string{"Taste the difference."}}
	images := &mockImageService{}
	factory := newFactoryForTest(text, images)

	gc := testContext(models.ContentTypeTextImage)
	gc.Assets = []models.MediaAsset{
		{ID: "a1", Kind: models.MediaAssetImage, URL: "/assets/beans.png", Width: 2000, Height: 2000},
	}

	strategy, _ := factory.New(models.ContentTypeTextImage, testOptions())
	result, err := strategy.Generate(context.Background(), gc)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, images.imageCalls, 1)
	prompt := images.imageCalls[0].Prompt
	assert.Contains(t, prompt, "Taste the difference.")
	assert.NotContains(t, prompt, gc.Item.Brief)
}

func TestTextImage_NoAssetsIsContractViolation(t *testing.T) {
	text := &mockTextService{}
	images := &mockImageService{}
	factory := newFactoryForTest(text, images)

	strategy, _ := factory.New(models.ContentTypeTextImage, testOptions())
	result, err := strategy.Generate(context.Background(), testContext(models.ContentTypeTextImage))

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Empty(t, images.imageCalls, "no image may be generated without an anchoring asset")
}

func TestTextImage_ImageFailureYieldsStructuredResult(t *testing.T) {
	text := &mockTextService{textResponses: []string{"Caption."}}
	images := &mockImageService{imageErr: retry.NewProviderError(429, "exceeded your current quota", nil)}
	factory := newFactoryForTest(text, images)

	gc := testContext(models.ContentTypeTextImage)
	gc.Assets = []models.MediaAsset{
		{ID: "a1", Kind: models.MediaAssetImage, URL: "/assets/beans.png", Width: 2000, Height: 2000},
	}

	strategy, _ := factory.New(models.ContentTypeTextImage, testOptions())
	result, err := strategy.Generate(context.Background(), gc)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, string(retry.KindQuotaExceeded), result.ErrorKind)
	// Quota errors stop immediately, no retries burned
	assert.Len(t, images.imageCalls, 1)
}

func TestTextTemplate_Success(t *testing.T) {
	text := &mockTextService{
		textResponses:       []string{"Big launch caption."},
		structuredResponses: []string{`{"headline": "New Blend", "offer": "20% off this week", "cta": "Shop now"}`},
	}
	images := &mockImageService{}
	factory := newFactoryForTest(text, images)

	gc := testContext(models.ContentTypeTextTemplate)
	gc.Item.ContentType = models.ContentTypeTextTemplate
	gc.Item.TemplateID = "t1"
	gc.Template = &models.Template{ID: "t1", Name: "Launch Promo", Type: models.TemplateTypePromotion, Width: 1080, Height: 1080}

	strategy, _ := factory.New(models.ContentTypeTextTemplate, testOptions())
	result, err := strategy.Generate(context.Background(), gc)
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, "Big launch caption.", result.Text)
	assert.Equal(t, "New Blend", result.AreaTexts["headline"])
	assert.Equal(t, "Shop now", result.AreaTexts["cta"])
	require.Len(t, images.templateCalls, 1)
	assert.Equal(t, result.AreaTexts, images.templateCalls[0].TextOverlays)
	require.Len(t, result.ImageURLs, 1)
}

func TestTextTemplate_AreaTextsTruncated(t *testing.T) {
	longOffer := strings.Repeat("save big ", 20)
	text := &mockTextService{
		textResponses:       []string{"Caption."},
		structuredResponses: []string{`{"headline": "H", "offer": "` + longOffer + `", "cta": "Go"}`},
	}
	factory := newFactoryForTest(text, &mockImageService{})

	gc := testContext(models.ContentTypeTextTemplate)
	gc.Template = &models.Template{ID: "t1", Name: "Promo", Type: models.TemplateTypePromotion, Width: 1080, Height: 1080}

	strategy, _ := factory.New(models.ContentTypeTextTemplate, testOptions())
	result, err := strategy.Generate(context.Background(), gc)
	require.NoError(t, err)
	require.True(t, result.Success)

	offer := result.AreaTexts["offer"]
	assert.LessOrEqual(t, len([]rune(offer)), 40)
	assert.True(t, strings.HasSuffix(offer, "…"))
}

func TestTextTemplate_MissingTemplateIsContractViolation(t *testing.T) {
	factory := newFactoryForTest(&mockTextService{}, &mockImageService{})

	gc := testContext(models.ContentTypeTextTemplate)
	gc.Template = nil

	strategy, _ := factory.New(models.ContentTypeTextTemplate, testOptions())
	result, err := strategy.Generate(context.Background(), gc)

	assert.Nil(t, result)
	assert.Error(t, err)
}
