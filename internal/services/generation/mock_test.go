package generation

import (
	"context"
	"fmt"
	"sync"

	"github.com/brandwell/contentforge/internal/interfaces"
)

// mockTextService is a scriptable TextGenerationService for strategy tests
type mockTextService struct {
	mu sync.Mutex

	textResponses       []string
	structuredResponses []string
	textErr             error
	structuredErr       error
	alwaysFail          bool
	failFirst           int // fail this many text calls before succeeding

	textCalls       []*interfaces.TextRequest
	structuredCalls []*interfaces.StructuredTextRequest
}

func (m *mockTextService) GenerateText(ctx context.Context, req *interfaces.TextRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := *req
	m.textCalls = append(m.textCalls, &reqCopy)

	if m.failFirst > 0 {
		m.failFirst--
		return "", m.textErr
	}
	if m.alwaysFail {
		return "", m.textErr
	}

	if len(m.textResponses) == 0 {
		return "generated text", nil
	}
	response := m.textResponses[0]
	if len(m.textResponses) > 1 {
		m.textResponses = m.textResponses[1:]
	}
	return response, nil
}

func (m *mockTextService) GenerateStructuredText(ctx context.Context, req *interfaces.StructuredTextRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := *req
	m.structuredCalls = append(m.structuredCalls, &reqCopy)

	if m.structuredErr != nil {
		return "", m.structuredErr
	}
	if len(m.structuredResponses) == 0 {
		return "{}", nil
	}
	response := m.structuredResponses[0]
	if len(m.structuredResponses) > 1 {
		m.structuredResponses = m.structuredResponses[1:]
	}
	return response, nil
}

// mockImageService is a scriptable ImageGenerationService for strategy tests
type mockImageService struct {
	mu sync.Mutex

	imageErr    error
	slideErr    error
	templateErr error

	imageCalls    []*interfaces.ImageRequest
	templateCalls []*interfaces.TemplateImageRequest
	slideCalls    []*interfaces.CarouselSlideRequest
}

func (m *mockImageService) GenerateImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := *req
	m.imageCalls = append(m.imageCalls, &reqCopy)
	if m.imageErr != nil {
		return nil, m.imageErr
	}
	return &interfaces.ImageResult{
		URL:    fmt.Sprintf("/images/img_%d.png", len(m.imageCalls)),
		Width:  req.Width,
		Height: req.Height,
	}, nil
}

func (m *mockImageService) GenerateTemplateImage(ctx context.Context, req *interfaces.TemplateImageRequest) (*interfaces.ImageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := *req
	m.templateCalls = append(m.templateCalls, &reqCopy)
	if m.templateErr != nil {
		return nil, m.templateErr
	}
	return &interfaces.ImageResult{
		URL:    fmt.Sprintf("/images/template_%d.png", len(m.templateCalls)),
		Width:  req.Template.Width,
		Height: req.Template.Height,
	}, nil
}

func (m *mockImageService) GenerateCarouselSlide(ctx context.Context, req *interfaces.CarouselSlideRequest) (*interfaces.ImageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := *req
	reqCopy.CarouselContext = append([]string(nil), req.CarouselContext...)
	m.slideCalls = append(m.slideCalls, &reqCopy)
	if m.slideErr != nil {
		return nil, m.slideErr
	}
	return &interfaces.ImageResult{
		URL:    fmt.Sprintf("/images/slide_%d.png", len(m.slideCalls)),
		Width:  req.Width,
		Height: req.Height,
	}, nil
}
