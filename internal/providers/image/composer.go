package image

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitstudio/internal/domain"
	"fitstudio/internal/providers/genai"
)

// Configuration sent with every composition round trip.
const (
	compositeImageSize   = "1K"
	compositeAspectRatio = "3:4"
)

// Composer is the contract for producing a try-on composite from a garment
// image, a subject image and a scene description in one blocking round trip.
type Composer interface {
	Compose(ctx context.Context, req domain.CompositeRequest) (*domain.Composite, error)
}

// compositeClient is the slice of the genai client the composer needs.
type compositeClient interface {
	GenerateComposite(ctx context.Context, req genai.ComposeRequest) (*genai.CompositeImage, error)
	ImageModel() string
}

// GeminiComposer renders composites through the Gemini image endpoint.
type GeminiComposer struct {
	client compositeClient
}

// NewGeminiComposer constructs the composer.
func NewGeminiComposer(client *genai.Client) *GeminiComposer {
	return &GeminiComposer{client: client}
}

// Compose issues the generation request. The garment is always the first
// image part and the subject the second; the prompt keys its instructions
// off those positions, so the order must never change.
func (g *GeminiComposer) Compose(ctx context.Context, req domain.CompositeRequest) (*domain.Composite, error) {
	img, err := g.client.GenerateComposite(ctx, genai.ComposeRequest{
		Prompt: buildCompositePrompt(req.Scene),
		Images: []genai.InlineImage{
			{MIME: req.Garment.MIME, Data: req.Garment.Bytes},
			{MIME: req.Subject.MIME, Data: req.Subject.Bytes},
		},
		ImageSize:   compositeImageSize,
		AspectRatio: compositeAspectRatio,
		RequestID:   uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.Composite{
		ID:        uuid.NewString(),
		Bytes:     img.Data,
		MIME:      img.MIME,
		Model:     img.Model,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func buildCompositePrompt(scene string) string {
	var b strings.Builder
	b.WriteString("Dress the person from Image 2 in the garment from Image 1. ")
	b.WriteString("Preserve the person's identity, pose and body shape, and fit the garment naturally with realistic drape, lighting and shadows.")
	if scene = strings.TrimSpace(scene); scene != "" {
		b.WriteString("\nScene: ")
		b.WriteString(scene)
	}
	b.WriteString("\nReturn a single photorealistic image.")
	return b.String()
}

var _ Composer = (*GeminiComposer)(nil)
