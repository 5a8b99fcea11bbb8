package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrProvider wraps transport and provider failures from the Vision API.
var ErrProvider = errors.New("text detection provider failed")

// VisionGateway implements TextDetector using the Google Cloud Vision API.
type VisionGateway struct {
	client     *vision.ImageAnnotatorClient
	maxResults int
	logger     *zap.Logger
}

// NewVisionGateway creates a Vision-backed text detector. Credentials come
// from the configured service account file, falling back to application
// default credentials when no file is set.
func NewVisionGateway(lc fx.Lifecycle, logger *zap.Logger, credentialsFile string, maxResults int) (*VisionGateway, error) {
	logger.Info("initializing vision client")

	ctx := context.Background()
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("[VISION] failed to create image annotator client: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := client.Close(); err != nil {
				logger.Error("failed to close vision client", zap.Error(err))
				return err
			}
			logger.Info("vision client closed")
			return nil
		},
	})

	return &VisionGateway{
		client:     client,
		maxResults: maxResults,
		logger:     logger,
	}, nil
}

// DetectText runs text detection over the staged image file and returns the
// detected fragments in provider order. The caller owns the staged file and
// must keep it alive for the duration of the call.
func (g *VisionGateway) DetectText(ctx context.Context, imagePath string) ([]Fragment, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open staged image: %v", ErrProvider, err)
	}
	defer f.Close()

	image, err := vision.NewImageFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read staged image: %v", ErrProvider, err)
	}

	annotations, err := g.client.DetectTexts(ctx, image, nil, g.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	fragments := make([]Fragment, 0, len(annotations))
	for _, annotation := range annotations {
		fragment := Fragment{Description: annotation.GetDescription()}
		if poly := annotation.GetBoundingPoly(); poly != nil {
			for _, v := range poly.GetVertices() {
				fragment.Vertices = append(fragment.Vertices, Vertex{X: v.GetX(), Y: v.GetY()})
			}
		}
		fragments = append(fragments, fragment)
	}

	g.logger.Debug("text detection completed",
		zap.String("image_path", imagePath),
		zap.Int("fragment_count", len(fragments)),
	)

	return fragments, nil
}
