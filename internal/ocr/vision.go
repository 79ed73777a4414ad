// vision.go - Google Cloud Vision text detection

package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/processor"
)

// VisionExtractor implements TextExtractor with the Vision images:annotate API
type VisionExtractor struct {
	apiKey string
	opts   Options
}

// NewVisionExtractor creates a new Vision extractor
func NewVisionExtractor(apiKey string, opts Options) *VisionExtractor {
	return &VisionExtractor{apiKey: apiKey, opts: opts}
}

// GetProviderName returns the provider name
func (v *VisionExtractor) GetProviderName() string {
	return configs.OCRGoogleVision
}

// ExtractText sends one TEXT_DETECTION request and returns the full text
// annotation. A missing key fails before any request is made.
func (v *VisionExtractor) ExtractText(ctx context.Context, img Image, reqCtx *common.RequestContext) (string, error) {
	if v.apiKey == "" {
		return "", common.CredentialMissing(configs.OCRGoogleVision)
	}
	if img.IsPDF() {
		return "", common.UnsupportedInput("text detection expects an image, got PDF")
	}

	data := img.Data
	if v.opts.MaxImageDimension > 0 {
		reqCtx.StartSubStep("image_preprocessing")
		if processed, _, err := processor.Preprocess(img.Data, img.MIMEType, processor.UploadMode, v.opts.MaxImageDimension); err != nil {
			reqCtx.LogWarning("downscale failed, sending original: %v", err)
		} else {
			data = processed
		}
		reqCtx.EndSubStep(fmt.Sprintf("%d → %d bytes", len(img.Data), len(data)))
	}

	if v.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.Timeout)
		defer cancel()
	}

	if err := v.opts.Limiter.Wait(ctx, configs.OCRGoogleVision); err != nil {
		return "", common.RequestFailed(configs.OCRGoogleVision, err)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(v.apiKey)}
	if v.opts.VisionEndpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(v.opts.VisionEndpoint))
	}
	svc, err := vision.NewService(ctx, clientOpts...)
	if err != nil {
		return "", common.RequestFailed(configs.OCRGoogleVision, fmt.Errorf("failed to create vision client: %w", err))
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
			Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
		}},
	}

	reqCtx.StartSubStep("recognize_text")
	resp, err := svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		reqCtx.EndSubStep("failed")
		return "", common.RequestFailed(configs.OCRGoogleVision, err)
	}

	text, err := visionText(resp)
	if err != nil {
		reqCtx.EndSubStep("failed")
		return "", err
	}
	reqCtx.EndSubStep(fmt.Sprintf("%d chars", len(text)))

	return text, nil
}

func visionText(resp *vision.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return "", nil
	}
	first := resp.Responses[0]
	if first.Error != nil && first.Error.Code != 0 {
		return "", common.RequestFailedStatus(configs.OCRGoogleVision, 502,
			fmt.Sprintf("vision error %d: %s", first.Error.Code, first.Error.Message))
	}
	if first.FullTextAnnotation != nil && first.FullTextAnnotation.Text != "" {
		return strings.TrimSpace(first.FullTextAnnotation.Text), nil
	}
	if len(first.TextAnnotations) > 0 {
		return strings.TrimSpace(first.TextAnnotations[0].Description), nil
	}
	return "", nil
}
