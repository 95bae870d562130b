package transform

import (
	"context"
	"fmt"
	"os"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ImageEditor is the part of the go-openai client used for masked image edits.
type ImageEditor interface {
	CreateEditImage(ctx context.Context, request openai.ImageEditRequest) (openai.ImageResponse, error)
}

// editStrategy repaints the uploaded image through a full-frame transparent mask.
type editStrategy struct {
	client    ImageEditor
	model     string
	size      int
	templates styleTemplates
}

func newEditStrategy(client ImageEditor, model string, size int, templates styleTemplates) *editStrategy {
	return &editStrategy{
		client:    client,
		model:     model,
		size:      size,
		templates: templates,
	}
}

func (s *editStrategy) Name() string {
	return StrategyEdit
}

func (s *editStrategy) RequiresSourceImage() bool {
	return true
}

func (s *editStrategy) Transform(ctx context.Context, req domain.TransformationRequest) (result domain.TransformationResult) {
	defer recoverDegraded(s.Name(), req, &result)

	if req.SourceImage == nil || len(req.SourceImage.Data) == 0 {
		return degrade(s.Name(), req, domain.ErrSourceImageRequired)
	}

	template, err := s.templates.lookup(req.Category)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	square, err := squarePNG(req.SourceImage.Data, s.size)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	mask, err := transparentMaskPNG(s.size)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	imageFile, err := writeTempPNG(square)
	if err != nil {
		return degrade(s.Name(), req, err)
	}
	defer removeTemp(imageFile)

	maskFile, err := writeTempPNG(mask)
	if err != nil {
		return degrade(s.Name(), req, err)
	}
	defer removeTemp(maskFile)

	log.Debug().Str("model", s.model).Int("size", s.size).Msg("Requesting image edit")

	resp, err := s.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          imageFile,
		Mask:           maskFile,
		Prompt:         editInstruction + template,
		Model:          s.model,
		N:              1,
		Size:           squareSize(s.size),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return degrade(s.Name(), req, fmt.Errorf("%w: %w", domain.ErrExternalCall, err))
	}

	data, err := firstB64Image(resp)
	if err != nil {
		return degrade(s.Name(), req, err)
	}

	return transformed(data)
}

// writeTempPNG stores data in a .png temp file rewound for reading. The
// provider derives the upload's content type from the file name.
func writeTempPNG(data []byte) (*os.File, error) {
	f, err := os.CreateTemp("", "sortinghat-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		removeTemp(f)
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}

	if _, err := f.Seek(0, 0); err != nil {
		removeTemp(f)
		return nil, fmt.Errorf("failed to rewind temp image: %w", err)
	}

	return f, nil
}

func removeTemp(f *os.File) {
	name := f.Name()
	f.Close()

	if err := os.Remove(name); err != nil {
		log.Warn().Err(err).Str("path", name).Msg("Failed to remove temp image")
	}
}
