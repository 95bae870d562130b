package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/flowbaker/sortinghat/pkg/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var generatedPNG = []byte("generated-png-bytes")

type fakeImages struct {
	err   error
	panic bool
	empty bool

	generateRequests []openai.ImageRequest
	editRequests     []openai.ImageEditRequest
	editImageSize    image.Point
	editMaskOpaque   bool
}

func (f *fakeImages) response() (openai.ImageResponse, error) {
	if f.panic {
		panic("unexpected nil payload")
	}
	if f.err != nil {
		return openai.ImageResponse{}, f.err
	}
	if f.empty {
		return openai.ImageResponse{}, nil
	}
	return openai.ImageResponse{
		Data: []openai.ImageResponseDataInner{{B64JSON: base64.StdEncoding.EncodeToString(generatedPNG)}},
	}, nil
}

func (f *fakeImages) CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error) {
	f.generateRequests = append(f.generateRequests, request)
	return f.response()
}

func (f *fakeImages) CreateEditImage(ctx context.Context, request openai.ImageEditRequest) (openai.ImageResponse, error) {
	f.editRequests = append(f.editRequests, request)

	if request.Image != nil {
		if img, err := png.Decode(request.Image); err == nil {
			f.editImageSize = img.Bounds().Size()
		}
	}
	if request.Mask != nil {
		if mask, err := png.Decode(request.Mask); err == nil {
			f.editMaskOpaque = hasOpaquePixel(mask)
		}
	}

	return f.response()
}

type fakeContent struct {
	resp  *genai.GenerateContentResponse
	err   error
	panic bool

	contents []*genai.Content
	configs  []*genai.GenerateContentConfig
}

func (f *fakeContent) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = append(f.contents, contents...)
	f.configs = append(f.configs, config)
	if f.panic {
		panic("candidate index out of range")
	}
	return f.resp, f.err
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(testPNG(t, w, h)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Here is your image"},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			}},
		}},
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func hasOpaquePixel(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return true
			}
		}
	}
	return false
}

func TestNew(t *testing.T) {
	images := &fakeImages{}
	content := &fakeContent{}

	tests := []struct {
		name       string
		opts       Options
		wantName   string
		wantSource bool
		wantErr    error
	}{
		{name: "generate", opts: Options{Name: StrategyGenerate, Generator: images}, wantName: StrategyGenerate},
		{name: "edit", opts: Options{Name: StrategyEdit, Editor: images}, wantName: StrategyEdit, wantSource: true},
		{name: "multimodal", opts: Options{Name: StrategyMultimodal, Content: content}, wantName: StrategyMultimodal, wantSource: true},
		{name: "unknown", opts: Options{Name: "watercolor", Generator: images}, wantErr: ErrUnknownStrategy},
		{name: "missing client", opts: Options{Name: StrategyEdit, Generator: images}, wantErr: ErrClientNotSet},
		{
			name: "incomplete templates",
			opts: Options{
				Name:      StrategyGenerate,
				Generator: images,
				Templates: map[domain.Category]string{domain.CategoryGryffindor: "red and gold"},
			},
			wantErr: domain.ErrUnsupportedCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := New(tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, strategy.Name())
			assert.Equal(t, tt.wantSource, strategy.RequiresSourceImage())
		})
	}
}

func TestDefaultStyleTemplatesCoverEveryCategory(t *testing.T) {
	templates := DefaultStyleTemplates()

	for _, category := range domain.AllCategories {
		assert.Contains(t, strings.ToLower(templates[category]), string(category))
	}

	templates[domain.CategoryGryffindor] = "mutated"
	assert.NotEqual(t, "mutated", DefaultStyleTemplates()[domain.CategoryGryffindor])
}

func TestGenerateTransform(t *testing.T) {
	images := &fakeImages{}
	strategy, err := New(Options{Name: StrategyGenerate, Generator: images})
	require.NoError(t, err)

	result := strategy.Transform(context.Background(), domain.TransformationRequest{
		SubjectDescription: "a cunning silver snake",
		Category:           domain.CategorySlytherin,
	})

	assert.True(t, result.Success)
	assert.False(t, result.IsOriginal)
	assert.Equal(t, generatedPNG, result.ImageData)
	assert.Equal(t, "image/png", result.MIMEType)
	assert.Empty(t, result.ErrorDetail)

	require.Len(t, images.generateRequests, 1)
	req := images.generateRequests[0]
	assert.Equal(t, "a cunning silver snake "+slytherinStyle, req.Prompt)
	assert.Equal(t, "dall-e-3", req.Model)
	assert.Equal(t, 1, req.N)
	assert.Equal(t, "1024x1024", req.Size)
	assert.Equal(t, openai.CreateImageQualityStandard, req.Quality)
	assert.Equal(t, openai.CreateImageResponseFormatB64JSON, req.ResponseFormat)
}

func TestEditTransform(t *testing.T) {
	images := &fakeImages{}
	strategy, err := New(Options{Name: StrategyEdit, Editor: images, Size: 64})
	require.NoError(t, err)

	source := &domain.Image{Data: testPNG(t, 40, 20), MIMEType: "image/png"}

	result := strategy.Transform(context.Background(), domain.TransformationRequest{
		SubjectDescription: "a red flag",
		Category:           domain.CategoryGryffindor,
		SourceImage:        source,
		OriginalImage:      source,
	})

	assert.True(t, result.Success)
	assert.Equal(t, generatedPNG, result.ImageData)

	require.Len(t, images.editRequests, 1)
	req := images.editRequests[0]
	assert.Equal(t, "dall-e-2", req.Model)
	assert.Equal(t, "64x64", req.Size)
	assert.Contains(t, req.Prompt, gryffindorStyle)
	assert.Equal(t, image.Pt(64, 64), images.editImageSize)
	assert.False(t, images.editMaskOpaque)
}

func TestMultimodalTransform(t *testing.T) {
	edited := testPNG(t, 6, 4)

	tests := []struct {
		name     string
		mimeType string
		data     []byte
	}{
		{name: "png passes through", mimeType: "image/png", data: edited},
		{name: "missing mime type", mimeType: "", data: edited},
		{name: "jpeg re-encoded", mimeType: "image/jpeg", data: testJPEG(t, 6, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := &fakeContent{resp: imageResponse(tt.mimeType, tt.data)}
			strategy, err := New(Options{Name: StrategyMultimodal, Content: content})
			require.NoError(t, err)

			source := &domain.Image{Data: []byte("owl"), MIMEType: "image/webp"}

			result := strategy.Transform(context.Background(), domain.TransformationRequest{
				Category:      domain.CategoryRavenclaw,
				SourceImage:   source,
				OriginalImage: source,
			})

			assert.True(t, result.Success)
			assert.False(t, result.IsOriginal)
			assert.Equal(t, "image/png", result.MIMEType)

			out, err := png.Decode(bytes.NewReader(result.ImageData))
			require.NoError(t, err)
			assert.Equal(t, image.Pt(6, 4), out.Bounds().Size())

			require.Len(t, content.contents, 1)
			parts := content.contents[0].Parts
			require.Len(t, parts, 2)
			assert.Contains(t, parts[0].Text, ravenclawStyle)
			assert.Equal(t, "image/webp", parts[1].InlineData.MIMEType)
			assert.Equal(t, []byte("owl"), parts[1].InlineData.Data)
			assert.Equal(t, []string{"TEXT", "IMAGE"}, content.configs[0].ResponseModalities)
		})
	}
}

func TestTransformDegradesToOriginal(t *testing.T) {
	original := &domain.Image{Data: testPNG(t, 8, 8), MIMEType: "image/png"}
	providerErr := errors.New("503 service unavailable")

	tests := []struct {
		name    string
		opts    Options
		req     domain.TransformationRequest
		wantErr error
	}{
		{
			name:    "generate provider failure",
			opts:    Options{Name: StrategyGenerate, Generator: &fakeImages{err: providerErr}},
			req:     domain.TransformationRequest{Category: domain.CategoryHufflepuff, OriginalImage: original},
			wantErr: domain.ErrExternalCall,
		},
		{
			name:    "generate empty payload",
			opts:    Options{Name: StrategyGenerate, Generator: &fakeImages{empty: true}},
			req:     domain.TransformationRequest{Category: domain.CategoryHufflepuff, OriginalImage: original},
			wantErr: domain.ErrEmptyImage,
		},
		{
			name:    "generate panic",
			opts:    Options{Name: StrategyGenerate, Generator: &fakeImages{panic: true}},
			req:     domain.TransformationRequest{Category: domain.CategoryHufflepuff, OriginalImage: original},
			wantErr: domain.ErrExternalCall,
		},
		{
			name:    "generate unsupported category",
			opts:    Options{Name: StrategyGenerate, Generator: &fakeImages{}},
			req:     domain.TransformationRequest{Category: "durmstrang", OriginalImage: original},
			wantErr: domain.ErrUnsupportedCategory,
		},
		{
			name:    "edit provider failure",
			opts:    Options{Name: StrategyEdit, Editor: &fakeImages{err: providerErr}, Size: 16},
			req:     domain.TransformationRequest{Category: domain.CategorySlytherin, SourceImage: original, OriginalImage: original},
			wantErr: domain.ErrExternalCall,
		},
		{
			name:    "edit missing source",
			opts:    Options{Name: StrategyEdit, Editor: &fakeImages{}, Size: 16},
			req:     domain.TransformationRequest{Category: domain.CategorySlytherin, OriginalImage: original},
			wantErr: domain.ErrSourceImageRequired,
		},
		{
			name: "edit undecodable source",
			opts: Options{Name: StrategyEdit, Editor: &fakeImages{}, Size: 16},
			req: domain.TransformationRequest{
				Category:      domain.CategorySlytherin,
				SourceImage:   &domain.Image{Data: []byte("not an image"), MIMEType: "image/heic"},
				OriginalImage: &domain.Image{Data: []byte("not an image"), MIMEType: "image/heic"},
			},
			wantErr: image.ErrFormat,
		},
		{
			name: "edit oversized source",
			opts: Options{Name: StrategyEdit, Editor: &fakeImages{}, Size: 16},
			req: domain.TransformationRequest{
				Category:      domain.CategorySlytherin,
				SourceImage:   &domain.Image{Data: pngHeader(12000, 12000), MIMEType: "image/png"},
				OriginalImage: &domain.Image{Data: pngHeader(12000, 12000), MIMEType: "image/png"},
			},
			wantErr: ErrImageTooLarge,
		},
		{
			name:    "multimodal provider failure",
			opts:    Options{Name: StrategyMultimodal, Content: &fakeContent{err: providerErr}},
			req:     domain.TransformationRequest{Category: domain.CategoryRavenclaw, SourceImage: original, OriginalImage: original},
			wantErr: domain.ErrExternalCall,
		},
		{
			name:    "multimodal text only response",
			opts:    Options{Name: StrategyMultimodal, Content: &fakeContent{resp: &genai.GenerateContentResponse{}}},
			req:     domain.TransformationRequest{Category: domain.CategoryRavenclaw, SourceImage: original, OriginalImage: original},
			wantErr: domain.ErrEmptyImage,
		},
		{
			name:    "multimodal undecodable non-png output",
			opts:    Options{Name: StrategyMultimodal, Content: &fakeContent{resp: imageResponse("image/jpeg", []byte("not a jpeg"))}},
			req:     domain.TransformationRequest{Category: domain.CategoryRavenclaw, SourceImage: original, OriginalImage: original},
			wantErr: domain.ErrEmptyImage,
		},
		{
			name:    "multimodal panic",
			opts:    Options{Name: StrategyMultimodal, Content: &fakeContent{panic: true}},
			req:     domain.TransformationRequest{Category: domain.CategoryRavenclaw, SourceImage: original, OriginalImage: original},
			wantErr: domain.ErrExternalCall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := New(tt.opts)
			require.NoError(t, err)

			result := strategy.Transform(context.Background(), tt.req)

			assert.False(t, result.Success)
			assert.True(t, result.IsOriginal)
			assert.Equal(t, tt.req.Original().Data, result.ImageData)
			assert.Equal(t, tt.req.Original().MIMEType, result.MIMEType)
			assert.Contains(t, result.ErrorDetail, tt.wantErr.Error())
		})
	}
}

func TestTransformDegradesWithoutOriginal(t *testing.T) {
	strategy, err := New(Options{Name: StrategyGenerate, Generator: &fakeImages{err: errors.New("timeout")}})
	require.NoError(t, err)

	result := strategy.Transform(context.Background(), domain.TransformationRequest{
		SubjectDescription: "a brave lion",
		Category:           domain.CategoryGryffindor,
	})

	assert.False(t, result.Success)
	assert.True(t, result.IsOriginal)
	assert.Nil(t, result.ImageData)
	assert.Empty(t, result.MIMEType)
	assert.Contains(t, result.ErrorDetail, "timeout")
}
