package domain

import (
	"fmt"
	"strings"
)

type InputKind string

const (
	InputKindImage InputKind = "image"
	InputKindText  InputKind = "text"
	InputKindURL   InputKind = "url"
)

// Image is an encoded image together with its MIME type.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// ClassificationInput is the normalized subject handed to the sorting
// pipeline. Exactly one payload is populated per kind: Image (with an
// optional Caption) for InputKindImage, Text for the other kinds.
type ClassificationInput struct {
	Kind    InputKind
	Image   *Image
	Caption string
	Text    string
}

func NewImageInput(data []byte, mimeType string, caption string) ClassificationInput {
	return ClassificationInput{
		Kind:    InputKindImage,
		Image:   &Image{Data: data, MIMEType: mimeType},
		Caption: strings.TrimSpace(caption),
	}
}

func NewTextInput(text string) ClassificationInput {
	return ClassificationInput{
		Kind: InputKindText,
		Text: strings.TrimSpace(text),
	}
}

// NewURLInput wraps url into descriptive text. The page itself is never fetched.
func NewURLInput(url string) ClassificationInput {
	url = strings.TrimSpace(url)
	if url == "" {
		return ClassificationInput{Kind: InputKindURL}
	}

	return ClassificationInput{
		Kind: InputKindURL,
		Text: fmt.Sprintf("A website at %s. (Note: the page content is not fetched - sorting is based on the URL alone)", url),
	}
}

// Validate checks the payload invariant for the input kind.
func (in ClassificationInput) Validate() error {
	switch in.Kind {
	case InputKindImage:
		if in.Image == nil || len(in.Image.Data) == 0 {
			return fmt.Errorf("%w: image input has no image data", ErrEmptyInput)
		}
		if in.Text != "" {
			return fmt.Errorf("%w: image input must not carry text", ErrEmptyInput)
		}
	case InputKindText, InputKindURL:
		if strings.TrimSpace(in.Text) == "" {
			return fmt.Errorf("%w: %s input has no text", ErrEmptyInput, in.Kind)
		}
		if in.Image != nil {
			return fmt.Errorf("%w: %s input must not carry an image", ErrEmptyInput, in.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown input kind %q", ErrEmptyInput, in.Kind)
	}

	return nil
}

// Subject returns the caller supplied description of the subject: the caption
// for images, the text otherwise.
func (in ClassificationInput) Subject() string {
	if in.Kind == InputKindImage {
		return in.Caption
	}
	return in.Text
}
