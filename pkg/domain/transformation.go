package domain

// TransformationRequest describes a restyling of a subject for a category.
type TransformationRequest struct {
	SubjectDescription string
	Category           Category

	// SourceImage is only set when the active strategy conditions on the image.
	SourceImage *Image

	// OriginalImage is the caller's upload, returned untouched on degradation.
	OriginalImage *Image
}

// Original returns the image a degraded result should carry, if any.
func (r TransformationRequest) Original() *Image {
	if r.OriginalImage != nil {
		return r.OriginalImage
	}
	return r.SourceImage
}

type TransformationResult struct {
	Success     bool   `json:"success"`
	ImageData   []byte `json:"imageData,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	IsOriginal  bool   `json:"isOriginal"`
	ErrorDetail string `json:"error,omitempty"`
}

// DegradedResult returns the original image (if there was one) flagged as a failed transformation.
func DegradedResult(original *Image, err error) TransformationResult {
	result := TransformationResult{
		Success:    false,
		IsOriginal: true,
	}

	if original != nil {
		result.ImageData = original.Data
		result.MIMEType = original.MIMEType
	}

	if err != nil {
		result.ErrorDetail = err.Error()
	}

	return result
}
