package prompt

import (
	"encoding/base64"
	"strings"
)

// Request defaults shared by every provider.
const (
	MaxTokens   = 500
	Temperature = 0.3
)

// GetCaptionPrompt returns the instruction sent alongside the image. The schema
// mirrors caption.Result.
func GetCaptionPrompt() string {
	return `Please analyze this image and provide the following information in JSON format:

{
  "altText": "A concise alt text for accessibility (max 125 characters)",
  "description": "A detailed description of what you see in the image (2-3 sentences)",
  "analysis": {
    "colors": ["color1", "color2", "color3"],
    "objects": ["object1", "object2", "object3"],
    "mood": "mood description",
    "composition": "composition description"
  }
}

Focus on being descriptive and accurate. For alt text, prioritize accessibility and clarity.`
}

// DataURI embeds data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
