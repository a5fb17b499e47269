// Package gemini holds the generateContent wire types and the model catalog shared by the
// latency probe and the forecast proxy.
package gemini

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the public Generative Language API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// APIKeyHeader carries the credential so it never appears in logged URLs.
const APIKeyHeader = "x-goog-api-key"

// Model identifiers exposed to clients.
const (
	ModelFlash     = "gemini-2.5-flash"
	ModelFlashLite = "gemini-2.5-flash-lite"
	ModelPro       = "gemini-2.5-pro"
)

// DefaultModel is used by the proxy when a request names no model or an unknown one.
const DefaultModel = ModelFlash

// AllowedModels lists the identifiers the proxy will forward, in display order.
var AllowedModels = []string{ModelFlash, ModelFlashLite, ModelPro}

// IsAllowed reports whether model is on the allow-list.
func IsAllowed(model string) bool {
	for _, m := range AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// SafeModel returns model when allowed, otherwise DefaultModel.
func SafeModel(model string) string {
	model = strings.TrimSpace(model)
	if IsAllowed(model) {
		return model
	}
	return DefaultModel
}

// GenerateURL returns the generateContent endpoint for model under baseURL.
func GenerateURL(baseURL, model string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/models/%s:generateContent", base, url.PathEscape(model))
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a text fragment.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig constrains the reply format.
type GenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

// Schema is the subset of the OpenAPI schema dialect Gemini accepts for responseSchema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// NewTextRequest builds a single-turn user request asking for a JSON reply.
func NewTextRequest(prompt string, schema *Schema) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
}

// GenerateResponse is the part of the generateContent reply we read.
type GenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *APIError `json:"error,omitempty"`
}

// APIError is the error envelope Google APIs return.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// FirstText returns the first candidate's first text fragment, or "".
func (r GenerateResponse) FirstText() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}
