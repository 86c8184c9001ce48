package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// generateRequest is the body of a generateContent call.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// GeminiResponse is the subset of a generateContent response that taskflow reads.
type GeminiResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`

	// Error is set by the API on failure responses.
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// parseGeminiResponse decodes a response body and returns the first
// candidate's first text part.
func parseGeminiResponse(data []byte) (string, error) {
	if len(data) == 0 {
		return "", tferrors.ErrAIEmptyResponse
	}

	var resp GeminiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: failed to parse json response: %s", tferrors.ErrAIInvalidFormat, err.Error())
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s (%s)", tferrors.ErrAIRequestFailed, resp.Error.Message, resp.Error.Status)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", tferrors.ErrAIEmptyResponse
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", tferrors.ErrAIEmptyResponse
	}
	return text, nil
}
