package dto

import "encoding/json"

type ModerateTextRequest struct {
	Text string `json:"text"`
}

type ModerateTextResponse struct {
	Result json.RawMessage `json:"result"`
}

type CategoryScoreResponse struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

type VerdictResponse struct {
	Label      string                  `json:"label"`
	Confidence float64                 `json:"confidence"`
	Evidence   []CategoryScoreResponse `json:"evidence"`
}

type AIResolveResponse struct {
	Content ContentResponse `json:"content"`
	Verdict VerdictResponse `json:"verdict"`
}
