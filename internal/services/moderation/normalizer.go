package moderation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VerdictLabel is the normalized outcome of one automated check.
type VerdictLabel string

const (
	VerdictSafe   VerdictLabel = "safe"
	VerdictUnsafe VerdictLabel = "unsafe"
)

// CategoryScore names one category that crossed its threshold.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Verdict is the provider-independent result every response shape is
// reduced to. Evidence preserves the provider's category order.
type Verdict struct {
	Label      VerdictLabel    `json:"label"`
	Confidence float64         `json:"confidence"`
	Evidence   []CategoryScore `json:"evidence"`
}

func (v Verdict) Safe() bool {
	return v.Label == VerdictSafe
}

// ProviderResponse is one of the three response shapes the upstream
// classifiers return.
type ProviderResponse interface {
	isProviderResponse()
}

// LabelScore is the single-label shape: one class name with its
// confidence.
type LabelScore struct {
	Label string
	Score float64
}

func (LabelScore) isProviderResponse() {}

// ToxicityScores is the per-category shape: an overall safe score next
// to six toxicity categories.
type ToxicityScores struct {
	Safe         float64
	Toxic        float64
	Obscene      float64
	Insult       float64
	Threat       float64
	IdentityHate float64
	SevereToxic  float64
}

func (ToxicityScores) isProviderResponse() {}

// NudityScores carries the two nudity sub-signals reported for images.
type NudityScores struct {
	Raw     float64
	Partial float64
}

// AttributeReport is the image shape: per-attribute probabilities with
// nudity split into sub-signals.
type AttributeReport struct {
	Nudity            NudityScores
	Weapon            float64
	Alcohol           float64
	RecreationalDrugs float64
	MedicalDrugs      float64
	Tobacco           float64
	Violence          float64
	Offensive         float64
	Gore              float64
}

func (AttributeReport) isProviderResponse() {}

const (
	CategoryToxic        = "toxic"
	CategoryObscene      = "obscene"
	CategoryInsult       = "insult"
	CategoryThreat       = "threat"
	CategoryIdentityHate = "identity_hate"
	CategorySevereToxic  = "severe_toxic"

	CategoryNudity            = "nudity"
	CategoryWeapon            = "weapon"
	CategoryAlcohol           = "alcohol"
	CategoryRecreationalDrugs = "recreational_drugs"
	CategoryMedicalDrugs      = "medical_drugs"
	CategoryTobacco           = "tobacco"
	CategoryViolence          = "violence"
	CategoryOffensive         = "offensive"
	CategoryGore              = "gore"
)

// Thresholds maps category name to the score above which it counts as a
// violation. Missing categories fall back to DefaultThreshold.
type Thresholds map[string]float64

const DefaultThreshold = 0.5

func (t Thresholds) For(category string) float64 {
	if t == nil {
		return DefaultThreshold
	}
	if v, ok := t[category]; ok {
		return v
	}
	return DefaultThreshold
}

// Normalizer reduces any provider response shape to a Verdict using one
// threshold table.
type Normalizer struct {
	thresholds Thresholds
}

func NewNormalizer(thresholds Thresholds) *Normalizer {
	return &Normalizer{thresholds: thresholds}
}

func (n *Normalizer) Normalize(resp ProviderResponse) Verdict {
	switch r := resp.(type) {
	case LabelScore:
		return n.normalizeLabel(r)
	case ToxicityScores:
		return n.normalizeToxicity(r)
	case AttributeReport:
		return n.normalizeAttributes(r)
	default:
		// Unknown shapes never pass content through.
		return Verdict{Label: VerdictUnsafe, Evidence: []CategoryScore{}}
	}
}

// normalizeLabel trusts the provider's classification: anything other
// than the exact label "safe", including a missing one, is unsafe.
func (n *Normalizer) normalizeLabel(r LabelScore) Verdict {
	verdict := Verdict{
		Label:      VerdictUnsafe,
		Confidence: r.Score,
		Evidence:   []CategoryScore{},
	}
	if r.Label == "safe" {
		verdict.Label = VerdictSafe
		return verdict
	}
	if r.Label != "" {
		verdict.Evidence = append(verdict.Evidence, CategoryScore{Category: strings.ToLower(r.Label), Score: r.Score})
	}
	return verdict
}

func (n *Normalizer) normalizeToxicity(r ToxicityScores) Verdict {
	ordered := []CategoryScore{
		{Category: CategoryToxic, Score: r.Toxic},
		{Category: CategoryObscene, Score: r.Obscene},
		{Category: CategoryInsult, Score: r.Insult},
		{Category: CategoryThreat, Score: r.Threat},
		{Category: CategoryIdentityHate, Score: r.IdentityHate},
		{Category: CategorySevereToxic, Score: r.SevereToxic},
	}

	evidence := make([]CategoryScore, 0)
	worst := 0.0
	for _, cs := range ordered {
		if cs.Score > n.thresholds.For(cs.Category) {
			evidence = append(evidence, cs)
			if cs.Score > worst {
				worst = cs.Score
			}
		}
	}

	if len(evidence) == 0 && r.Safe > n.thresholds.For("safe") {
		return Verdict{Label: VerdictSafe, Confidence: r.Safe, Evidence: evidence}
	}
	return Verdict{Label: VerdictUnsafe, Confidence: worst, Evidence: evidence}
}

// normalizeAttributes flags every attribute above its threshold; nudity
// triggers on either sub-signal and reports the stronger one.
func (n *Normalizer) normalizeAttributes(r AttributeReport) Verdict {
	nudity := r.Nudity.Raw
	if r.Nudity.Partial > nudity {
		nudity = r.Nudity.Partial
	}

	ordered := []CategoryScore{
		{Category: CategoryNudity, Score: nudity},
		{Category: CategoryWeapon, Score: r.Weapon},
		{Category: CategoryAlcohol, Score: r.Alcohol},
		{Category: CategoryRecreationalDrugs, Score: r.RecreationalDrugs},
		{Category: CategoryMedicalDrugs, Score: r.MedicalDrugs},
		{Category: CategoryTobacco, Score: r.Tobacco},
		{Category: CategoryViolence, Score: r.Violence},
		{Category: CategoryOffensive, Score: r.Offensive},
		{Category: CategoryGore, Score: r.Gore},
	}

	evidence := make([]CategoryScore, 0)
	worst := 0.0
	for _, cs := range ordered {
		if cs.Score > n.thresholds.For(cs.Category) {
			evidence = append(evidence, cs)
			if cs.Score > worst {
				worst = cs.Score
			}
		}
	}

	if len(evidence) == 0 {
		return Verdict{Label: VerdictSafe, Evidence: evidence}
	}
	return Verdict{Label: VerdictUnsafe, Confidence: worst, Evidence: evidence}
}

// ParseLabelScore reads the single-label shape. The provider may wrap
// the pair in one or two array levels; missing fields score as zero and
// an empty label normalizes to unsafe.
func ParseLabelScore(raw json.RawMessage) (LabelScore, error) {
	node := raw
	for i := 0; i < 2; i++ {
		trimmed := strings.TrimSpace(string(node))
		if !strings.HasPrefix(trimmed, "[") {
			break
		}
		var list []json.RawMessage
		if err := json.Unmarshal(node, &list); err != nil {
			return LabelScore{}, fmt.Errorf("decode label response: %w", err)
		}
		if len(list) == 0 {
			return LabelScore{}, nil
		}
		node = list[0]
	}

	var payload struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(node, &payload); err != nil {
		return LabelScore{}, fmt.Errorf("decode label response: %w", err)
	}
	return LabelScore{Label: payload.Label, Score: payload.Score}, nil
}

// ParseToxicityScores reads the per-category shape, either bare or
// wrapped in the {"data":[...]} envelope some gateways add. Absent
// categories score as zero.
func ParseToxicityScores(raw json.RawMessage) (ToxicityScores, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	node := raw
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		node = envelope.Data[0]
	}

	var payload struct {
		Safe         float64 `json:"safe"`
		Toxic        float64 `json:"toxic"`
		Obscene      float64 `json:"obscene"`
		Insult       float64 `json:"insult"`
		Threat       float64 `json:"threat"`
		IdentityHate float64 `json:"identity_hate"`
		SevereToxic  float64 `json:"severe_toxic"`
	}
	if err := json.Unmarshal(node, &payload); err != nil {
		return ToxicityScores{}, fmt.Errorf("decode toxicity response: %w", err)
	}

	return ToxicityScores{
		Safe:         payload.Safe,
		Toxic:        payload.Toxic,
		Obscene:      payload.Obscene,
		Insult:       payload.Insult,
		Threat:       payload.Threat,
		IdentityHate: payload.IdentityHate,
		SevereToxic:  payload.SevereToxic,
	}, nil
}

// ParseAttributeReport reads the image shape. Attributes the provider
// did not evaluate stay at zero and therefore never trigger.
func ParseAttributeReport(raw json.RawMessage) (AttributeReport, error) {
	var payload struct {
		Nudity *struct {
			Raw     float64 `json:"raw"`
			Partial float64 `json:"partial"`
		} `json:"nudity"`
		Weapon            float64 `json:"weapon"`
		Alcohol           float64 `json:"alcohol"`
		RecreationalDrugs float64 `json:"recreational_drugs"`
		MedicalDrugs      float64 `json:"medical_drugs"`
		Tobacco           *struct {
			Prob float64 `json:"prob"`
		} `json:"tobacco"`
		Violence *struct {
			Prob float64 `json:"prob"`
		} `json:"violence"`
		Offensive *struct {
			Prob float64 `json:"prob"`
		} `json:"offensive"`
		Gore *struct {
			Prob float64 `json:"prob"`
		} `json:"gore"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return AttributeReport{}, fmt.Errorf("decode attribute response: %w", err)
	}

	report := AttributeReport{
		Weapon:            payload.Weapon,
		Alcohol:           payload.Alcohol,
		RecreationalDrugs: payload.RecreationalDrugs,
		MedicalDrugs:      payload.MedicalDrugs,
	}
	if payload.Nudity != nil {
		report.Nudity = NudityScores{Raw: payload.Nudity.Raw, Partial: payload.Nudity.Partial}
	}
	if payload.Tobacco != nil {
		report.Tobacco = payload.Tobacco.Prob
	}
	if payload.Violence != nil {
		report.Violence = payload.Violence.Prob
	}
	if payload.Offensive != nil {
		report.Offensive = payload.Offensive.Prob
	}
	if payload.Gore != nil {
		report.Gore = payload.Gore.Prob
	}
	return report, nil
}
