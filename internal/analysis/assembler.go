package analysis

import (
	"time"

	"github.com/ternarybob/stockbrief/internal/common"
	"github.com/ternarybob/stockbrief/internal/models"
)

// Assembler folds the settled task results of one run into a persistent
// AnalysisRecord. Failed non-terminal sections are recorded as missing and
// the composite score is renormalized over the sections that survived.
type Assembler struct {
	// weights maps scored section names to their share of the composite
	// score. Weights are renormalized over the present sections, so a run
	// missing one section still yields a 0-10 composite.
	weights map[string]float64
}

// NewAssembler creates an assembler with the given section score weights.
// A nil or empty map falls back to the default weighting.
func NewAssembler(weights map[string]float64) *Assembler {
	if len(weights) == 0 {
		weights = DefaultScoreWeights()
	}
	return &Assembler{weights: weights}
}

// DefaultScoreWeights returns the standard composite weighting across the
// scored sections.
func DefaultScoreWeights() map[string]float64 {
	return map[string]float64{
		models.TaskRatios:     0.20,
		models.TaskRisk:       0.20,
		models.TaskValuation:  0.25,
		models.TaskManagement: 0.15,
		models.TaskIndustry:   0.20,
	}
}

// Assemble builds the AnalysisRecord for a run from its settled results.
// The terminal decision result must have succeeded; the orchestrator fails
// the run outright otherwise and never reaches assembly.
func (a *Assembler) Assemble(ticker, runID string, specs []TaskSpec, results map[string]models.TaskResult) *models.AnalysisRecord {
	record := &models.AnalysisRecord{
		ID:          common.NewRecordID(),
		Ticker:      ticker,
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
	}

	for _, spec := range specs {
		result, ok := results[spec.Name]
		if !ok || !result.Succeeded() {
			if !spec.Terminal {
				record.MissingSections = append(record.MissingSections, spec.Name)
			}
			continue
		}
		attachSection(record, result.Payload)
	}

	record.Partial = len(record.MissingSections) > 0

	if record.Decision != nil {
		record.Recommendation = models.Recommendation(record.Decision.Recommendation)
		record.Confidence = record.Decision.Confidence
		record.TargetPrice = record.Decision.TargetPrice
	}

	record.OverallScore = a.compositeScore(record)
	return record
}

// attachSection places a typed task payload into its record slot.
func attachSection(record *models.AnalysisRecord, payload any) {
	switch p := payload.(type) {
	case *models.CompanyKnowledge:
		record.Knowledge = p
	case *models.FinancialData:
		record.Financial = p
	case *models.KeyRatios:
		record.Ratios = p
	case *models.BusinessAnalysis:
		record.Business = p
	case *models.RiskAssessment:
		record.Risk = p
	case *models.ValuationMetrics:
		record.Valuation = p
	case *models.ManagementAnalysis:
		record.Management = p
	case *models.IndustryAnalysis:
		record.Industry = p
	case *models.FinalRecommendation:
		record.Decision = p
	}
}

// compositeScore computes the weighted 0-10 composite over the scored
// sections present on the record. Weights of missing sections are dropped
// and the remainder renormalized. Falls back to the terminal task's own
// score when no scored section survived.
func (a *Assembler) compositeScore(record *models.AnalysisRecord) float64 {
	total := 0.0
	weightSum := 0.0

	for section, weight := range a.weights {
		score, ok := sectionScore(record, section)
		if !ok {
			continue
		}
		total += score * weight
		weightSum += weight
	}

	if weightSum == 0 {
		if record.Decision != nil {
			return record.Decision.OverallScore
		}
		return 0
	}

	return total / weightSum
}

// sectionScore extracts the 0-10 sub-score of one section. Sections that
// express their rating on another scale are mapped onto 0-10 here.
func sectionScore(record *models.AnalysisRecord, section string) (float64, bool) {
	switch section {
	case models.TaskRatios:
		if record.Ratios == nil {
			return 0, false
		}
		return record.Ratios.QualityScore, true

	case models.TaskRisk:
		// Risk scores run 1 (low) to 10 (high); invert so low risk rates high.
		if record.Risk == nil {
			return 0, false
		}
		return clampScore(11 - record.Risk.OverallRiskScore), true

	case models.TaskValuation:
		// Map upside percentage onto the score scale: fairly valued sits at
		// 5, every 10% of upside adds a point.
		if record.Valuation == nil {
			return 0, false
		}
		return clampScore(5 + record.Valuation.UpsideDownside/10), true

	case models.TaskManagement:
		if record.Management == nil {
			return 0, false
		}
		return (float64(record.Management.ManagementQuality) + float64(record.Management.CorporateGovernance)) / 2, true

	case models.TaskIndustry:
		if record.Industry == nil {
			return 0, false
		}
		switch record.Industry.IndustryOutlook {
		case "Growing":
			return 8, true
		case "Stable":
			return 5, true
		default:
			return 2, true
		}
	}

	return 0, false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
