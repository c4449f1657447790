// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// sourceWeights maps source quality to a base confidence multiplier.
var sourceWeights = map[types.SourceType]float64{
	types.SourcePDFPrimary:   1.0,
	types.SourcePDFSecondary: 1.0,
	types.SourceMetadataOnly: 0.5,
	types.SourceUnavailable:  0.3,
}

// ConfidenceInput carries the signals the scorer weighs for one turn.
type ConfidenceInput struct {
	SourceType      types.SourceType
	RetrievalScores []float64
	AnswerLength    int
	QuestionLength  int
	ChunksUsed      int
}

// Confidence scores a generated answer from 0 to 100. Full-text
// answers weigh retrieval quality heaviest; metadata-only answers lean
// on source quality and completeness since retrieval over a single
// synthetic chunk says little.
func Confidence(in ConfidenceInput) int {
	weight, ok := sourceWeights[in.SourceType]
	if !ok {
		weight = 0.3
	}
	sourceScore := weight * 100

	var retrievalScore float64
	if len(in.RetrievalScores) > 0 {
		var sum float64
		for _, s := range in.RetrievalScores {
			sum += s
		}
		retrievalScore = sum / float64(len(in.RetrievalScores)) * 100
		if retrievalScore > 100 {
			retrievalScore = 100
		}
	} else if !in.SourceType.FullText() {
		retrievalScore = 50
	}

	var completenessScore float64
	if in.AnswerLength > 0 && in.QuestionLength > 0 {
		ratio := float64(in.AnswerLength) / float64(in.QuestionLength)
		switch {
		case ratio >= 5 && ratio <= 30:
			completenessScore = 100
		case ratio < 5:
			completenessScore = ratio * 20
		default:
			completenessScore = 100 - (ratio-30)*2
			if completenessScore < 50 {
				completenessScore = 50
			}
		}
	}

	var chunkScore float64
	if in.ChunksUsed > 0 {
		chunkScore = float64(in.ChunksUsed) * 20
		if chunkScore > 100 {
			chunkScore = 100
		}
	}

	var final float64
	switch {
	case in.SourceType.FullText():
		final = sourceScore*0.3 + retrievalScore*0.4 + completenessScore*0.2 + chunkScore*0.1
	case in.SourceType == types.SourceMetadataOnly:
		final = sourceScore*0.4 + completenessScore*0.4 + retrievalScore*0.2
	default:
		final = sourceScore*0.5 + completenessScore*0.5
	}

	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	return int(final)
}

// ConfidenceLabel maps a score to its human-readable band.
func ConfidenceLabel(score int) string {
	switch {
	case score >= 80:
		return "High Confidence"
	case score >= 60:
		return "Medium-High Confidence"
	case score >= 40:
		return "Medium Confidence"
	case score >= 20:
		return "Low-Medium Confidence"
	default:
		return "Low Confidence"
	}
}

// needsDisclaimer reports whether an answer should carry a caveat
// about its grounding.
func needsDisclaimer(score int, sourceType types.SourceType) bool {
	if !sourceType.FullText() {
		return true
	}
	return score < 40
}
