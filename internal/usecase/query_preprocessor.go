package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// QueryPreprocessor cleans ingredient names before they are sent to the food search
type QueryPreprocessor struct {
	logger             *zap.Logger
	enableDebugLogging bool
}

// Compiled regex patterns for query preprocessing
var (
	// Leftover measured quantities such as "140 g" or "12 oz"
	leftoverQuantityPattern = regexp.MustCompile(`\b\d+(?:[./]\d+)?\s*(?:g|kg|mg|oz|lbs?|ml|cups?|tbsp|tsp)\b`)

	// Any "(...)" aside
	queryParentheticalPattern = regexp.MustCompile(`\([^)]*\)`)

	// Lone punctuation left after removals
	orphanedPunctuationPattern = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	edgePunctuationPattern     = regexp.MustCompile(`^[\s,\-;:.]+|[\s,\-;:.]+$`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are cutting, sizing and sourcing descriptors that never
// appear in reference food descriptions. Preparation methods such as "raw",
// "cooked" or "fresh" are scoring signals and are kept.
var queryNoiseWords = map[string]bool{
	// Cutting and handling
	"chopped": true, "diced": true, "minced": true, "sliced": true, "grated": true,
	"shredded": true, "crushed": true, "cubed": true, "julienned": true, "peeled": true,
	"halved": true, "quartered": true, "trimmed": true, "rinsed": true, "drained": true,
	"softened": true, "melted": true, "beaten": true, "divided": true, "packed": true,
	"sifted": true,
	// Adverbs that come with the cut
	"finely": true, "roughly": true, "coarsely": true, "thinly": true, "freshly": true,
	"lightly": true,
	// Size descriptors
	"large": true, "medium": true, "small": true, "jumbo": true, "extra": true,
	// Sourcing and optionality
	"organic": true, "optional": true, "homemade": true, "store-bought": true,
	"about": true, "approximately": true,
}

const maxQueryLength = 100

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *zap.Logger, enableDebugLogging bool) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{
		logger:             logger,
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery cleans an ingredient name for the food search.
// Removes asides, leftover quantities and cutting/sizing descriptors, then
// normalizes case and whitespace. A name made only of noise words is returned
// lowercased instead of emptied.
func (p *QueryPreprocessor) PreprocessQuery(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	original := name
	lowered := strings.ToLower(name)

	// Step 1: Remove parenthetical asides
	cleaned := queryParentheticalPattern.ReplaceAllString(lowered, " ")

	// Step 2: Remove leftover quantities
	cleaned = leftoverQuantityPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Drop everything after the first comma ("onion, diced")
	if idx := strings.Index(cleaned, ","); idx > 0 {
		cleaned = cleaned[:idx]
	}

	// Step 4: Remove noise words
	cleaned = removeNoiseWords(cleaned)

	// Step 5: Clean up punctuation that's now orphaned
	cleaned = orphanedPunctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = edgePunctuationPattern.ReplaceAllString(cleaned, "")

	// Step 6: Normalize whitespace
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))

	if cleaned == "" {
		cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(lowered, " "))
	}

	// Step 7: Limit query length in runes
	if runes := []rune(cleaned); len(runes) > maxQueryLength {
		cleaned = string(runes[:maxQueryLength])
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > len(cleaned)/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	if p.enableDebugLogging {
		p.logger.Debug("preprocessed query", zap.String("input", original), zap.String("output", cleaned))
	}

	return cleaned
}

// removeNoiseWords removes descriptor words that do not narrow a food search
func removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.Trim(word, ",.!?;:'\"")
		if !queryNoiseWords[cleanWord] && !isQuantityToken(cleanWord) {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// isQuantityToken reports whether s is a bare number or fraction ("12", "1/2", "0.5")
func isQuantityToken(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '/' && c != '.' {
			return false
		}
	}
	return true
}
