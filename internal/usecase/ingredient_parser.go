package usecase

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/forkcast/nutrition/internal/domain"
)

// Compiled regex patterns for ingredient parsing
var (
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)

	// A mixed number, a simple fraction or a decimal, optionally followed by a range upper bound
	quantityPattern = regexp.MustCompile(
		`^(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+)(?:\s*(?:-|to)\s*(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+))?`,
	)

	digitPattern = regexp.MustCompile(`\d`)
)

// unitAliases maps every accepted unit spelling (lowercase, singular) to its canonical unit
var unitAliases = map[string]string{
	"cup": "cup", "c": "cup",
	"tbsp": "tbsp", "tbs": "tbsp", "tbl": "tbsp", "tablespoon": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp",
	"g": "g", "gr": "g", "gram": "g", "gramme": "g",
	"kg": "kg", "kilogram": "kg", "kilo": "kg",
	"mg": "mg", "milligram": "mg",
	"oz": "oz", "ounce": "oz",
	"lb": "lb", "pound": "lb",
	"ml": "ml", "milliliter": "ml", "millilitre": "ml",
	"l": "l", "liter": "l", "litre": "l",
	"floz": "fl oz", "fl oz": "fl oz", "fl. oz": "fl oz", "fluid ounce": "fl oz",
	"pint": "pint", "pt": "pint",
	"quart": "quart", "qt": "quart",
	"gallon": "gallon", "gal": "gallon",
	"pinch": "pinch", "pinches": "pinch",
	"dash": "dash", "dashes": "dash",
	"handful": "handful",
}

// qualitativeAmounts is the closed set of leading amount phrases and the unit each implies
var qualitativeAmounts = []struct {
	phrase string
	unit   string
}{
	{"a pinch", "pinch"},
	{"a dash", "dash"},
	{"a handful", "handful"},
	{"to taste", ""},
	{"as needed", ""},
}

// vulgarFractions are normalized to ASCII fractions before parsing ("1½" -> "1 1/2")
var vulgarFractions = strings.NewReplacer(
	"½", " 1/2", "⅓", " 1/3", "⅔", " 2/3", "¼", " 1/4", "¾", " 3/4",
	"⅕", " 1/5", "⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8",
	"⁄", "/",
)

// IngredientParser turns ingredient text into ParsedIngredient values
type IngredientParser struct{}

// NewIngredientParser creates a new ingredient parser
func NewIngredientParser() *IngredientParser {
	return &IngredientParser{}
}

// Normalize converts a caller-supplied RawIngredient into a ParsedIngredient.
// Pre-parsed amount/unit are honored; otherwise the name is parsed as free text.
// Negative amounts and empty names are contract violations.
func (p *IngredientParser) Normalize(raw domain.RawIngredient) (domain.ParsedIngredient, error) {
	if raw.Amount != nil && *raw.Amount < 0 {
		return domain.ParsedIngredient{}, fmt.Errorf("%w: negative amount %v for %q", domain.ErrInvalidIngredient, *raw.Amount, raw.Name)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return domain.ParsedIngredient{}, fmt.Errorf("%w: empty name", domain.ErrInvalidIngredient)
	}

	if raw.Amount == nil && strings.TrimSpace(raw.Unit) == "" {
		return p.Parse(raw.Name)
	}

	text, notes := extractParentheticals(raw.Name)
	name, trailing := cleanIngredientName(text)
	if name == "" {
		return domain.ParsedIngredient{}, fmt.Errorf("%w: empty name after cleanup: %q", domain.ErrInvalidIngredient, raw.Name)
	}

	amount := 1.0
	if raw.Amount != nil && *raw.Amount > 0 {
		amount = *raw.Amount
	}

	unit := strings.ToLower(strings.TrimSpace(raw.Unit))
	if canonical, ok := lookupUnit(unit); ok {
		unit = canonical
	}

	return domain.ParsedIngredient{
		Amount: amount,
		Unit:   unit,
		Name:   name,
		Notes:  joinNotes(notes, trailing),
	}, nil
}

// Parse parses a free-text ingredient line such as "1 1/2 cups flour (sifted)".
// When the amount and unit consume the whole line ("2 cups", "a pinch") the
// unit token becomes the name. It fails only when the text is empty.
func (p *IngredientParser) Parse(text string) (domain.ParsedIngredient, error) {
	text = vulgarFractions.Replace(text)
	text, notes := extractParentheticals(text)
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return domain.ParsedIngredient{}, fmt.Errorf("%w: empty ingredient text", domain.ErrInvalidIngredient)
	}

	result := domain.ParsedIngredient{Amount: 1}
	line := text
	var consumed string

	// No quantity and a comma: "salt, to taste"
	if !digitPattern.MatchString(text) {
		if idx := strings.Index(text, ","); idx > 0 {
			notes = append(notes, strings.TrimSpace(text[idx+1:]))
			text = strings.TrimSpace(text[:idx])
		}
	}

	if phrase, unit, rest, ok := matchQualitative(text); ok {
		result.Qualitative = phrase
		result.Unit = unit
		consumed = strings.TrimPrefix(phrase, "a ")
		text = rest
	} else if amount, rest, ok := matchQuantity(text); ok {
		if amount > 0 {
			result.Amount = amount
		}
		unit, token, afterUnit := matchUnit(rest)
		result.Unit = unit
		consumed = token
		text = afterUnit
	}

	name, trailing := cleanIngredientName(text)
	if name == "" {
		// Nothing left after the amount: fold the unit back into the name
		result.Unit = ""
		name, trailing = cleanIngredientName(consumed)
		if name == "" {
			name, trailing = cleanIngredientName(line)
		}
	}
	if name == "" {
		return domain.ParsedIngredient{}, fmt.Errorf("%w: no ingredient name in %q", domain.ErrInvalidIngredient, line)
	}
	result.Name = name
	result.Notes = joinNotes(notes, trailing)
	return result, nil
}

// SplitIngredientList splits a comma-separated ingredient string, ignoring
// commas inside parentheses: "2 eggs, 1 cup flour (sifted, fine)".
func (p *IngredientParser) SplitIngredientList(text string) []string {
	var (
		items []string
		depth int
		start int
	)
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				items = appendItem(items, text[start:i])
				start = i + 1
			}
		}
	}
	return appendItem(items, text[start:])
}

func appendItem(items []string, item string) []string {
	item = strings.TrimSpace(item)
	if item == "" {
		return items
	}
	return append(items, item)
}

// extractParentheticals removes "(...)" asides and returns them as notes
func extractParentheticals(text string) (string, []string) {
	var notes []string
	for _, m := range parentheticalPattern.FindAllString(text, -1) {
		if note := strings.TrimSpace(m[1 : len(m)-1]); note != "" {
			notes = append(notes, note)
		}
	}
	text = parentheticalPattern.ReplaceAllString(text, " ")
	// An unbalanced "(" starts an aside that runs to the end of the line
	if idx := strings.Index(text, "("); idx >= 0 {
		if note := strings.TrimSpace(text[idx+1:]); note != "" {
			notes = append(notes, note)
		}
		text = text[:idx]
	}
	return strings.TrimSpace(text), notes
}

// matchQualitative strips a leading phrase from the qualitative set plus an optional "of"
func matchQualitative(text string) (phrase, unit, rest string, ok bool) {
	lower := strings.ToLower(text)
	for _, q := range qualitativeAmounts {
		if lower == q.phrase {
			return q.phrase, q.unit, "", true
		}
		if strings.HasPrefix(lower, q.phrase+" ") {
			rest = strings.TrimSpace(text[len(q.phrase):])
			return q.phrase, q.unit, stripOf(rest), true
		}
	}
	return "", "", "", false
}

// matchQuantity parses a leading quantity with rational arithmetic. A range
// ("2-3", "2 to 3") resolves to its midpoint.
func matchQuantity(text string) (float64, string, bool) {
	m := quantityPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, text, false
	}

	low, ok := parseRational(text[m[2]:m[3]])
	if !ok {
		return 0, text, false
	}
	if m[4] >= 0 {
		if high, ok := parseRational(text[m[4]:m[5]]); ok {
			low.Add(low, high)
			low.Quo(low, big.NewRat(2, 1))
		}
	}

	amount, _ := low.Float64()
	return amount, strings.TrimSpace(text[m[1]:]), true
}

// parseRational parses "3", "1.5", "3/4" or "1 1/2" into an exact rational
func parseRational(s string) (*big.Rat, bool) {
	parts := strings.Fields(s)
	total := new(big.Rat)
	for _, part := range parts {
		r, ok := new(big.Rat).SetString(part)
		if !ok {
			return nil, false
		}
		total.Add(total, r)
	}
	return total, len(parts) > 0
}

// matchUnit checks the tokens right after a quantity against the unit vocabulary.
// It returns the canonical unit, the token as written and the remaining text.
// Unknown tokens stay part of the name.
func matchUnit(text string) (unit, token, rest string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", ""
	}

	if len(fields) >= 2 {
		token = fields[0] + " " + fields[1]
		if unit, ok := lookupUnit(token); ok {
			return unit, token, stripOf(strings.Join(fields[2:], " "))
		}
	}
	if unit, ok := lookupUnit(fields[0]); ok {
		return unit, fields[0], stripOf(strings.Join(fields[1:], " "))
	}
	return "", "", strings.Join(fields, " ")
}

// lookupUnit resolves a unit token case-insensitively with an optional trailing "s"
func lookupUnit(token string) (string, bool) {
	token = strings.TrimRight(strings.ToLower(strings.TrimSpace(token)), ".")
	if token == "" {
		return "", false
	}
	if unit, ok := unitAliases[token]; ok {
		return unit, true
	}
	if strings.HasSuffix(token, "s") {
		if unit, ok := unitAliases[strings.TrimSuffix(token, "s")]; ok {
			return unit, true
		}
	}
	return "", false
}

func stripOf(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 3 && strings.EqualFold(text[:3], "of ") {
		return strings.TrimSpace(text[3:])
	}
	return text
}

// cleanIngredientName collapses whitespace, trims stray punctuation and moves
// any text after the first comma into the trailing description
func cleanIngredientName(text string) (string, string) {
	var trailing string
	if idx := strings.Index(text, ","); idx >= 0 {
		trailing = strings.Trim(strings.TrimSpace(text[idx+1:]), ",;:- ")
		text = text[:idx]
	}
	name := strings.Join(strings.Fields(text), " ")
	name = strings.Trim(name, ",;:-. ")
	return name, trailing
}

func joinNotes(notes []string, extra string) string {
	if extra != "" {
		notes = append(notes, extra)
	}
	return strings.Join(notes, "; ")
}
