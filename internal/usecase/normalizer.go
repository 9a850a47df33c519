package usecase

import (
	"log"
	"regexp"
	"strings"
	"unicode"
)

// Limits applied to derived fields
const (
	maxProductNameLength = 40
	maxRequirements      = 8
	maxKeywords          = 20

	// fallbackProductName is used when nothing usable survives cleaning
	fallbackProductName = "Product"
)

// Normalizer turns free-form captured text into a clean product name,
// a requirement list, and the matching signals (keywords, categories).
// Every derivation is deterministic: the same input always produces the
// same output, which the history store relies on for dedup.
type Normalizer struct {
	enableDebugLogging bool
}

// Compiled regex patterns for text normalization
var (
	// Matches leading action/question phrases like "i'm looking for", "can you recommend"
	leadingIntentPattern = regexp.MustCompile(`^(?:(?:hey|hi|hello|ok|okay)[,!\s]+|please\s+|can\s+you\s+|could\s+you\s+|i'?m\s+|i\s+am\s+|i\s+)*(?:help\s+me\s+(?:find|choose|pick)|what(?:'s|\s+is|\s+are)\s+(?:the\s+)?best|would\s+like\s+to\s+buy|want\s+to\s+buy|wanna\s+buy|looking\s+for|searching\s+for|shopping\s+for|in\s+the\s+market\s+for|interested\s+in|thinking\s+about\s+buying|list\s+and\s+rank|recommend(?:\s+me)?|suggest(?:\s+me)?|show\s+me|find\s+me|get\s+me|need|want|find|buy|rank|list|compare|the\s+best|best)\s+`)

	// Matches leading articles and filler left over after intent stripping
	leadingArticlePattern = regexp.MustCompile(`^(?:(?:a|an|the|some|any|good|new)\s+)+`)

	// Matches trailing qualifiers like "under $100", "for camping", "with long battery life"
	trailingQualifierPattern = regexp.MustCompile(`\s+(?:under|below|less\s+than|around|about|up\s+to|for|with|without|that|which)\s+.*$`)

	// Matches a budget ceiling like "under $500", "less than 300 dollars"
	budgetPattern = regexp.MustCompile(`(?:under|below|less\s+than|budget\s*(?:of|is|:)?\s*|max(?:imum)?\s*(?:of|:)?\s*|around|about|up\s+to)\s*\$?\s*(\d[\d,]*(?:\.\d{1,2})?k?)\s*(?:dollars?|bucks|usd)?`)

	// Matches exclusion phrases like "no leather", "without wires"
	exclusionPattern = regexp.MustCompile(`\b(?:no|without)\s+([a-z][\w-]*(?:\s+[a-z][\w-]*)?)`)

	// Matches inclusion phrases like "with bluetooth", "must have usb-c", "needs good battery life"
	inclusionPattern = regexp.MustCompile(`\b(?:with|must\s+have|needs?(?:\s+to\s+have)?|should\s+have|including|featuring)\s+(?:(?:a|an|the|some)\s+)?([a-z0-9][\w-]*(?:\s+[a-z0-9][\w-]*){0,2})`)

	// Matches lowercase word tokens of 3+ letters
	keywordTokenPattern = regexp.MustCompile(`[a-z]{3,}`)

	// Multiple spaces cleanup
	spacePattern = regexp.MustCompile(`\s+`)
)

// inclusionSkipWords reject captured inclusion items that are pronouns or
// filler rather than a feature ("need it for work" must not become "with it")
var inclusionSkipWords = map[string]bool{
	"it":   true,
	"them": true,
	"this": true,
	"that": true,
	"one":  true,
	"to":   true,
	"my":   true,
	"your": true,
}

// connectiveWords end a captured requirement item; the regex captures
// greedily and would otherwise swallow "and"/"no" from a following clause
var connectiveWords = map[string]bool{
	"and":     true,
	"or":      true,
	"no":      true,
	"not":     true,
	"with":    true,
	"without": true,
	"but":     true,
	"for":     true,
	"under":   true,
	"that":    true,
	"which":   true,
	"please":  true,
}

// stopWords excluded from derived keywords
var stopWords = map[string]bool{
	// Articles, conjunctions, prepositions
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"that": true, "this": true, "these": true, "those": true, "into": true,
	"about": true, "under": true, "over": true, "after": true, "before": true,
	"between": true, "out": true, "off": true, "than": true, "then": true,
	"there": true, "here": true, "where": true, "when": true, "what": true,
	"which": true, "who": true, "how": true, "why": true, "also": true,
	"but": true, "not": true, "all": true, "any": true, "its": true,

	// Pronouns and auxiliaries
	"you": true, "your": true, "they": true, "them": true, "their": true,
	"his": true, "her": true, "our": true, "has": true, "have": true,
	"had": true, "was": true, "were": true, "are": true, "will": true,
	"would": true, "could": true, "should": true, "can": true, "been": true,
	"being": true, "does": true, "did": true, "doing": true,

	// Shopping filler that never narrows a match
	"want": true, "need": true, "buy": true, "get": true, "find": true,
	"looking": true, "searching": true, "shopping": true, "best": true,
	"good": true, "great": true, "nice": true, "really": true, "very": true,
	"just": true, "like": true, "some": true, "please": true, "help": true,
	"recommend": true, "suggest": true, "show": true, "something": true,
	"anything": true, "budget": true, "price": true, "dollars": true,
	"bucks": true, "usd": true, "thanks": true, "thank": true,
}

// qualityVocabulary holds feature phrases recognized as standalone
// requirements. A slice, not a map: matches must come out in a fixed
// order or derivation stops being deterministic.
var qualityVocabulary = []string{
	"waterproof", "water resistant", "windproof", "wireless", "bluetooth",
	"noise cancelling", "noise canceling", "lightweight", "durable",
	"portable", "compact", "foldable", "rechargeable", "stainless steel",
	"organic", "eco friendly", "hypoallergenic", "ergonomic", "adjustable",
	"breathable", "quiet", "fast charging", "long battery life",
	"touchscreen", "backlit", "cordless", "heavy duty", "non stick",
	"machine washable",
}

// categoryTable maps coarse category tags to trigger substrings.
// Ordered: derived categories follow table order, not input order.
// Triggers are matched as plain substrings of the lowercased text, so
// short or common fragments ("pen", "car", "tea") are deliberately
// avoided in favor of longer forms.
var categoryTable = []struct {
	name     string
	triggers []string
}{
	{"electronics", []string{"laptop", "macbook", "computer", "monitor", "tablet", "television", "smart tv", "charger", "keyboard", "printer", "router", "drone", "smartwatch", "gadget", "electronics", "ssd", "hard drive", "usb", "projector"}},
	{"phones", []string{"smartphone", "iphone", "android", "cell phone", "mobile phone", "galaxy", "phone case"}},
	{"audio", []string{"headphone", "earbud", "earphone", "airpod", "speaker", "soundbar", "microphone", "turntable", "subwoofer"}},
	{"gaming", []string{"gaming", "console", "playstation", "xbox", "nintendo", "controller", "gpu", "graphics card"}},
	{"cameras", []string{"camera", "lens", "gopro", "tripod", "dslr", "mirrorless", "camcorder"}},
	{"appliances", []string{"refrigerator", "fridge", "dishwasher", "microwave", "vacuum", "blender", "toaster", "kettle", "air fryer", "espresso", "coffee maker", "washer", "dryer", "air purifier", "humidifier"}},
	{"kitchen", []string{"kitchen", "cookware", "knife", "skillet", "frying pan", "saucepan", "dutch oven", "cutting board", "utensil", "bakeware", "mug"}},
	{"furniture", []string{"furniture", "desk", "chair", "sofa", "couch", "dining table", "coffee table", "bookshelf", "dresser", "cabinet", "bed frame", "nightstand", "ottoman"}},
	{"bedding", []string{"mattress", "pillow", "duvet", "comforter", "blanket", "bedding", "bed sheets"}},
	{"clothing", []string{"shirt", "jacket", "hoodie", "pants", "jeans", "dress", "sweater", "clothing", "apparel", "sock", "underwear", "shorts", "skirt", "coat", "leggings"}},
	{"footwear", []string{"shoe", "sneaker", "boots", "sandal", "loafer", "high heels", "footwear", "slipper", "cleats"}},
	{"accessories", []string{"backpack", "wallet", "handbag", "purse", "sunglasses", "luggage", "suitcase", "umbrella", "scarf", "belt", "watch", "gloves"}},
	{"sports", []string{"bike", "bicycle", "tennis", "golf", "basketball", "soccer", "snowboard", "skateboard", "surfboard", "racket", "skiing", "skis", "helmet"}},
	{"fitness", []string{"fitness", "dumbbell", "kettlebell", "treadmill", "yoga", "workout", "exercise", "protein", "resistance band"}},
	{"outdoors", []string{"camping", "hiking", "sleeping bag", "backpacking", "outdoor", "fishing", "grill", "cooler", "kayak", "binoculars", "hammock", "flashlight"}},
	{"beauty", []string{"makeup", "skincare", "shampoo", "moisturizer", "serum", "perfume", "cosmetic", "lipstick", "sunscreen"}},
	{"health", []string{"vitamin", "supplement", "thermometer", "first aid", "massager", "blood pressure", "humidifier"}},
	{"books", []string{"novel", "paperback", "hardcover", "textbook", "audiobook", "kindle", "ereader", "e-reader"}},
	{"toys", []string{"lego", "puzzle", "board game", "action figure", "plush", "toddler toy", "building blocks"}},
	{"baby", []string{"baby", "stroller", "crib", "diaper", "car seat", "infant", "toddler"}},
	{"pets", []string{"dog", "kitten", "puppy", "leash", "litter box", "aquarium", "pet food", "cat food", "cat tree"}},
	{"automotive", []string{"automotive", "tires", "motorcycle", "dash cam", "windshield", "sedan", "suv", "truck"}},
	{"tools", []string{"drill", "screwdriver", "toolbox", "wrench", "hammer", "power tool", "circular saw", "chainsaw", "workbench"}},
	{"garden", []string{"garden", "lawn", "mower", "planter", "seeds", "pruning", "trellis"}},
	{"office", []string{"office", "stationery", "stapler", "whiteboard", "notebook", "shredder"}},
	{"grocery", []string{"grocery", "coffee", "green tea", "snack", "chocolate", "wine", "beer", "cereal"}},
	{"jewelry", []string{"jewelry", "jewellery", "necklace", "bracelet", "earring", "diamond", "gemstone", "engagement ring", "wedding ring"}},
	{"music", []string{"guitar", "piano", "violin", "ukulele", "drum kit", "synthesizer"}},
}

// NewNormalizer creates a new text normalizer
func NewNormalizer(enableDebugLogging bool) *Normalizer {
	return &Normalizer{
		enableDebugLogging: enableDebugLogging,
	}
}

// DeriveProductName converts a raw research query into a short,
// title-cased display name of at most 40 characters
func (n *Normalizer) DeriveProductName(query string) string {
	cleaned := strings.ToLower(strings.TrimSpace(query))

	// Step 1: strip leading intent phrases, twice, since they stack
	// ("can you list and rank the best laptops")
	for i := 0; i < 2; i++ {
		cleaned = leadingIntentPattern.ReplaceAllString(cleaned, "")
		cleaned = leadingArticlePattern.ReplaceAllString(cleaned, "")
	}

	// Step 2: everything after the first comma is a qualifier
	if idx := strings.Index(cleaned, ","); idx >= 0 {
		cleaned = cleaned[:idx]
	}

	// Step 3: strip trailing qualifiers ("under $100", "for camping")
	cleaned = trailingQualifierPattern.ReplaceAllString(cleaned, "")

	// Step 4: normalize whitespace and stray punctuation
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " ?!.:;-")

	// Step 5: title-case
	name := titleCase(cleaned)

	// Step 6: truncate at a word boundary, never mid-word
	if len(name) > maxProductNameLength {
		cut := name[:maxProductNameLength]
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			name = cut[:idx]
		} else {
			name = ""
		}
	}

	if name == "" {
		name = fallbackProductName
	}

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] Product name: %q -> %q", query, name)
	}

	return name
}

// DeriveRequirements extracts short requirement strings from captured text:
// budget ceiling first, then exclusions, inclusions, and known quality
// phrases. Deduplicated in first-seen order, capped at 8.
func (n *Normalizer) DeriveRequirements(text string) []string {
	lowered := strings.ToLower(text)

	// Leading intent phrases belong to the product name, not the
	// requirements ("i need a laptop" is not "with laptop")
	for i := 0; i < 2; i++ {
		lowered = leadingIntentPattern.ReplaceAllString(lowered, "")
	}

	reqs := make([]string, 0, maxRequirements)
	seen := make(map[string]bool)
	add := func(r string) {
		r = strings.TrimSpace(spacePattern.ReplaceAllString(r, " "))
		if r == "" || seen[r] || len(reqs) >= maxRequirements {
			return
		}
		seen[r] = true
		reqs = append(reqs, r)
	}

	// Budget ceiling: first match only
	if m := budgetPattern.FindStringSubmatch(lowered); m != nil {
		add("under $" + m[1])
	}

	// Exclusions: "no leather", "without wires"
	for _, m := range exclusionPattern.FindAllStringSubmatch(lowered, -1) {
		if item := trimAtConnective(m[1]); item != "" {
			add("no " + item)
		}
	}

	// Inclusions: "with bluetooth", "must have usb-c"
	for _, m := range inclusionPattern.FindAllStringSubmatch(lowered, -1) {
		item := trimAtConnective(m[1])
		if item == "" || inclusionSkipWords[strings.SplitN(item, " ", 2)[0]] {
			continue
		}
		add("with " + item)
	}

	// Known quality phrases; hyphens fold to spaces so "eco-friendly" matches
	dehyphenated := strings.ReplaceAll(lowered, "-", " ")
	for _, q := range qualityVocabulary {
		if containsPhrase(dehyphenated, q) {
			add(q)
		}
	}

	return reqs
}

// DeriveKeywords extracts up to 20 significant lowercase words used as a
// fallback matching signal
func (n *Normalizer) DeriveKeywords(text string) []string {
	tokens := keywordTokenPattern.FindAllString(strings.ToLower(text), -1)

	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]bool)
	for _, token := range tokens {
		if stopWords[token] || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
		if len(keywords) >= maxKeywords {
			break
		}
	}

	return keywords
}

// DeriveCategories returns every category whose trigger substring appears
// in the lowercased text. Order follows the category table, not the input.
func (n *Normalizer) DeriveCategories(text string) []string {
	lowered := strings.ToLower(text)

	var categories []string
	for _, entry := range categoryTable {
		for _, trigger := range entry.triggers {
			if strings.Contains(lowered, trigger) {
				categories = append(categories, entry.name)
				break
			}
		}
	}

	return categories
}

// titleCase capitalizes the first letter of every word
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// trimAtConnective cuts a captured item at the first connective word
func trimAtConnective(item string) string {
	words := strings.Fields(item)
	for i, word := range words {
		if connectiveWords[word] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

// containsPhrase reports whether phrase occurs in text on word boundaries
// (plain substring matching would let "durable" match "endurable")
func containsPhrase(text, phrase string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		begin := start + idx
		end := begin + len(phrase)
		beforeOK := begin == 0 || !isWordByte(text[begin-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = begin + 1
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
