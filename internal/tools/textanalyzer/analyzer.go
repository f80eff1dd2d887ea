package textanalyzer

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	defaultKeywordLimit = 5
	relatedKeywordLimit = 15
	maxHeadingLength    = 200
)

var (
	tokenPattern     = regexp.MustCompile(`[\x{4e00}-\x{9fa5}a-zA-Z0-9_]+`)
	readableWord     = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]|[a-zA-Z]+`)
	sentenceBreak    = regexp.MustCompile(`[。！？.!?]`)
	paragraphBreak   = regexp.MustCompile(`\n\s*\n`)
	lineBreaks       = regexp.MustCompile(`\n+`)
	keywordSeparator = regexp.MustCompile(`[,，]`)
)

// stopWords are skipped when picking keywords, compared in lower case
var stopWords = map[string]bool{
	"的": true, "了": true, "是": true, "在": true, "我": true, "有": true, "和": true, "就": true,
	"不": true, "人": true, "都": true, "一": true, "一个": true, "上": true, "也": true, "很": true,
	"到": true, "说": true, "要": true, "去": true, "你": true, "会": true, "着": true, "没有": true,
	"看": true, "好": true, "自己": true, "这": true,
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true,
}

type headingPattern struct {
	re    *regexp.Regexp
	level int
	// outline markers such as "1." or "a)" stay part of the heading text
	marker bool
}

// headingPatterns are tried in order; the first match decides the level
var headingPatterns = []headingPattern{
	{re: regexp.MustCompile(`^#\s+(.*)`), level: 1},
	{re: regexp.MustCompile(`^##\s+(.*)`), level: 2},
	{re: regexp.MustCompile(`^###\s+(.*)`), level: 3},
	{re: regexp.MustCompile(`(?i)^\[h(\d)\](.*)`)},
	{re: regexp.MustCompile(`^【(.+)】`), level: 2},
	{re: regexp.MustCompile(`^[一二三四五六七八九十]+、`), level: 2, marker: true},
	{re: regexp.MustCompile(`^\d+\.\s+`), level: 3, marker: true},
	{re: regexp.MustCompile(`^[A-Z]\.\s+`), level: 3, marker: true},
	{re: regexp.MustCompile(`^[a-z]\.\s+`), level: 4, marker: true},
	{re: regexp.MustCompile(`^\d+\)\s+`), level: 4, marker: true},
	{re: regexp.MustCompile(`^[A-Z]\)\s+`), level: 4, marker: true},
	{re: regexp.MustCompile(`^[a-z]\)\s+`), level: 5, marker: true},
	{re: regexp.MustCompile(`^\(\d+\)\s+`), level: 5, marker: true},
}

// Tokenize splits text into runs of CJK ideographs, ASCII letters, digits and underscores
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// ParseKeywords splits a comma separated keyword list, accepting full-width commas
func ParseKeywords(s string) []string {
	var keywords []string
	for _, k := range keywordSeparator.Split(s, -1) {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

type termCount struct {
	term  string
	count int
}

// countTerms tallies tokens in first-seen order, skipping stop words, single characters
// and anything in exclude
func countTerms(tokens []string, exclude map[string]bool) []termCount {
	index := make(map[string]int)
	var counts []termCount
	for _, token := range tokens {
		if stopWords[strings.ToLower(token)] || exclude[token] || utf8.RuneCountInString(token) <= 1 {
			continue
		}
		if i, ok := index[token]; ok {
			counts[i].count++
			continue
		}
		index[token] = len(counts)
		counts = append(counts, termCount{term: token, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	return counts
}

// ExtractKeywords returns up to limit of the most frequent terms. Ties keep the order in
// which the terms first appear.
func ExtractKeywords(tokens []string, limit int) []string {
	counts := countTerms(tokens, nil)
	keywords := make([]string, 0, min(limit, len(counts)))
	for _, c := range counts[:min(limit, len(counts))] {
		keywords = append(keywords, c.term)
	}
	return keywords
}

// CalculateKeywordDensity counts case-insensitive occurrences of each keyword and the
// share of the text's characters they cover, densest first
func CalculateKeywordDensity(text string, keywords []string) []KeywordDensity {
	total := utf8.RuneCountInString(text)
	results := make([]KeywordDensity, 0, len(keywords))
	for _, keyword := range keywords {
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(keyword))
		count := len(re.FindAllStringIndex(text, -1))
		density := 0.0
		if total > 0 {
			density = float64(count*utf8.RuneCountInString(keyword)) / float64(total) * 100
		}
		results = append(results, KeywordDensity{Keyword: keyword, Density: round1(density), Count: count})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Density > results[j].Density })
	return results
}

// ExtractRelatedKeywords returns the most frequent terms other than the main keywords,
// with each term's share of all tokens
func ExtractRelatedKeywords(tokens []string, mainKeywords []string) []RelatedKeyword {
	exclude := make(map[string]bool, len(mainKeywords))
	for _, k := range mainKeywords {
		exclude[k] = true
	}
	counts := countTerms(tokens, exclude)
	related := make([]RelatedKeyword, 0, min(relatedKeywordLimit, len(counts)))
	for _, c := range counts[:min(relatedKeywordLimit, len(counts))] {
		related = append(related, RelatedKeyword{
			Keyword:   c.term,
			Relevance: round1(float64(c.count) / float64(len(tokens)) * 100),
		})
	}
	return related
}

// AnalyseHeadings finds lines that look like titles: markdown hashes, [hN] tags,
// 【】 brackets and numbered or lettered outline markers
func AnalyseHeadings(text string) []Heading {
	var headings []Heading
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, p := range headingPatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			level := p.level
			title := strings.TrimSpace(line)
			switch {
			case p.marker:
			case len(m) == 3:
				level, _ = strconv.Atoi(m[1])
				title = strings.TrimSpace(m[2])
			default:
				title = strings.TrimSpace(m[1])
			}
			if level == 0 {
				level = 2
			}
			level = max(1, min(6, level))

			if n := utf8.RuneCountInString(title); n > 0 && n < maxHeadingLength {
				headings = append(headings, Heading{Level: level, Text: title})
			}
			break
		}
	}
	return headings
}

// SummariseTitles reports how many headings there are and their mean length in characters
func SummariseTitles(headings []Heading) TitleStructure {
	if len(headings) == 0 {
		return TitleStructure{}
	}
	total := 0
	for _, h := range headings {
		total += utf8.RuneCountInString(h.Text)
	}
	return TitleStructure{
		HasTitle:           true,
		TitleCount:         len(headings),
		AverageTitleLength: float64(total) / float64(len(headings)),
	}
}

// CalculateReadability starts at 100 and subtracts log-scaled penalties for long
// sentences and long paragraphs, with small bonuses for mid-length texts. The result
// is clamped to 20-100.
func CalculateReadability(text string) Readability {
	wordCount := len(readableWord.FindAllString(text, -1))
	sentenceCount := max(1, countNonBlank(sentenceBreak.Split(text, -1)))
	paragraphCount := max(1, countNonBlank(paragraphBreak.Split(text, -1)))

	avgSentence := float64(wordCount) / float64(sentenceCount)
	avgParagraph := float64(wordCount) / float64(paragraphCount)

	score := 100.0
	score -= math.Log10(math.Max(1, avgSentence)) * 8
	score -= math.Log10(math.Max(1, avgParagraph/10)) * 5

	switch {
	case wordCount >= 100 && wordCount <= 2000:
		score += 5
	case wordCount > 2000:
		score += 3
	}
	if paragraphCount >= 3 && paragraphCount <= 20 {
		score += 3
	}
	score = math.Max(20, math.Min(100, score))

	return Readability{Score: round1(score), Level: readabilityLevel(score)}
}

func readabilityLevel(score float64) string {
	switch {
	case score >= 90:
		return "very easy"
	case score >= 80:
		return "easy"
	case score >= 70:
		return "fairly easy"
	case score >= 60:
		return "fairly difficult"
	case score >= 45:
		return "difficult"
	}
	return "hard"
}

// CalculateSEOScore weighs keyword density (30), related keywords (20), titles (20),
// readability (20) and length (10). Sections with nothing to measure drop out of the
// total weight, except readability and length which always count.
func CalculateSEOScore(a Analysis) float64 {
	score, weight := 0.0, 0.0

	if len(a.KeywordDensity) > 0 {
		sum := 0.0
		for _, k := range a.KeywordDensity {
			sum += k.Density
		}
		avg := sum / float64(len(a.KeywordDensity))
		switch {
		case avg >= 2 && avg <= 4:
			score += 30
		case avg >= 1 && avg < 2, avg > 4 && avg <= 6:
			score += 20
		default:
			score += 10
		}
		weight += 30
	}

	if len(a.RelatedKeywords) > 0 {
		score += math.Min(float64(len(a.RelatedKeywords))*2, 20)
		weight += 20
	}

	if a.TitleStructure.HasTitle {
		score += 10
		if avg := a.TitleStructure.AverageTitleLength; avg >= 20 && avg <= 60 {
			score += 10
		} else {
			score += 5
		}
		weight += 20
	}

	score += a.Readability.Score / 100 * 20
	weight += 20

	switch words := a.WordCount; {
	case words >= 300 && words <= 1500:
		score += 10
	case words >= 100 && words < 300, words > 1500 && words <= 2500:
		score += 7
	default:
		score += 5
	}
	weight += 10

	return round1(score / weight * 100)
}

// Analyse builds the full report. Without keywords the five most frequent terms stand in.
func Analyse(text string, keywords []string) Analysis {
	tokens := Tokenize(text)
	if len(keywords) == 0 {
		keywords = ExtractKeywords(tokens, defaultKeywordLimit)
	}

	density := CalculateKeywordDensity(text, keywords)
	mainKeywords := make([]string, len(density))
	for i, k := range density {
		mainKeywords[i] = k.Keyword
	}
	headings := AnalyseHeadings(text)

	analysis := Analysis{
		WordCount:       len(tokens),
		CharCount:       utf8.RuneCountInString(text),
		ParagraphCount:  countNonBlank(lineBreaks.Split(text, -1)),
		KeywordDensity:  density,
		RelatedKeywords: ExtractRelatedKeywords(tokens, mainKeywords),
		Headings:        headings,
		TitleStructure:  SummariseTitles(headings),
		Readability:     CalculateReadability(text),
	}
	analysis.SEOScore = CalculateSEOScore(analysis)
	return analysis
}

func countNonBlank(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
