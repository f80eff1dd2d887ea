package textanalyzer

// Action selects what text_analyzer computes
type Action string

const (
	ActionAnalyse   Action = "analyse"
	ActionAuditHTML Action = "audit_html"
)

// AnalyseRequest represents the parsed parameters of one text_analyzer call
type AnalyseRequest struct {
	Action   Action
	Text     string
	FilePath string
	// Keywords are the caller's target keywords; when empty the most frequent terms are used
	Keywords []string
}

// KeywordDensity is how much of the text one keyword covers
type KeywordDensity struct {
	Keyword string `json:"keyword"`
	// Density is the percentage of characters taken up by occurrences, to one decimal
	Density float64 `json:"density"`
	Count   int     `json:"count"`
}

// RelatedKeyword is a frequent term that is not one of the main keywords
type RelatedKeyword struct {
	Keyword string `json:"keyword"`
	// Relevance is the term's share of all tokens as a percentage, to one decimal
	Relevance float64 `json:"relevance"`
}

// Heading is a line recognised as a title
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// TitleStructure summarises the headings found
type TitleStructure struct {
	HasTitle           bool    `json:"has_title"`
	TitleCount         int     `json:"title_count"`
	AverageTitleLength float64 `json:"average_title_length"`
}

// Readability is a 20-100 score where higher reads more easily
type Readability struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// Analysis is the full report for one text
type Analysis struct {
	WordCount       int              `json:"word_count"`
	CharCount       int              `json:"char_count"`
	ParagraphCount  int              `json:"paragraph_count"`
	KeywordDensity  []KeywordDensity `json:"keyword_density"`
	RelatedKeywords []RelatedKeyword `json:"related_keywords"`
	Headings        []Heading        `json:"headings"`
	TitleStructure  TitleStructure   `json:"title_structure"`
	Readability     Readability      `json:"readability"`
	SEOScore        float64          `json:"seo_score"`
}

// HTMLAudit is the result of audit_html
type HTMLAudit struct {
	// Cleaned is the input with every link opening in a new tab with rel="noopener noreferrer"
	Cleaned          string   `json:"cleaned"`
	MissingAltImages []string `json:"missing_alt_images"`
	LinksRewritten   int      `json:"links_rewritten"`
}
