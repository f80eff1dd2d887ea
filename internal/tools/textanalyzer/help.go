package textanalyzer

import (
	"github.com/lumenkit/creative-toolkit/internal/tools"
)

// ProvideExtendedInfo provides detailed usage information for the text_analyzer tool
func (t *TextAnalyzer) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		WhenToUse:    "Use when reviewing an article or landing page draft for search: checking whether target keywords appear often enough, spotting related terms, seeing how headings are structured and getting a rough readability and SEO score. audit_html finds images without alt text in HTML content.",
		WhenNotToUse: "Don't use for grammar or spelling checks, for rewriting text, or as a substitute for a real search ranking tool. Scores are heuristics tuned for Chinese and English prose.",
		CommonPatterns: []string{
			"Check a draft against target keywords: {\"action\": \"analyse\", \"file_path\": \"/docs/post.md\", \"keywords\": \"coffee, espresso\"}",
			"Let the tool pick keywords: omit keywords and read keyword_density for the five most frequent terms",
			"Before publishing HTML: {\"action\": \"audit_html\", \"text\": \"<p>...</p>\"} and add alt text to every entry in missing_alt_images",
		},
		ParameterDetails: map[string]string{
			"keywords":    "Comma separated, full-width commas accepted. Matching is case-insensitive substring matching, so \"cat\" also counts inside \"category\".",
			"density":     "Occurrences times keyword length over the total character count, as a percentage. 2-4% scores best.",
			"headings":    "Recognised title lines: '# ', '## ', '### ', [h1]-[h6] tags, 【title】, 一、 style markers, '1. ', 'A. ', 'a. ', '1) ', 'A) ', 'a) ' and '(1) '.",
			"readability": "Starts at 100 and loses points for long sentences and long paragraphs; clamped to 20-100.",
			"seo_score":   "Weighted from keyword density (30), related keywords (20), headings (20), readability (20) and length (10). Density, related keywords and headings only count when present.",
		},
		Examples: []tools.ToolExample{
			{
				Description: "Analyse a short note",
				Arguments: map[string]any{
					"action":   "analyse",
					"text":     "# Brewing coffee\n\nGood coffee needs fresh beans.",
					"keywords": "coffee",
				},
				ExpectedResult: `{"word_count": 7, "keyword_density": [{"keyword": "coffee", "density": 25, "count": 2}], "headings": [{"level": 1, "text": "Brewing coffee"}], ...}`,
			},
			{
				Description: "Audit embedded HTML",
				Arguments: map[string]any{
					"action": "audit_html",
					"text":   `<img src="a.png"><a href="/x">x</a>`,
				},
				ExpectedResult: `{"cleaned": "<img src=\"a.png\"><a target=\"_blank\" href=\"/x\" rel=\"noopener noreferrer\">x</a>", "missing_alt_images": ["image 1: <img src=\"a.png\">"], "links_rewritten": 1}`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "keyword_density is empty",
				Solution: "Every candidate term was a stop word or a single character. Pass keywords explicitly.",
			},
			{
				Problem:  "A sentence was reported as a heading",
				Solution: "Lines starting with a single letter and a dot, such as 'A. ', are read as outline markers.",
			},
		},
	}
}
