package service

import (
	"math/rand"
	"strings"
	"time"

	"github.com/liliang-cn/docchat/internal/config"
	"github.com/liliang-cn/docchat/internal/domain"
	"go.uber.org/zap"
)

// cannedResponse is one entry in the static response catalog: a full answer
// body with inline [N] citation markers, the citations those markers refer
// to, and the UI components streamed ahead of the text.
type cannedResponse struct {
	Topic        string
	Body         string
	Citations    []domain.Citation
	UIComponents []domain.UIComponent
}

// Keyword sets checked in priority order: climate first, then technology,
// then the default fallback. Matching is case-insensitive substring.
var (
	climateKeywords = []string{"climate", "environment", "carbon", "renewable", "temperature"}
	techKeywords    = []string{"ai", "technology", "machine learning", "artificial", "software"}
)

// toolScript is the fixed sequence of simulated reasoning steps. Each entry
// is emitted once as running and once as completed.
var toolScript = []domain.ToolCall{
	{Tool: "thinking", Status: domain.ToolStatusRunning, Message: "Analyzing your question..."},
	{Tool: "searching_documents", Status: domain.ToolStatusRunning, Message: "Searching through available documents..."},
	{Tool: "retrieving_pdf", Status: domain.ToolStatusRunning, Message: "Retrieving relevant PDF sections..."},
	{Tool: "analyzing_content", Status: domain.ToolStatusRunning, Message: "Analyzing content for relevant information..."},
	{Tool: "generating_response", Status: domain.ToolStatusRunning, Message: "Generating comprehensive response..."},
}

func relevance(v float64) *float64 { return &v }

var cannedResponses = []cannedResponse{
	{
		Topic: "climate",
		Body: `Based on my analysis of the documents, I can provide you with comprehensive information about climate change.

According to the research data [1], global temperatures have risen significantly over the past century. The evidence shows an increase of approximately 1.1°C since the pre-industrial era, which is primarily attributed to human activities such as burning fossil fuels and deforestation.

Studies indicate [2] that renewable energy adoption is accelerating worldwide. Solar and wind power capacity has grown by over 45% in the last five years, making clean energy increasingly cost-competitive with traditional fossil fuels.

The data analysis reveals [3] that carbon reduction efforts are showing positive results in several regions. Countries implementing comprehensive climate policies have achieved measurable decreases in their carbon footprints, demonstrating that effective action is possible.`,
		Citations: []domain.Citation{
			{
				ID:             1,
				Document:       "climate_research.pdf",
				Page:           3,
				TextSnippet:    "Global average temperatures have increased by approximately 1.1°C since the pre-industrial era, with the rate of warming accelerating in recent decades.",
				RelevanceScore: relevance(0.95),
			},
			{
				ID:             2,
				Document:       "climate_research.pdf",
				Page:           7,
				TextSnippet:    "Renewable energy capacity has grown exponentially, with solar and wind power installations increasing by 45% over the past five years.",
				RelevanceScore: relevance(0.88),
			},
			{
				ID:             3,
				Document:       "climate_research.pdf",
				Page:           12,
				TextSnippet:    "Countries with comprehensive climate policies have achieved significant reductions in carbon emissions, proving the effectiveness of coordinated action.",
				RelevanceScore: relevance(0.82),
			},
		},
		UIComponents: []domain.UIComponent{
			{
				Type: "info_card",
				Data: map[string]any{
					"title": "Climate Statistics",
					"icon":  "🌡️",
					"items": []any{
						map[string]any{"label": "Temperature Rise", "value": "+1.1°C"},
						map[string]any{"label": "Renewable Growth", "value": "+45%"},
						map[string]any{"label": "Policy Adoption", "value": "142 countries"},
					},
				},
			},
			{
				Type: "stat_card",
				Data: map[string]any{
					"label":  "Carbon Emissions Reduced",
					"value":  "12.5 GT",
					"change": -8,
					"icon":   "📉",
				},
			},
		},
	},
	{
		Topic: "technology",
		Body: `I've analyzed the available documents to answer your question about artificial intelligence and technology trends.

The research indicates [1] that machine learning models have achieved remarkable progress in recent years. Deep learning architectures have revolutionized fields from natural language processing to computer vision, enabling capabilities that were previously thought impossible.

According to industry analysis [2], the adoption of AI in enterprise applications is growing rapidly. Companies are increasingly leveraging AI for automation, decision-making, and customer experience enhancement, with projected market growth exceeding $500 billion by 2025.

Technical documentation shows [3] that responsible AI development is becoming a key focus area. Organizations are implementing governance frameworks to ensure ethical AI deployment, addressing concerns around bias, transparency, and accountability.`,
		Citations: []domain.Citation{
			{
				ID:             1,
				Document:       "ai_technology.pdf",
				Page:           5,
				TextSnippet:    "Deep learning models have achieved breakthrough performance across multiple domains, with transformer architectures enabling unprecedented capabilities in language understanding.",
				RelevanceScore: relevance(0.92),
			},
			{
				ID:             2,
				Document:       "ai_technology.pdf",
				Page:           15,
				TextSnippet:    "Enterprise AI adoption is projected to grow at a CAGR of 38%, with the global market expected to exceed $500 billion by 2025.",
				RelevanceScore: relevance(0.85),
			},
			{
				ID:             3,
				Document:       "ai_technology.pdf",
				Page:           22,
				TextSnippet:    "Responsible AI frameworks are being adopted by leading organizations to ensure ethical deployment, with focus on bias mitigation and transparency.",
				RelevanceScore: relevance(0.79),
			},
		},
		UIComponents: []domain.UIComponent{
			{
				Type: "data_table",
				Data: map[string]any{
					"title":   "AI Market Growth",
					"headers": []any{"Year", "Market Size", "Growth %"},
					"rows": []any{
						[]any{"2023", "$150B", "+32%"},
						[]any{"2024", "$210B", "+40%"},
						[]any{"2025", "$500B", "+138%"},
					},
				},
			},
			{
				Type: "progress_card",
				Data: map[string]any{
					"label":   "AI Adoption Rate",
					"current": 72,
					"total":   100,
					"unit":    "%",
				},
			},
		},
	},
	{
		Topic: "default",
		Body: `Thank you for your question. I've searched through the available documents to provide you with relevant information.

Based on my research [1], I found several key insights that address your query. The documentation provides comprehensive coverage of this topic with detailed explanations and examples.

Further analysis [2] reveals additional context that may be helpful. The sources contain well-documented information that supports the main findings and provides deeper understanding.

The evidence suggests [3] that there are multiple perspectives to consider. Review of the materials indicates thorough research has been conducted on this subject matter.`,
		Citations: []domain.Citation{
			{
				ID:             1,
				Document:       "research_paper.pdf",
				Page:           2,
				TextSnippet:    "This comprehensive study examines the key factors and provides detailed analysis of the subject matter with supporting evidence.",
				RelevanceScore: relevance(0.88),
			},
			{
				ID:             2,
				Document:       "research_paper.pdf",
				Page:           8,
				TextSnippet:    "Additional research supports these findings, with multiple studies confirming the primary conclusions and extending the analysis.",
				RelevanceScore: relevance(0.82),
			},
			{
				ID:             3,
				Document:       "research_paper.pdf",
				Page:           14,
				TextSnippet:    "The evidence base for these conclusions is robust, with peer-reviewed sources providing validation of the key findings.",
				RelevanceScore: relevance(0.75),
			},
		},
		UIComponents: []domain.UIComponent{
			{
				Type: "info_card",
				Data: map[string]any{
					"title": "Research Summary",
					"icon":  "📚",
					"items": []any{
						map[string]any{"label": "Documents Analyzed", "value": 3},
						map[string]any{"label": "Key Findings", "value": 12},
						map[string]any{"label": "Confidence Score", "value": "85%"},
					},
				},
			},
		},
	},
}

// ResponseService selects canned responses and streams them as protocol
// events simulating phased generation.
type ResponseService struct {
	charDelay     time.Duration
	toolDelayMin  time.Duration
	toolDelayMax  time.Duration
	toolPause     time.Duration
	uiDelay       time.Duration
	citationDelay time.Duration

	// toolDelay is the duration provider for simulated tool execution;
	// replaceable so tests can run without real sleeps.
	toolDelay func() time.Duration

	logger *zap.Logger
}

// NewResponseService creates a new response service
func NewResponseService(cfg *config.Config, logger *zap.Logger) *ResponseService {
	s := &ResponseService{
		charDelay:     time.Duration(cfg.Stream.CharDelayMs) * time.Millisecond,
		toolDelayMin:  time.Duration(cfg.Stream.ToolDelayMinMs) * time.Millisecond,
		toolDelayMax:  time.Duration(cfg.Stream.ToolDelayMaxMs) * time.Millisecond,
		toolPause:     time.Duration(cfg.Stream.ToolPauseMs) * time.Millisecond,
		uiDelay:       time.Duration(cfg.Stream.UIDelayMs) * time.Millisecond,
		citationDelay: time.Duration(cfg.Stream.CitationDelayMs) * time.Millisecond,
		logger:        logger,
	}
	s.toolDelay = s.randomToolDelay
	return s
}

// randomToolDelay draws a uniform duration from the closed interval
// [toolDelayMin, toolDelayMax]
func (s *ResponseService) randomToolDelay() time.Duration {
	if s.toolDelayMax <= s.toolDelayMin {
		return s.toolDelayMin
	}
	return s.toolDelayMin + time.Duration(rand.Int63n(int64(s.toolDelayMax-s.toolDelayMin)+1))
}

// selectResponse picks a canned response by keyword match. Climate keywords
// take priority over technology keywords; anything else falls through to the
// default response.
func selectResponse(query string) *cannedResponse {
	q := strings.ToLower(query)

	for _, kw := range climateKeywords {
		if strings.Contains(q, kw) {
			return &cannedResponses[0]
		}
	}
	for _, kw := range techKeywords {
		if strings.Contains(q, kw) {
			return &cannedResponses[1]
		}
	}
	return &cannedResponses[2]
}

// completedToolMessage derives the completed-status message from the running
// one: trailing ellipsis stripped, " complete." appended.
func completedToolMessage(running string) string {
	return strings.ReplaceAll(running, "...", "") + " complete."
}
