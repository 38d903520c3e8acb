package pipeline

import (
	"fmt"
	"strings"

	"github.com/hustings/canvass/core"
)

const promptPreamble = `You analyze political campaign materials (flyers, mailers, yard signs,
digital ads). Output ONLY valid JSON matching the schema below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace {
and end with the closing brace }. No trailing commas, no extra keys, no text outside the object.`

const coreMetadataSystemPrompt = promptPreamble + `

Task: extract core metadata from the document.

Schema:
{
  "title": "short title of the material",
  "summary": "2-3 sentence summary of what the material is and says",
  "document_type": "one of: flyer, mailer, brochure, yard sign, poster, digital ad, newsletter, other",
  "election_year": "four-digit year if determinable, otherwise empty string",
  "language": "primary language of the material"
}

Rules:
- summary and document_type are required and must be non-empty.
- Do not guess an election year that is not supported by the text.`

const classificationSystemPrompt = promptPreamble + `

Task: classify the campaign material.

Schema:
{
  "category": "broad content category, e.g. candidate promotion, issue advocacy, attack, get-out-the-vote, fundraising",
  "tone": "one of: positive, negative, contrast, neutral",
  "purpose": "what the material is trying to achieve",
  "target_audience": "who the material addresses, if determinable"
}

Rules:
- category and tone are required and must be non-empty.
- Base the tone on the material's treatment of candidates and issues, not on its subject matter.`

const entityExtractionSystemPrompt = promptPreamble + `

Task: extract named entities from the material.

Schema:
{
  "candidates": ["candidate names mentioned"],
  "parties": ["political parties mentioned"],
  "organizations": ["organizations, committees, unions, PACs"],
  "locations": ["districts, cities, states, precincts"],
  "dates": ["election dates, event dates, deadlines"]
}

Rules:
- Include only entities explicitly present in the material. Do not hallucinate.
- Use empty arrays for entity kinds with no mentions.`

const textExtractionSystemPrompt = promptPreamble + `

Task: produce a clean transcription of the material's text.

Schema:
{
  "full_text": "all readable text, cleaned of layout artifacts, in reading order",
  "quotes": ["verbatim slogans, endorsement quotes, or taglines worth preserving exactly"]
}

Rules:
- full_text is required; use an empty string only if the material has no readable text.
- Preserve the original wording; fix only obvious OCR artifacts.`

const designElementsSystemPrompt = promptPreamble + `

Task: describe the visual design of the material.

Schema:
{
  "colors": ["dominant colors"],
  "imagery": ["photographs, symbols, iconography used"],
  "layout": "short description of the layout",
  "typography": "short description of the typography"
}

Rules:
- Describe only what the document evidence supports; leave fields empty otherwise.`

const taxonomyKeywordsSystemPrompt = promptPreamble + `

Task: extract topical keywords suitable for a controlled vocabulary.

Schema:
{
  "keywords": [
    {"term": "keyword as written or closely paraphrased", "category": "suggested broad category", "relevance": 0.0}
  ]
}

Rules:
- relevance is a number from 0.0 (marginal) to 1.0 (central to the material).
- term is required for every entry; keep terms short, 1-3 words.
- Prefer issue and policy terms over proper names; names belong to entity extraction.
- If no keywords can be identified, return "keywords": [].`

const communicationFocusSystemPrompt = promptPreamble + `

Task: characterize the material's communication focus.

Schema:
{
  "primary_issue": "the single issue or theme the material leads with",
  "secondary_issues": ["other issues raised"],
  "messaging_strategy": "short description of the persuasion approach"
}

Rules:
- primary_issue is required and must be non-empty.`

// maxPromptText caps how much document text is embedded in a user prompt.
const maxPromptText = 6000

// buildUserPrompt assembles the per-document prompt body: the accumulated
// cross-stage context first, then the document text.
func buildUserPrompt(doc *core.Document, sctx core.StageContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Filename: %s\n", doc.Filename)
	if sctx.DocumentType != "" {
		fmt.Fprintf(&b, "Document type: %s\n", sctx.DocumentType)
	}
	if sctx.ElectionYear != "" {
		fmt.Fprintf(&b, "Election year: %s\n", sctx.ElectionYear)
	}
	if sctx.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", sctx.Tone)
	}

	b.WriteString("\n---\n")

	text := core.TruncateText(doc.Text, maxPromptText)
	if text == "" {
		text = "(no extracted text available)"
	}
	b.WriteString(text)

	return b.String()
}
