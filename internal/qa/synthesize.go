package qa

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"proprag/internal/models"
	"proprag/internal/providers"
)

const answerSystemPrompt = `You are PropertyAI, a helpful assistant that answers questions about property documents.

CRITICAL RULES:
1. Answer ONLY using information from the provided documents
2. Look carefully at ALL documents - even if similarity is lower, they might still contain the answer
3. Pay special attention to:
   - Property names (e.g., "Oak Street", "Maple Avenue")
   - Document types (e.g., "electric bill", "utility bill", "invoice")
   - Amounts and dates
   - Vendor names
4. If the question asks about a specific property, look for documents matching that property name
5. If you find the answer, provide it clearly with the exact amount and source
6. If the documents don't contain enough information, say: "I don't know based on the available documents."
7. Never make up information or assume anything

When citing numbers (amounts, dates), always mention which document/property they came from.`

const answerPromptTemplate = `Question: %s

Available documents:
%s

Instructions:
- Read through ALL documents carefully
- If the question mentions a specific property name (like "Oak Street"), look for documents with that property name
- If the question asks about a bill type (like "electric bill"), look for documents with that document type
- Extract the exact amount, date, and other details from the matching documents
- Provide a clear, direct answer with the specific information found

Please answer the question using ONLY the information above. If the answer is not clearly stated in the documents, say you don't know.`

// Synthesizer turns a question plus assembled context into a grounded answer.
// Confidence comes from retrieval similarity statistics, not from anything
// the model says about itself.
type Synthesizer struct {
	llm        providers.CompletionProvider
	mediumBand float64
	highBand   float64
}

func NewSynthesizer(llm providers.CompletionProvider, mediumBand, highBand float64) *Synthesizer {
	if mediumBand <= 0 {
		mediumBand = 0.6
	}
	if highBand <= 0 {
		highBand = 0.75
	}
	return &Synthesizer{llm: llm, mediumBand: mediumBand, highBand: highBand}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question, contextBlock string, candidates []models.RetrievedChunk) models.Answer {
	resp, _, err := s.llm.Complete(ctx, providers.CompletionRequest{
		Operation:   "answer_question",
		System:      answerSystemPrompt,
		Prompt:      fmt.Sprintf(answerPromptTemplate, question, contextBlock),
		Temperature: 0.2,
	})
	if err != nil {
		return models.Answer{
			Answer:     fmt.Sprintf("Sorry, I encountered an error generating the answer: %v", err),
			Sources:    []models.Source{},
			Confidence: models.ConfidenceError,
		}
	}
	return models.Answer{
		Answer:     resp.Text,
		Sources:    AggregateSources(candidates),
		Confidence: s.confidenceFor(candidates),
	}
}

// confidenceFor bands the arithmetic mean of the candidate similarities.
func (s *Synthesizer) confidenceFor(candidates []models.RetrievedChunk) models.Confidence {
	if len(candidates) == 0 {
		return models.ConfidenceLow
	}
	var sum float64
	for _, c := range candidates {
		sum += c.Similarity
	}
	mean := sum / float64(len(candidates))
	switch {
	case mean > s.highBand:
		return models.ConfidenceHigh
	case mean > s.mediumBand:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// AggregateSources groups candidates by document. Each group reports the
// maximum similarity of its chunks - the best single piece of evidence, not
// the average - and annotates the filename with the sorted, de-duplicated
// 1-based section numbers that contributed.
func AggregateSources(candidates []models.RetrievedChunk) []models.Source {
	type group struct {
		source   models.Source
		sections map[int]struct{}
	}
	groups := make(map[string]*group, len(candidates))
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		g, ok := groups[c.DocumentID]
		if !ok {
			g = &group{
				source: models.Source{
					Filename:     c.Filename,
					PropertyName: c.PropertyName,
					DocumentType: c.DocumentType,
					Vendor:       c.Vendor,
					Amount:       c.Amount,
					Similarity:   c.Similarity,
				},
				sections: map[int]struct{}{},
			}
			groups[c.DocumentID] = g
			order = append(order, c.DocumentID)
		}
		g.sections[c.ChunkIndex+1] = struct{}{}
		if c.Similarity > g.source.Similarity {
			g.source.Similarity = c.Similarity
		}
	}

	out := make([]models.Source, 0, len(order))
	for _, id := range order {
		g := groups[id]
		sections := make([]int, 0, len(g.sections))
		for n := range g.sections {
			sections = append(sections, n)
		}
		sort.Ints(sections)
		labels := make([]string, 0, len(sections))
		for _, n := range sections {
			labels = append(labels, strconv.Itoa(n))
		}
		g.source.Filename += fmt.Sprintf(" (sections: %s)", strings.Join(labels, ", "))
		out = append(out, g.source)
	}
	return out
}
