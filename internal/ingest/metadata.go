package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"proprag/internal/models"
	"proprag/internal/providers"
)

const metadataSystemPrompt = "You are a precise document metadata extractor. Always respond with valid JSON only. No markdown formatting."

const metadataPromptTemplate = `You are a document analysis AI. Extract structured information from this property document.

Document filename: %s
Document text:
%s

Extract the following information (use null if not found):
1. property_name: The property address or name (e.g., "123 Oak Street")
2. document_type: Type of document (utility_bill, invoice, lease, maintenance_report, inspection_report, tax_document, insurance)
3. vendor: Vendor or company name (if applicable)
4. amount: Dollar amount as a NUMBER only, no $ or commas (e.g., 1234.56)
5. document_date: Date on the document in YYYY-MM-DD format

Respond ONLY with valid JSON in this exact format (no markdown, no explanations):
{
    "property_name": "string or null",
    "document_type": "string or null",
    "vendor": "string or null",
    "amount": number or null,
    "document_date": "YYYY-MM-DD or null"
}`

// MetadataExtractor asks the completion service for the five structured
// fields of a property document. Extraction is best effort: any service or
// parse failure degrades to all-null metadata instead of failing ingestion.
type MetadataExtractor struct {
	llm providers.CompletionProvider
}

func NewMetadataExtractor(llm providers.CompletionProvider) *MetadataExtractor {
	return &MetadataExtractor{llm: llm}
}

func (e *MetadataExtractor) Extract(ctx context.Context, text, filename string) models.MetadataResult {
	prompt := fmt.Sprintf(metadataPromptTemplate, filename, metadataExcerpt(text))
	resp, _, err := e.llm.Complete(ctx, providers.CompletionRequest{
		Operation:   "extract_metadata",
		System:      metadataSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.1,
	})
	if err != nil {
		return degradedMetadata(fmt.Sprintf("completion service: %v", err))
	}
	md, err := ParseMetadata(resp.Text)
	if err != nil {
		return degradedMetadata(err.Error())
	}
	return models.MetadataResult{Metadata: md}
}

func degradedMetadata(reason string) models.MetadataResult {
	return models.MetadataResult{Degraded: true, Reason: reason}
}

// metadataExcerpt bounds prompt size while keeping the header and footer,
// where invoices and leases put their metadata: first 2000 plus last 1000
// characters for anything longer than 3000.
func metadataExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= 3000 {
		return text
	}
	return string(runes[:2000]) + "\n...\n" + string(runes[len(runes)-1000:])
}

// ParseMetadata decodes the model's JSON reply, tolerating fenced-code-block
// wrapping, and normalizes each field.
func ParseMetadata(raw string) (models.Metadata, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))
	var payload struct {
		PropertyName *string `json:"property_name"`
		DocumentType *string `json:"document_type"`
		Vendor       *string `json:"vendor"`
		Amount       any     `json:"amount"`
		DocumentDate *string `json:"document_date"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.Metadata{}, fmt.Errorf("decode metadata json: %w", err)
	}

	md := models.Metadata{
		PropertyName: payload.PropertyName,
		Vendor:       payload.Vendor,
		Amount:       CleanAmount(payload.Amount),
		DocumentDate: parseDocumentDate(payload.DocumentDate),
	}
	if payload.DocumentType != nil && strings.TrimSpace(*payload.DocumentType) != "" {
		t := NormalizeDocumentType(*payload.DocumentType)
		md.DocumentType = &t
	}
	return md, nil
}

func stripCodeFence(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if strings.Count(s, "```") >= 2 {
		parts := strings.SplitN(s, "```", 3)
		s = parts[1]
	}
	return strings.TrimSpace(s)
}

var documentTypeSynonyms = map[string]models.DocumentType{
	"electric_bill":       models.TypeUtilityBill,
	"water_bill":          models.TypeUtilityBill,
	"gas_bill":            models.TypeUtilityBill,
	"bill":                models.TypeInvoice,
	"lease_agreement":     models.TypeLease,
	"rental_agreement":    models.TypeLease,
	"property_inspection": models.TypeInspectionReport,
	"insurance_policy":    models.TypeInsurance,
}

// NormalizeDocumentType lower-cases, underscores and maps the raw model value
// through the synonym table. Unrecognized values pass through unchanged as an
// unmapped type.
func NormalizeDocumentType(raw string) models.DocumentType {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	if mapped, ok := documentTypeSynonyms[normalized]; ok {
		return mapped
	}
	return models.DocumentType(normalized)
}

// CleanAmount converts whatever the model produced for "amount" into a
// non-negative currency value: JSON numbers pass through, strings are
// stripped of $ and thousands separators, anything unparsable resolves to
// nil rather than failing.
func CleanAmount(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if val < 0 {
			return nil
		}
		return &val
	case string:
		if strings.EqualFold(strings.TrimSpace(val), "null") {
			return nil
		}
		cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(val))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || f < 0 {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// parseDocumentDate accepts strictly YYYY-MM-DD; anything else, including the
// literal string "null", resolves to nil.
func parseDocumentDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	raw := strings.TrimSpace(*s)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
