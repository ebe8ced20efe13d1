package ingest

import (
	"context"
	"errors"
	"testing"

	"proprag/internal/models"
	"proprag/internal/providers"

	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	text  string
	err   error
	calls int
}

func (s *stubLLM) Complete(_ context.Context, _ providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error) {
	s.calls++
	if s.err != nil {
		return providers.CompletionResponse{}, providers.ProviderInfo{}, s.err
	}
	return providers.CompletionResponse{Text: s.text}, providers.ProviderInfo{Name: "stub"}, nil
}

func TestParseMetadataFullPayload(t *testing.T) {
	raw := `{
		"property_name": "123 Oak Street",
		"document_type": "Electric Bill",
		"vendor": "City Power Co",
		"amount": "$1,234.56",
		"document_date": "2024-03-15"
	}`
	md, err := ParseMetadata(raw)
	require.NoError(t, err)
	require.NotNil(t, md.PropertyName)
	require.Equal(t, "123 Oak Street", *md.PropertyName)
	require.NotNil(t, md.DocumentType)
	require.Equal(t, models.TypeUtilityBill, *md.DocumentType)
	require.NotNil(t, md.Vendor)
	require.Equal(t, "City Power Co", *md.Vendor)
	require.NotNil(t, md.Amount)
	require.InDelta(t, 1234.56, *md.Amount, 1e-9)
	require.NotNil(t, md.DocumentDate)
	require.Equal(t, "2024-03-15", md.DocumentDate.Format("2006-01-02"))
}

func TestParseMetadataStripsCodeFence(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"property_name\": \"Maple Ave\", \"document_type\": null, \"vendor\": null, \"amount\": null, \"document_date\": null}\n```"
	md, err := ParseMetadata(raw)
	require.NoError(t, err)
	require.NotNil(t, md.PropertyName)
	require.Equal(t, "Maple Ave", *md.PropertyName)
	require.Nil(t, md.DocumentType)
	require.Nil(t, md.Amount)
}

func TestParseMetadataBareFence(t *testing.T) {
	raw := "```\n{\"property_name\": null, \"document_type\": \"lease\", \"vendor\": null, \"amount\": 950, \"document_date\": null}\n```"
	md, err := ParseMetadata(raw)
	require.NoError(t, err)
	require.NotNil(t, md.DocumentType)
	require.Equal(t, models.TypeLease, *md.DocumentType)
	require.NotNil(t, md.Amount)
	require.InDelta(t, 950.0, *md.Amount, 1e-9)
}

func TestParseMetadataRejectsMalformedJSON(t *testing.T) {
	_, err := ParseMetadata("the document is an invoice for $500")
	require.Error(t, err)
}

func TestParseMetadataInvalidDateResolvesToNil(t *testing.T) {
	md, err := ParseMetadata(`{"property_name": null, "document_type": null, "vendor": null, "amount": null, "document_date": "March 15, 2024"}`)
	require.NoError(t, err)
	require.Nil(t, md.DocumentDate)

	md, err = ParseMetadata(`{"property_name": null, "document_type": null, "vendor": null, "amount": null, "document_date": "null"}`)
	require.NoError(t, err)
	require.Nil(t, md.DocumentDate)
}

func TestCleanAmount(t *testing.T) {
	require.Nil(t, CleanAmount(nil))
	require.Nil(t, CleanAmount("not a number"))
	require.Nil(t, CleanAmount("null"))
	require.Nil(t, CleanAmount(true))
	require.Nil(t, CleanAmount(float64(-12.5)))
	require.Nil(t, CleanAmount("-$50.00"))

	v := CleanAmount(float64(1234.56))
	require.NotNil(t, v)
	require.InDelta(t, 1234.56, *v, 1e-9)

	v = CleanAmount("$1,234.56")
	require.NotNil(t, v)
	require.InDelta(t, 1234.56, *v, 1e-9)

	v = CleanAmount("  89.10 ")
	require.NotNil(t, v)
	require.InDelta(t, 89.10, *v, 1e-9)
}

func TestNormalizeDocumentType(t *testing.T) {
	require.Equal(t, models.TypeUtilityBill, NormalizeDocumentType("Electric Bill"))
	require.Equal(t, models.TypeUtilityBill, NormalizeDocumentType("water_bill"))
	require.Equal(t, models.TypeInvoice, NormalizeDocumentType("BILL"))
	require.Equal(t, models.TypeLease, NormalizeDocumentType("Rental Agreement"))
	require.Equal(t, models.TypeInspectionReport, NormalizeDocumentType("property inspection"))
	require.Equal(t, models.TypeInsurance, NormalizeDocumentType("Insurance Policy"))
	require.Equal(t, models.DocumentType("appraisal_letter"), NormalizeDocumentType("Appraisal Letter"))
}

func TestExtractDegradesOnCompletionFailure(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limit exceeded")}
	result := NewMetadataExtractor(llm).Extract(context.Background(), "some text", "bill.pdf")
	require.True(t, result.Degraded)
	require.Contains(t, result.Reason, "rate limit")
	require.Nil(t, result.Metadata.PropertyName)
	require.Nil(t, result.Metadata.Amount)
}

func TestExtractDegradesOnUnparsableReply(t *testing.T) {
	llm := &stubLLM{text: "I could not determine the metadata."}
	result := NewMetadataExtractor(llm).Extract(context.Background(), "some text", "bill.pdf")
	require.True(t, result.Degraded)
	require.NotEmpty(t, result.Reason)
}

func TestExtractHappyPath(t *testing.T) {
	llm := &stubLLM{text: `{"property_name": "456 Elm St", "document_type": "invoice", "vendor": "FixIt LLC", "amount": 310.00, "document_date": "2024-01-09"}`}
	result := NewMetadataExtractor(llm).Extract(context.Background(), "invoice body", "invoice.pdf")
	require.False(t, result.Degraded)
	require.Equal(t, 1, llm.calls)
	require.NotNil(t, result.Metadata.PropertyName)
	require.Equal(t, "456 Elm St", *result.Metadata.PropertyName)
	require.NotNil(t, result.Metadata.DocumentType)
	require.Equal(t, models.TypeInvoice, *result.Metadata.DocumentType)
}
