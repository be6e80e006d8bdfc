package scanning

import "strings"

const (
	// DefaultTemperature keeps model replies close to deterministic
	DefaultTemperature float32 = 0.3

	documentTextMarker = "{{DOCUMENT_TEXT}}"
)

// fieldPromptTemplate is the shared prompt used by all LLM providers for extracting shipment fields
const fieldPromptTemplate = `Extract the following key fields from a railway shipping document:

- invoice_number: Find "Отправка №" and take the number that follows it.
- container_number: Take the first alphanumeric container code in the text (e.g., "BU8183503").
- forwarder_name: Take the text that follows "Уплата произвольных платежей".

Here is the document text:

{{DOCUMENT_TEXT}}

Return a single valid JSON object with exactly these keys: "invoice_number", "container_number", "forwarder_name".
Do not add explanations. Do not wrap the JSON in code blocks.
Example JSON:
{
  "invoice_number": "14520766",
  "container_number": "BU8183503",
  "forwarder_name": "КЗХ AO KTZ Express 2744046/35277425 Оплата по КЗХ производится через АО KTZ Express -\n2744046/35277425\nРЖД АО «ОТЛК ЕРА» через ЦФТО 1005782098 Оплата по РЖД производится АО «ОТЛК ЕРА» через ЦФТО, код плательщика 1005782098, подкод экспедитора 005000389546"
}`

// BuildFieldPrompt embeds the OCR text verbatim into the extraction prompt
func BuildFieldPrompt(text string) string {
	return strings.Replace(fieldPromptTemplate, documentTextMarker, text, 1)
}
