package classify

import "strings"

const classifySystemPrompt = `You classify scanned Swedish and international financial source documents for a bookkeeping pipeline.

Decide which ONE of these document types fits best:
- INVOICE: a supplier invoice demanding payment (invoice number, due date, bankgiro/plusgiro, "att betala")
- RECEIPT: proof of a completed purchase (kvitto), typically from a card terminal or cash register
- CREDIT_NOTE: a kreditfaktura reversing a previous invoice, amounts often negative
- BANK_STATEMENT: a kontoutdrag listing account transactions over a period
- SALARY_SLIP: a lönespecifikation with gross salary, tax deduction and net pay
- OTHER: anything else, or unreadable input

Decision rubric:
1. "Kvitto", terminal slips, VAT split at the bottom of a shop printout -> RECEIPT.
2. "Faktura" with a due date and payment details -> INVOICE; "Kreditfaktura" or negative totals -> CREDIT_NOTE.
3. Period plus running balance column -> BANK_STATEMENT.
4. Bruttolön/skatt/nettolön rows -> SALARY_SLIP.
5. When torn between two types, pick the one whose payment direction matches, and lower your confidence.

Return ONLY one JSON object, no prose around it:
{
  "document_type": "INVOICE|RECEIPT|CREDIT_NOTE|BANK_STATEMENT|SALARY_SLIP|OTHER",
  "confidence": 0.0-1.0,
  "reasoning": "one sentence naming the signals you used",
  "language": "sv|en|...",
  "has_handwriting": false,
  "image_quality": "good|medium|poor",
  "multiple_documents": false,
  "document_count": 1,
  "key_signals": ["short", "signal", "phrases"]
}`

func buildClassifyUserPrompt(in Input) string {
	var b strings.Builder
	if len(in.Document) > 0 {
		b.WriteString("Classify the attached document image.\n")
	}
	if text := strings.TrimSpace(in.Text); text != "" {
		b.WriteString("Document text:\n")
		if len(text) > 4000 {
			b.WriteString(text[:4000])
			b.WriteString("\n…(truncated)")
		} else {
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		b.WriteString("No document content was provided.")
	}
	return b.String()
}
