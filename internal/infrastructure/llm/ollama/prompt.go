package ollama

import "strings"

const maxTextLayer = 12000

const extractionPrompt = `You are a document extraction assistant for Indian business KYC documents.
Supported document types: GST certificate, company PAN card, FSSAI licence, certificate of incorporation,
MSME (Udyam) certificate, shop and establishment registration.

Rules:
1. company_name is the LEGAL name of the entity, not the trade name and not the signatory.
2. trade_name only if explicitly printed.
3. address.full_address is the complete registered address; also split it into address_line_1
   (building, street, floor), locality, city, state and pincode.
4. identification_number is the primary identifier: GSTIN for GST certificates, PAN for PAN cards,
   CIN for incorporation certificates, the registration number otherwise.
5. issue_date in YYYY-MM-DD.
6. approver_name is the signing authority, if visible.
7. confidence is a number from 0.0 to 1.0 reflecting legibility and field visibility,
   confidence_reason explains it briefly.
Use JSON null for anything you cannot read. If the input is not a business document, return {"error": "<reason>"}.

Return ONLY one JSON object:
{
  "document_type": "GST_CERTIFICATE | PAN_CARD | FSSAI | INCORPORATION_CERT | MSME | SHOP_ESTABLISHMENT | OTHER",
  "data": {
    "company_name": "string or null",
    "trade_name": "string or null",
    "identification_number": "string or null",
    "address": {
      "full_address": "string or null",
      "address_line_1": "string or null",
      "locality": "string or null",
      "city": "string or null",
      "state": "string or null",
      "pincode": "string or null"
    },
    "issue_date": "YYYY-MM-DD or null",
    "approver_name": "string or null"
  },
  "confidence": 0.0,
  "confidence_reason": "string"
}`

// buildExtractionPrompt appends the PDF text layer when there are no page images.
func buildExtractionPrompt(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return extractionPrompt
	}
	if len(text) > maxTextLayer {
		text = text[:maxTextLayer]
	}
	return extractionPrompt + "\n\nDocument text:\n" + text
}
