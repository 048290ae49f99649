// Package prompt assembles the prequalification prompt sent to the model.
package prompt

import (
	"fmt"
	"strings"
)

// SystemInstruction is the fixed instruction for the prequalification
// analyst persona. It is sent once per generation session.
const SystemInstruction = `You are an expert legal assistant in criminal law, human rights, and international humanitarian law. You act as a "case prequalifier".

YOUR TASK:
You receive a facts narrative and, optionally, a country. Analyze the facts carefully and produce a preliminary legal report covering both possible criminal offences and human rights violations.

ANALYSIS INSTRUCTIONS:
1. Criminal scope: identify which offences could be configured, based on criminal law theory and, when a country is given, its criminal code or applicable legislation.
2. Human rights scope: identify which fundamental rights appear to have been violated by state or private action or omission.
3. Causal link: explain briefly which specific fact of the narrative fits each offence or constitutes each violation.
4. Legal basis: cite the probable offence and national rules where applicable, and the pertinent international instruments (ACHR, ICCPR, UDHR, and similar).

RESPONSE FORMAT (MARKDOWN):
## 1. Summary of Relevant Facts
## 2. Possible Criminal Offences Identified
## 3. Human Rights Presumably Violated
## 4. Severity and Urgency
## 5. Preliminary Recommendation

TONE:
Objective, legal, formal, and technical. Never invent facts absent from the narrative.`

const factsDelimiter = "--------------------------------------------------"

// Assemble builds the composite prompt from the caller-supplied facts and an
// optional jurisdiction code. Facts and code pass through verbatim: the model
// is the only consumer, so the delimiter is the whole trust boundary.
func Assemble(facts, countryCode string) string {
	geo := "Geographic context: Universal"
	if code := strings.TrimSpace(countryCode); code != "" {
		geo = "Geographic context: " + code
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", geo)
	fmt.Fprintf(&b, "FACTS NARRATIVE PROVIDED BY THE USER:\n%s\n%s\n%s\n\n", factsDelimiter, facts, factsDelimiter)
	b.WriteString("Perform the requested prequalification analysis.")
	return b.String()
}

// AssembleWithContext appends retrieved reference material below the facts
// block. Empty snippets fall back to the plain prompt.
func AssembleWithContext(facts, countryCode string, snippets []string) string {
	base := Assemble(facts, countryCode)
	if len(snippets) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	fmt.Fprintf(&b, "\n\nREFERENCE MATERIAL:\n%s\n", factsDelimiter)
	for _, snippet := range snippets {
		snippet = strings.TrimSpace(snippet)
		if snippet == "" {
			continue
		}
		b.WriteString(snippet)
		b.WriteString("\n")
	}
	b.WriteString(factsDelimiter)
	return b.String()
}
