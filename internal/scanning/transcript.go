package scanning

import (
	"fmt"
	"strings"
)

// transcribePrompt is the shared prompt used by the LLM engines. They are asked
// to behave like plain OCR so the text classifier sees the same kind of input
// whichever engine produced it.
const transcribePrompt = `You are an OCR engine. Transcribe every piece of text visible in this image exactly as printed, line by line, top to bottom.

Rules:
- Keep the original language (%s) and the original number formatting, e.g. "R$ 1.234,56".
- Do not translate, summarize, explain or correct anything.
- Do not add headings, markdown or code blocks.
- If the image contains no text, return an empty response.`

func transcriptionPrompt(opts Options) string {
	lang := opts.Language
	if lang == "" {
		lang = "as printed"
	}
	return fmt.Sprintf(transcribePrompt, lang)
}

// cleanTranscript strips the markdown fences chat models tend to add anyway
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// applyWhitelist drops characters outside the whitelist, keeping line breaks.
// LLM engines have no native whitelist so it is enforced on their output.
func applyWhitelist(text, whitelist string) string {
	if whitelist == "" {
		return text
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || strings.ContainsRune(whitelist, r) {
			return r
		}
		return -1
	}, text)
}
