package llm

import (
	"strings"

	"github.com/lithammer/dedent"
)

func formatPrompt(text string) string {
	return strings.TrimSpace(dedent.Dedent(text))
}

var systemPrompt = formatPrompt(`
	You are an expert at analyzing clothing items.
	The images you receive all show the same item photographed from different angles.
	Analyze all of the images together and extract the following:
	1. item_type: the kind of item (for example top, bottom, jacket)
	2. size: the size printed on the tag, if it can be read. If the tag lists several sizing systems, prefer the US size.
	3. brand: the brand name, if it can be determined from the tag or the design

	Return null for any field you cannot determine. Do not guess.
	Combine the information from every image to make the analysis as accurate as possible.
`)

var instructionPrompt = formatPrompt(`
	These images show the same clothing item from different angles.
	Analyze all of them together and extract the item's details.
`)

const (
	itemTypeDescription = "Kind of clothing item, e.g. top, bottom, jacket"
	sizeDescription     = "Size from the tag, preferring US sizing, or null if unknown"
	brandDescription    = "Brand name, or null if unknown"
)
