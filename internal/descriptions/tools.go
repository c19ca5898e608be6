package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	PDFExtractAreasDescription = `Extract field values from fixed rectangular areas on every page of a PDF.

**When to use:** A batch of reports shares one layout (borehole logs, inspection sheets, lab forms) and the same fields sit in the same place on every page.

**Why it's useful:** Text inside each area is reassembled into logical values: wrapped descriptions become one entry, stacked fractions ("12" over "25") become "12/25", and scanned areas can be read with OCR.

**Parameters:**
• path: PDF file, relative to the configured directory or absolute inside it
• areas: JSON array of areas, e.g. [{"name":"Hole","type":"identifier","region":{"x":40,"y":30,"width":120,"height":20},"mandatory":true,"merge":false,"ocr":false}]
• excluded_pages: pages to skip, e.g. "1,5-7"
• render_scale, zoom: how the page was displayed when the regions were drawn (default 1)
• proceed_on_warnings: continue when pre-flight warnings are raised
• consolidate: group pages by the identifier area

**Field types:** default, identifier, x, y, elevation, date, depth, depth_from, depth_to, description, count_pair, sample, water_level. Identifier, x, y, elevation and date may each be used by one area only; count_pair areas read stacked fractions.

**Common workflows:**
1. Draw areas once → pdf_area_fingerprint to check the cache → pdf_extract_areas
2. Multi-page logs: set an identifier area → consolidate=true → one record per hole

**Best practices:** Mark the identifier area mandatory so cover pages and appendices are dropped. Repeating the same request returns the cached result without reading the file again.`

	PDFAreaFingerprintDescription = `Compute the cache key of an area extraction without running it.

**When to use:** Check whether a pending extraction would be served from the cache, or detect that the file or area configuration changed.

**Why it's useful:** The key covers every area setting, the file identity, the excluded pages and the display view. Transient selection state is ignored.

**Examples:**
• "Has borehole-log.pdf changed since my last extraction with these areas?"
• "Would excluding page 3 require a new extraction?"

**Best practices:** Takes the same parameters as pdf_extract_areas.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before extracting areas from a file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Catches wrong extensions, oversized files and unparseable documents before an extraction run starts.

**Examples:**
• Batch processing safety: "Validate all logs in /site-a/ before extracting areas"
• Upload verification: "Check user-uploaded report.pdf is valid before processing"

**Best practices:** Always run this first in automated workflows.`

	PDFPageInfoDescription = `Get the page count and page dimensions of a PDF in document units.

**When to use:** Before drawing areas, to know the page size the regions are mapped into.

**Why it's useful:** Regions are drawn in display pixels with a top-left origin and converted into document units with a bottom-left origin; the page height drives that conversion.

**Examples:**
• "What size are the pages of borehole-log.pdf?"
• "How many pages will be processed?"`

	PDFServerInfoDescription = `Get server information, available tools, field types and current settings.

**When to use:** First contact with the server, or to check OCR languages, heuristic settings and cache statistics.

**Why it's useful:** Lists everything needed to build an area configuration in one call.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_extract_areas":    PDFExtractAreasDescription,
	"pdf_area_fingerprint": PDFAreaFingerprintDescription,
	"pdf_validate_file":    PDFValidateFileDescription,
	"pdf_page_info":        PDFPageInfoDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted names of all described tools
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
