package tagindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for work documents.
//
// Titles and authors are full text with English stemming. Tag fields use the
// keyword analyzer so a tag is always one term; the lookup fields carry
// values already lowercased at index time.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorsFieldMapping := bleve.NewTextFieldMapping()
	authorsFieldMapping.Analyzer = en.AnalyzerName
	authorsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("authors", authorsFieldMapping)

	// --- Keyword fields ---

	for _, field := range []string{"id", "rating", "language"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// Exact spelling, stored for display and facets.
	for _, field := range []string{"fandoms", "relationships", "characters", "freeforms"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		fm.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// Lowercased lookup forms, not stored.
	for _, field := range []string{"tag_keys", "tag_names"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// --- Numeric fields ---

	for _, field := range []string{"work_id", "words", "kudos", "hits", "updated"} {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
