package signals

import "github.com/nao1215/pagescope/internal/model"

// Extract fills the signal fields of page from page.Document and
// page.FinalURL.
func Extract(page *model.PageData) {
	if page == nil || page.Document == nil {
		return
	}
	doc := page.Document

	page.StructuredData = StructuredData(doc)
	page.Title = Title(doc)
	page.Entity = Entity(doc, page.StructuredData)
	page.Summary = Summary(doc)
	page.Language = Language(doc)
	page.Links = Links(doc, page.FinalURL)
	page.Actions = Actions(doc)
	page.ContentType = Classify(doc, page.StructuredData, page.FinalURL)
}
