package model

// ContentType is the classified kind of a page.
type ContentType string

const (
	// ContentTypeArticle is a news or editorial article.
	ContentTypeArticle ContentType = "article"
	// ContentTypeBlogPost is a dated post on a blog.
	ContentTypeBlogPost ContentType = "blog_post"
	// ContentTypeDocumentation is reference or guide material.
	ContentTypeDocumentation ContentType = "documentation"
	// ContentTypeProduct is a product detail page.
	ContentTypeProduct ContentType = "product"
	// ContentTypeRecipe is a cooking recipe.
	ContentTypeRecipe ContentType = "recipe"
	// ContentTypeEvent is an event listing.
	ContentTypeEvent ContentType = "event"
	// ContentTypeFAQ is a list of questions and answers.
	ContentTypeFAQ ContentType = "faq"
	// ContentTypeOrganization is an about/company/profile page.
	ContentTypeOrganization ContentType = "organization"
	// ContentTypeLandingPage is a marketing or home page.
	ContentTypeLandingPage ContentType = "landing_page"
	// ContentTypeWebPage is the generic fallback.
	ContentTypeWebPage ContentType = "webpage"
)

// contentTypes lists every ContentType in declaration order.
// The classifier breaks ties by this order.
var contentTypes = []ContentType{
	ContentTypeArticle,
	ContentTypeBlogPost,
	ContentTypeDocumentation,
	ContentTypeProduct,
	ContentTypeRecipe,
	ContentTypeEvent,
	ContentTypeFAQ,
	ContentTypeOrganization,
	ContentTypeLandingPage,
	ContentTypeWebPage,
}

// ContentTypes returns all content types in declaration order.
func ContentTypes() []ContentType {
	out := make([]ContentType, len(contentTypes))
	copy(out, contentTypes)
	return out
}

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	for _, ct := range contentTypes {
		if c == ct {
			return true
		}
	}
	return false
}

// String returns the wire name of the content type.
func (c ContentType) String() string {
	if c == "" {
		return string(ContentTypeWebPage)
	}
	return string(c)
}
