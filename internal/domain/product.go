package domain

// Product represents an immutable catalog product as served by the remote
// catalog service. Prices are in minor currency units (cents).
type Product struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description"`
	ImageURL         string   `json:"image_url"`
	ThumbnailURLs    []string `json:"thumbnail_urls,omitempty"`
	Rating           float64  `json:"rating"`
	Price            int64    `json:"price"`
	Currency         string   `json:"currency"`
}

// Thumbnails returns the ordered thumbnail gallery for the product. Products
// without dedicated thumbnails fall back to the primary image repeated three
// times, so the detail view always has a gallery to render.
func (p *Product) Thumbnails() []string {
	if len(p.ThumbnailURLs) > 0 {
		return p.ThumbnailURLs
	}
	return []string{p.ImageURL, p.ImageURL, p.ImageURL}
}

// HasValidRating reports whether the rating is inside the displayable [0,5] range.
func (p *Product) HasValidRating() bool {
	return p.Rating >= 0 && p.Rating <= 5
}
