package catalog

// Product is the full catalog record resolved for a ranked candidate id.
type Product struct {
	ID            string
	MerchantID    string
	Title         string
	Description   string
	Category      string
	Brand         string
	Price         float64
	OriginalPrice *float64
	Currency      string
	Stock         int
	URL           string
	Images        []string
	Collections   []string
	Tags          []string
}

// PrimaryImage returns the first image or an empty string.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
