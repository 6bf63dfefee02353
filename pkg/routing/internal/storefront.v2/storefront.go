// Package storefront holds controllers whose import path ends in a dotted element.
package storefront

// CatalogController lists catalog pages
type CatalogController struct{}

func (c *CatalogController) Annotations() []string {
	return []string{"//mvc::action Page -Params=number"}
}

func (c *CatalogController) Index() string { return "catalog" }

func (c *CatalogController) Page(number int) int { return number }
