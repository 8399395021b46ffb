package paytraq

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Product is one catalog item as returned by the PayTraq API.
// Nested nodes that may be absent are pointers so that a missing
// node is distinguishable from an empty one.
type Product struct {
	ItemID     string      `xml:"ItemID"`
	Code       string      `xml:"Code"`
	Name       string      `xml:"Name"`
	Status     string      `xml:"Status"`
	Type       string      `xml:"Type"`
	Barcode    string      `xml:"Barcode"`
	Qty        string      `xml:"Qty"`
	InterimQty string      `xml:"InterimQty"`
	Group      *Group      `xml:"Group"`
	Origin     *Origin     `xml:"Origin"`
	Price      *Price      `xml:"Price"`
	Suppliers  []Supplier  `xml:"Suppliers>Supplier"`
	TimeStamps *TimeStamps `xml:"TimeStamps"`
}

// Group is the product group node.
type Group struct {
	GroupID   string `xml:"GroupID"`
	GroupName string `xml:"GroupName"`
}

// Origin carries customs-related product attributes.
type Origin struct {
	Country       string `xml:"Country"`
	CommodityCode string `xml:"CommodityCode"`
}

// Price is the sales price node.
type Price struct {
	GrossAmount string `xml:"GrossAmount"`
	TaxRate     string `xml:"TaxRate"`
	Currency    string `xml:"Currency"`
	Discount    string `xml:"Discount"`
}

// Supplier is one entry of the product's supplier list. Only present
// when the request asked for supplier detail.
type Supplier struct {
	Name        string `xml:"Name"`
	Code        string `xml:"Code"`
	ProductCode string `xml:"ProductCode"`
	ProductName string `xml:"ProductName"`
	Price       string `xml:"Price"`
	Currency    string `xml:"Currency"`
	TaxIncluded string `xml:"TaxIncluded"`
	Default     string `xml:"Default"`
}

// TimeStamps holds the record's creation/update instants (UTC ISO strings).
type TimeStamps struct {
	Created string `xml:"Created"`
	Updated string `xml:"Updated"`
}

// productList is the <Products> envelope. A page with a single <Product>
// child decodes into a one-element slice, so downstream code never sees
// the single-item shape.
type productList struct {
	XMLName  xml.Name  `xml:"Products"`
	Products []Product `xml:"Product"`
}

// apiError is the <Error> envelope PayTraq returns instead of <Products>
// on some failures. Child nodes are collected generically so the full
// key/value set ends up in the diagnostic.
type apiError struct {
	XMLName xml.Name      `xml:"Error"`
	Fields  []apiErrorVal `xml:",any"`
}

type apiErrorVal struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// ParseProducts decodes one page body. An empty body or an empty
// <Products/> envelope yields an empty slice; an <Error> envelope or
// malformed XML yields an error wrapping ErrParse.
func ParseProducts(body []byte) ([]Product, error) {
	if strings.TrimSpace(string(body)) == "" {
		return nil, nil
	}

	var list productList
	if err := xml.Unmarshal(body, &list); err == nil {
		return list.Products, nil
	}

	var apiErr apiError
	if xml.Unmarshal(body, &apiErr) == nil && len(apiErr.Fields) > 0 {
		parts := make([]string, 0, len(apiErr.Fields))
		for _, f := range apiErr.Fields {
			parts = append(parts, fmt.Sprintf("%s=%s", f.XMLName.Local, strings.TrimSpace(f.Value)))
		}
		return nil, fmt.Errorf("%w: api error: %s", ErrParse, strings.Join(parts, " "))
	}

	return nil, fmt.Errorf("%w: malformed products xml", ErrParse)
}
