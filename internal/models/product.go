package models

// Spreadsheet key columns supported by the sync endpoints.
const (
	KeyItemID = "ItemID"
	KeyCode   = "Code"
)

// ProductColumns is the full-catalog spreadsheet schema, in column order.
// Every value is a trimmed string to match spreadsheet cell semantics.
var ProductColumns = []string{
	"ItemID",
	"Code",
	"Name",
	"Status",
	"Type",
	"Barcode",
	"GroupName",
	"CountryOfOrigin",
	"CommodityCode",
	"Qty",
	"InterimQty",
	"GrossAmount",
	"TaxRate",
	"Currency",
	"Discount",
	"SupplierName",
	"SupplierCode",
	"SupplierProductCode",
	"SupplierProductName",
	"PurchasePrice",
	"PurchaseCurrency",
	"PurchaseTaxIncluded",
	"SupplierIsDefault",
	"CreatedUTC",
	"UpdatedUTC",
}

// ChangeLogColumns is the change-log worksheet schema for per-field
// granularity: one row per changed field.
var ChangeLogColumns = []string{
	"TimestampRiga",
	"ItemID",
	"Code",
	"Name",
	"FieldName",
	"OldValue",
	"NewValue",
}

// ChangeLogColumnsJSON is the change-log schema for whole-record
// granularity: one row per changed record with all diffs serialized.
var ChangeLogColumnsJSON = []string{
	"TimestampRiga",
	"ItemID",
	"Code",
	"Name",
	"ChangedFieldsJSON",
}

// ProductRecord is the flat projection of one PayTraq product, matching
// the spreadsheet column schema. Absent nested structures normalize to
// empty strings, never to missing keys.
type ProductRecord struct {
	ItemID              string `json:"ItemID"`
	Code                string `json:"Code"`
	Name                string `json:"Name"`
	Status              string `json:"Status"`
	Type                string `json:"Type"`
	Barcode             string `json:"Barcode"`
	GroupName           string `json:"GroupName"`
	CountryOfOrigin     string `json:"CountryOfOrigin"`
	CommodityCode       string `json:"CommodityCode"`
	Qty                 string `json:"Qty"`
	InterimQty          string `json:"InterimQty"`
	GrossAmount         string `json:"GrossAmount"`
	TaxRate             string `json:"TaxRate"`
	Currency            string `json:"Currency"`
	Discount            string `json:"Discount"`
	SupplierName        string `json:"SupplierName"`
	SupplierCode        string `json:"SupplierCode"`
	SupplierProductCode string `json:"SupplierProductCode"`
	SupplierProductName string `json:"SupplierProductName"`
	PurchasePrice       string `json:"PurchasePrice"`
	PurchaseCurrency    string `json:"PurchaseCurrency"`
	PurchaseTaxIncluded string `json:"PurchaseTaxIncluded"`
	SupplierIsDefault   string `json:"SupplierIsDefault"`
	CreatedUTC          string `json:"CreatedUTC"`
	UpdatedUTC          string `json:"UpdatedUTC"`
}

// Fields returns the record as a column-name keyed map.
func (r ProductRecord) Fields() map[string]string {
	return map[string]string{
		"ItemID":              r.ItemID,
		"Code":                r.Code,
		"Name":                r.Name,
		"Status":              r.Status,
		"Type":                r.Type,
		"Barcode":             r.Barcode,
		"GroupName":           r.GroupName,
		"CountryOfOrigin":     r.CountryOfOrigin,
		"CommodityCode":       r.CommodityCode,
		"Qty":                 r.Qty,
		"InterimQty":          r.InterimQty,
		"GrossAmount":         r.GrossAmount,
		"TaxRate":             r.TaxRate,
		"Currency":            r.Currency,
		"Discount":            r.Discount,
		"SupplierName":        r.SupplierName,
		"SupplierCode":        r.SupplierCode,
		"SupplierProductCode": r.SupplierProductCode,
		"SupplierProductName": r.SupplierProductName,
		"PurchasePrice":       r.PurchasePrice,
		"PurchaseCurrency":    r.PurchaseCurrency,
		"PurchaseTaxIncluded": r.PurchaseTaxIncluded,
		"SupplierIsDefault":   r.SupplierIsDefault,
		"CreatedUTC":          r.CreatedUTC,
		"UpdatedUTC":          r.UpdatedUTC,
	}
}

// Key returns the record's value for the given key column. A record with
// an empty key is unusable for sync and must be skipped by callers.
func (r ProductRecord) Key(keyColumn string) string {
	if keyColumn == KeyCode {
		return r.Code
	}
	return r.ItemID
}

// FieldChange is one field-level difference between the mirror's stored
// row and a freshly normalized record. Old and New are canonical forms
// for the change log; NewRaw is the record's value as fetched, which is
// what gets written back to the sheet.
type FieldChange struct {
	Field  string `json:"field"`
	Old    string `json:"old"`
	New    string `json:"new"`
	NewRaw string `json:"-"`
}

// ChangeLogEntry is one appended change-log record. Append-only; never
// mutated after being written.
type ChangeLogEntry struct {
	TimestampRiga string
	ItemID        string
	Code          string
	Name          string
	Changes       []FieldChange
}
