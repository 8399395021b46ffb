package service

import (
	"strings"

	"github.com/GTDGit/paytraq_sync/internal/models"
	"github.com/GTDGit/paytraq_sync/pkg/paytraq"
)

// NormalizeProduct flattens one raw PayTraq product into the spreadsheet
// projection. Missing nested nodes read as empty values and every final
// string is trimmed; supplier fields stay empty unless supplier detail
// was requested.
func NormalizeProduct(p paytraq.Product, withSuppliers bool) models.ProductRecord {
	var group paytraq.Group
	if p.Group != nil {
		group = *p.Group
	}
	var origin paytraq.Origin
	if p.Origin != nil {
		origin = *p.Origin
	}
	var price paytraq.Price
	if p.Price != nil {
		price = *p.Price
	}
	var stamps paytraq.TimeStamps
	if p.TimeStamps != nil {
		stamps = *p.TimeStamps
	}

	rec := models.ProductRecord{
		ItemID:          strings.TrimSpace(p.ItemID),
		Code:            strings.TrimSpace(p.Code),
		Name:            strings.TrimSpace(p.Name),
		Status:          strings.TrimSpace(p.Status),
		Type:            strings.TrimSpace(p.Type),
		Barcode:         strings.TrimSpace(p.Barcode),
		GroupName:       strings.TrimSpace(group.GroupName),
		CountryOfOrigin: strings.TrimSpace(origin.Country),
		CommodityCode:   strings.TrimSpace(origin.CommodityCode),
		Qty:             strings.TrimSpace(p.Qty),
		InterimQty:      strings.TrimSpace(p.InterimQty),
		GrossAmount:     strings.TrimSpace(price.GrossAmount),
		TaxRate:         strings.TrimSpace(price.TaxRate),
		Currency:        strings.TrimSpace(price.Currency),
		Discount:        strings.TrimSpace(price.Discount),
		CreatedUTC:      strings.TrimSpace(stamps.Created),
		UpdatedUTC:      strings.TrimSpace(stamps.Updated),
	}

	if withSuppliers {
		if sup, ok := pickSupplier(p.Suppliers); ok {
			rec.SupplierName = strings.TrimSpace(sup.Name)
			rec.SupplierCode = strings.TrimSpace(sup.Code)
			rec.SupplierProductCode = strings.TrimSpace(sup.ProductCode)
			rec.SupplierProductName = strings.TrimSpace(sup.ProductName)
			rec.PurchasePrice = strings.TrimSpace(sup.Price)
			rec.PurchaseCurrency = strings.TrimSpace(sup.Currency)
			rec.PurchaseTaxIncluded = strings.TrimSpace(sup.TaxIncluded)
			rec.SupplierIsDefault = strings.TrimSpace(sup.Default)
		}
	}

	return rec
}

// pickSupplier selects the supplier to project: the first entry whose
// default flag equals "true" case-insensitively, else the first entry.
func pickSupplier(suppliers []paytraq.Supplier) (paytraq.Supplier, bool) {
	if len(suppliers) == 0 {
		return paytraq.Supplier{}, false
	}
	for _, s := range suppliers {
		if strings.EqualFold(strings.TrimSpace(s.Default), "true") {
			return s, true
		}
	}
	return suppliers[0], true
}
