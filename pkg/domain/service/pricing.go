package service

import (
	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
)

var hundred = decimal.NewFromInt(100)

type PricingConfig struct {
	// Orders whose items price is strictly above the threshold ship free.
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(50),
	}
}

type PricingEngine struct {
	config PricingConfig
}

func NewPricingEngine(config PricingConfig) PricingEngine {
	return PricingEngine{config: config}
}

// ComputeTotals prices snapshotted order items. It is pure: no rounding is
// applied, presentation formats to two decimals.
func (e PricingEngine) ComputeTotals(items []model.OrderItem) model.Totals {
	itemsPrice := decimal.Zero
	taxPrice := decimal.Zero
	extraCharges := decimal.Zero

	for _, item := range items {
		quantity := decimal.NewFromInt(int64(item.Quantity))
		lineSubtotal := item.Price.Mul(quantity)

		itemsPrice = itemsPrice.Add(lineSubtotal)
		taxPrice = taxPrice.Add(lineSubtotal.Mul(item.TaxRate).Div(hundred))
		extraCharges = extraCharges.Add(item.ExtraCharge.Mul(quantity))
	}

	shippingPrice := e.ShippingFor(itemsPrice)

	return model.Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ExtraCharges:  extraCharges,
		ShippingPrice: shippingPrice,
		TotalAmount:   itemsPrice.Add(shippingPrice).Add(taxPrice).Add(extraCharges),
	}
}

func (e PricingEngine) ShippingFor(itemsPrice decimal.Decimal) decimal.Decimal {
	if itemsPrice.GreaterThan(e.config.FreeShippingThreshold) {
		return decimal.Zero
	}
	return e.config.ShippingFee
}

// Snapshot freezes the catalog values an order line is charged at.
func Snapshot(item model.CatalogItem, quantity int) model.OrderItem {
	return model.OrderItem{
		ProductID:   item.ProductID,
		Name:        item.Name,
		Image:       item.PrimaryImage,
		Quantity:    quantity,
		Price:       item.EffectivePrice,
		TaxRate:     item.TaxRate,
		ExtraCharge: item.ExtraCharge,
	}
}
