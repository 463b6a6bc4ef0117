package transport

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
	ExtraCharge decimal.Decimal  `json:"extraCharge"`
	Stock       int              `json:"stock"`
	Images      []string         `json:"images"`
}

func (p productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		TaxRate:     p.TaxRate,
		ExtraCharge: p.ExtraCharge,
		Stock:       p.Stock,
		Images:      p.Images,
	}
}

type stockRequest struct {
	Delta int `json:"delta"`
}

func productFilterFromQuery(r *http.Request) (model.ProductFilter, error) {
	query := r.URL.Query()
	filter := model.ProductFilter{
		Category: strings.TrimSpace(query.Get("category")),
		Search:   strings.TrimSpace(query.Get("search")),
	}
	var invalid []string
	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		raw := query.Get(bound.name)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			invalid = append(invalid, bound.name)
			continue
		}
		*bound.dst = &value
	}
	if len(invalid) > 0 {
		return filter, model.NewValidationError("invalid price filter", invalid...)
	}
	return filter, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := pageFromQuery(r)
	products, total, err := h.Products.ListProducts(r.Context(), filter, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, products, page, total)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.Products.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request productRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.Products.CreateProduct(r.Context(), request.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var request productRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.Products.UpdateProduct(r.Context(), id, request.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var request stockRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.Products.AdjustStock(r.Context(), id, request.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Products.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "product deleted")
}
