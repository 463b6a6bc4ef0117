package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"ecommerce/pkg/domain/model"
)

type InvoiceGenerator interface {
	Generate(ctx context.Context, order *model.Order) (*model.Invoice, error)
	Load(ctx context.Context, order *model.Order) (*model.Invoice, error)
	Discard(ctx context.Context, invoice *model.Invoice) error
}

func NewInvoiceGenerator(renderer model.InvoiceRenderer, storage model.FileStorage) InvoiceGenerator {
	return &invoiceGenerator{renderer: renderer, storage: storage}
}

type invoiceGenerator struct {
	renderer model.InvoiceRenderer
	storage  model.FileStorage
}

func (g *invoiceGenerator) Generate(ctx context.Context, order *model.Order) (*model.Invoice, error) {
	content, err := g.renderer.Render(order)
	if err != nil {
		return nil, errors.Wrap(err, "render invoice")
	}
	stored, err := g.storage.Upload(ctx, fmt.Sprintf("invoice-%s.pdf", order.ID), content)
	if err != nil {
		return nil, fmt.Errorf("%w: upload invoice: %v", model.ErrUpstream, err)
	}
	return &model.Invoice{ID: stored.ID, URL: stored.URL, Content: content}, nil
}

func (g *invoiceGenerator) Load(ctx context.Context, order *model.Order) (*model.Invoice, error) {
	content, err := g.storage.Fetch(ctx, order.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch invoice: %v", model.ErrUpstream, err)
	}
	return &model.Invoice{ID: order.InvoiceID, URL: order.InvoiceURL, Content: content}, nil
}

func (g *invoiceGenerator) Discard(ctx context.Context, invoice *model.Invoice) error {
	return g.storage.Delete(ctx, invoice.ID)
}
