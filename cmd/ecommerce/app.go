package main

import (
	"github.com/jmoiron/sqlx"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
	"ecommerce/pkg/infrastructure/event"
	"ecommerce/pkg/infrastructure/invoice"
	"ecommerce/pkg/infrastructure/mail"
	"ecommerce/pkg/infrastructure/mysql"
	"ecommerce/pkg/infrastructure/password"
	"ecommerce/pkg/infrastructure/payment"
	"ecommerce/pkg/infrastructure/storage"
	"ecommerce/pkg/infrastructure/transport"
)

type app struct {
	services   transport.Services
	ledger     model.StockLedger
	files      *storage.LocalStorage
	dispatcher *event.Dispatcher
}

func newApp(conf *config, db *sqlx.DB) (*app, error) {
	files, err := storage.NewLocalStorage(conf.StorageDir, conf.PublicFileURL)
	if err != nil {
		return nil, err
	}

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	cartRepo := mysql.NewCartRepository(db)
	ledger := mysql.NewStockLedger(db)

	notifications := service.NewNotificationService(userRepo, mail.NewSender(conf.smtpConfig()))
	dispatcher := event.NewDispatcher(event.DefaultQueueSize, notifications.Handle)

	products := service.NewProductService(productRepo, ledger, conf.DefaultTaxRate, dispatcher)
	invoices := service.NewInvoiceGenerator(
		invoice.NewPDFRenderer(invoice.PDFConfig{StoreName: conf.StoreName, StoreAddress: conf.StoreAddress}),
		files,
	)

	return &app{
		services: transport.Services{
			Users: service.NewUserService(
				userRepo,
				mysql.NewSessionRepository(db),
				password.NewBcryptManager(conf.BcryptCost),
				dispatcher,
				conf.SessionTTL,
			),
			Permissions: service.NewPermissionService(mysql.NewRoleRepository(db), userRepo, dispatcher),
			Products:    products,
			Carts:       service.NewCartService(cartRepo, products),
			Orders: service.NewOrderService(
				orderRepo,
				products,
				ledger,
				cartRepo,
				service.NewPricingEngine(conf.pricingConfig()),
				invoices,
				dispatcher,
				service.OrderServiceConfig{DeliveryDays: conf.DeliveryDays},
			),
			Payments:  service.NewPaymentService(orderRepo, payment.NewGateway(conf.paymentConfig()), conf.Currency),
			Dashboard: service.NewDashboardService(orderRepo, userRepo, productRepo),
		},
		ledger:     ledger,
		files:      files,
		dispatcher: dispatcher,
	}, nil
}

func (a *app) Close() {
	a.dispatcher.Close()
}
