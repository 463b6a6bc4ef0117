package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

type Services struct {
	Users       service.UserService
	Permissions service.PermissionService
	Products    service.ProductService
	Carts       service.CartService
	Orders      service.OrderService
	Payments    service.PaymentService
	Dashboard   service.DashboardService
}

type Handler struct {
	Services
}

// Router serves the REST API under /api/v1. When filesDir is set, stored
// files are also served from /files/.
func Router(services Services, filesDir string) http.Handler {
	h := &Handler{Services: services}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})
	if filesDir != "" {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(filesDir)))).Methods(http.MethodGet)
	}

	s := r.PathPrefix("/api/v1").Subrouter()

	s.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	s.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	s.Handle("/auth/logout", h.authenticated(h.logout)).Methods(http.MethodPost)
	s.Handle("/auth/me", h.authenticated(h.me)).Methods(http.MethodGet)

	s.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	s.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	s.Handle("/admin/products", h.permitted(model.ResourceProducts, model.ActionCreate, h.createProduct)).Methods(http.MethodPost)
	s.Handle("/admin/products/{id}", h.permitted(model.ResourceProducts, model.ActionUpdate, h.updateProduct)).Methods(http.MethodPut)
	s.Handle("/admin/products/{id}/stock", h.permitted(model.ResourceProducts, model.ActionUpdate, h.adjustStock)).Methods(http.MethodPut)
	s.Handle("/admin/products/{id}", h.permitted(model.ResourceProducts, model.ActionDelete, h.deleteProduct)).Methods(http.MethodDelete)

	s.Handle("/cart", h.authenticated(h.getCart)).Methods(http.MethodGet)
	s.Handle("/cart", h.authenticated(h.clearCart)).Methods(http.MethodDelete)
	s.Handle("/cart/items", h.authenticated(h.addCartItem)).Methods(http.MethodPost)
	s.Handle("/cart/items", h.authenticated(h.updateCartItem)).Methods(http.MethodPut)
	s.Handle("/cart/items", h.authenticated(h.removeCartItem)).Methods(http.MethodDelete)

	s.Handle("/orders", h.authenticated(h.createOrder)).Methods(http.MethodPost)
	s.Handle("/orders", h.authenticated(h.listOrders)).Methods(http.MethodGet)
	s.Handle("/orders/{id}", h.authenticated(h.getOrder)).Methods(http.MethodGet)
	s.Handle("/orders/{id}/cancel", h.authenticated(h.cancelOrder)).Methods(http.MethodPut)
	s.Handle("/orders/{id}/invoice.pdf", h.authenticated(h.invoice)).Methods(http.MethodGet)
	s.Handle("/orders/{id}/return-request", h.authenticated(h.requestReturn)).Methods(http.MethodPost)
	s.Handle("/orders/{id}/exchange-request", h.authenticated(h.requestExchange)).Methods(http.MethodPost)

	s.Handle("/admin/orders", h.permitted(model.ResourceOrders, model.ActionView, h.listAllOrders)).Methods(http.MethodGet)
	s.Handle("/admin/orders/{id}/status", h.permitted(model.ResourceOrders, model.ActionUpdate, h.updateOrderStatus)).Methods(http.MethodPut)
	s.Handle("/admin/orders/{id}/return", h.permitted(model.ResourceOrders, model.ActionUpdate, h.resolveReturn)).Methods(http.MethodPut)
	s.Handle("/admin/orders/{id}/exchange", h.permitted(model.ResourceOrders, model.ActionUpdate, h.resolveExchange)).Methods(http.MethodPut)
	s.Handle("/admin/orders/{id}", h.permitted(model.ResourceOrders, model.ActionDelete, h.adminCancelOrder)).Methods(http.MethodDelete)

	s.Handle("/roles", h.permitted(model.ResourceRoles, model.ActionView, h.listRoles)).Methods(http.MethodGet)
	s.Handle("/roles", h.permitted(model.ResourceRoles, model.ActionCreate, h.createRole)).Methods(http.MethodPost)
	s.Handle("/roles/assign", h.permitted(model.ResourceRoles, model.ActionUpdate, h.assignRole)).Methods(http.MethodPost)
	s.Handle("/roles/unassign", h.permitted(model.ResourceRoles, model.ActionUpdate, h.unassignRole)).Methods(http.MethodPost)
	s.Handle("/roles/initialize", h.permitted(model.ResourceRoles, model.ActionCreate, h.initializeRoles)).Methods(http.MethodPost)
	s.Handle("/roles/{id}", h.permitted(model.ResourceRoles, model.ActionView, h.getRole)).Methods(http.MethodGet)
	s.Handle("/roles/{id}", h.permitted(model.ResourceRoles, model.ActionUpdate, h.updateRole)).Methods(http.MethodPut)
	s.Handle("/roles/{id}", h.permitted(model.ResourceRoles, model.ActionDelete, h.deleteRole)).Methods(http.MethodDelete)

	s.Handle("/payments/intent", h.authenticated(h.createPaymentIntent)).Methods(http.MethodPost)

	s.Handle("/admin/stats", h.permitted(model.ResourceDashboard, model.ActionView, h.stats)).Methods(http.MethodGet)
	s.Handle("/admin/users", h.permitted(model.ResourceUsers, model.ActionView, h.listUsers)).Methods(http.MethodGet)

	return logMiddleware(recoverMiddleware(r))
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}

func recoverMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.WithFields(log.Fields{"method": r.Method, "url": r.URL, "panic": p}).Error("handler panicked")
				writeError(w, r, errInternal)
			}
		}()
		h.ServeHTTP(w, r)
	})
}
