package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

type placeOrderRequest struct {
	Items           []model.OrderLine     `json:"items"`
	PaymentMethod   string                `json:"paymentMethod"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentIntentRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request, user *model.User) {
	var request placeOrderRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.Orders.CreateOrder(r.Context(), user.ID, service.PlaceOrderRequest{
		Items:           request.Items,
		PaymentMethod:   request.PaymentMethod,
		ShippingAddress: request.ShippingAddress,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, user *model.User) {
	page := pageFromQuery(r)
	orders, total, err := h.Orders.ListOrders(r.Context(), user.ID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, orders, page, total)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, user *model.User) {
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.GetOrder(r.Context(), user.ID, orderID)
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, user *model.User) {
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.CancelOrder(r.Context(), user.ID, orderID)
	})
}

func (h *Handler) requestReturn(w http.ResponseWriter, r *http.Request, user *model.User) {
	var request reasonRequest
	if err := decodeOptionalJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.RequestReturn(r.Context(), user.ID, orderID, request.Reason)
	})
}

func (h *Handler) requestExchange(w http.ResponseWriter, r *http.Request, user *model.User) {
	var request reasonRequest
	if err := decodeOptionalJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.RequestExchange(r.Context(), user.ID, orderID, request.Reason)
	})
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request, user *model.User) {
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	invoice, err := h.Orders.Invoice(r.Context(), user.ID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%s.pdf"`, orderID))
	w.Header().Set("Content-Length", strconv.Itoa(len(invoice.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(invoice.Content); err != nil {
		log.WithError(err).WithField("orderID", orderID).Error("write invoice")
	}
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var filter model.OrderFilter
	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status, err := model.ParseOrderStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Status = &status
	}
	if raw := query.Get("userId"); raw != "" {
		userID, err := parseID(raw, "userId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.UserID = &userID
	}
	page := pageFromQuery(r)
	orders, total, err := h.Orders.ListAllOrders(r.Context(), filter, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, orders, page, total)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request statusRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.UpdateStatus(r.Context(), orderID, model.OrderStatus(request.Status))
	})
}

func (h *Handler) resolveReturn(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request statusRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.ResolveReturn(r.Context(), orderID, model.RequestStatus(request.Status))
	})
}

func (h *Handler) resolveExchange(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request statusRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.ResolveExchange(r.Context(), orderID, model.RequestStatus(request.Status))
	})
}

// adminCancelOrder backs DELETE /admin/orders/{id}; orders are never removed.
func (h *Handler) adminCancelOrder(w http.ResponseWriter, r *http.Request, _ *model.User) {
	withOrderID(w, r, func(orderID uuid.UUID) (*model.Order, error) {
		return h.Orders.UpdateStatus(r.Context(), orderID, model.Cancelled)
	})
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request, user *model.User) {
	var request paymentIntentRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	orderID, err := parseID(request.OrderID, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	intent, err := h.Payments.CreateIntent(r.Context(), user.ID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, intent)
}

func withOrderID(w http.ResponseWriter, r *http.Request, fn func(orderID uuid.UUID) (*model.Order, error)) {
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := fn(orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}
