package transport

import (
	"net/http"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func decodeCartItem(w http.ResponseWriter, r *http.Request) (service.CartItemInput, error) {
	var request cartItemRequest
	if err := decodeJSON(w, r, &request); err != nil {
		return service.CartItemInput{}, err
	}
	productID, err := parseID(request.ProductID, "productId")
	if err != nil {
		return service.CartItemInput{}, err
	}
	return service.CartItemInput{
		ProductID: productID,
		Quantity:  request.Quantity,
		Size:      request.Size,
		Color:     request.Color,
	}, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request, user *model.User) {
	cart, err := h.Carts.GetCart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request, user *model.User) {
	input, err := decodeCartItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := h.Carts.AddItem(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request, user *model.User) {
	input, err := decodeCartItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := h.Carts.UpdateItem(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request, user *model.User) {
	input, err := decodeCartItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := h.Carts.RemoveItem(r.Context(), user.ID, input.ProductID, input.Size, input.Color)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request, user *model.User) {
	if err := h.Carts.ClearCart(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "cart cleared")
}
