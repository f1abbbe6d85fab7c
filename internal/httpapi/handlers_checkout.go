package httpapi

import (
	"encoding/json"
	"net/http"
)

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req saveOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	order, fieldErrs := req.validate(s.maxQty)
	if fieldErrs != nil {
		writeValidationErrors(w, fieldErrs)
		return
	}
	placed, err := s.checkout.PlaceOrder(r.Context(), order)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(placed))
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := s.checkout.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(order))
}
