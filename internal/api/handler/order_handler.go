package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hango1705/bongland-backend/internal/api/dto"
	"github.com/hango1705/bongland-backend/internal/api/response"
	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/service"
	"github.com/hango1705/bongland-backend/internal/util"
)

type OrderHandler struct {
	orderService service.IOrderService
	queryService service.IOrderQueryService
}

func NewOrderHandler(orderService service.IOrderService, queryService service.IOrderQueryService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	if queryService == nil {
		panic("queryService cannot be nil")
	}
	return &OrderHandler{
		orderService: orderService,
		queryService: queryService,
	}
}

// CreateOrder POST /api/order/create
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.OrderItems) == 0 {
		response.ErrorJSON(w, http.StatusBadRequest, "Order must contain at least one item")
		return
	}
	if req.PaymentMethod == "" || req.ShippingAddress == nil {
		response.ErrorJSON(w, http.StatusBadRequest, "Payment method and shipping address are required")
		return
	}
	addr := req.ShippingAddress
	if addr.FullName == "" || addr.Address == "" || addr.City == "" || addr.Phone == "" {
		response.ErrorJSON(w, http.StatusBadRequest, "Missing required shipping information")
		return
	}
	if req.ItemsPrice == nil || req.ShippingPrice == nil || req.TotalPrice == nil {
		response.ErrorJSON(w, http.StatusBadRequest, "Invalid price values")
		return
	}

	claims := util.GetTokenPayloadFromContext(r.Context())
	if claims == nil {
		response.ErrorJSON(w, http.StatusUnauthorized, "Authentication token is required")
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), toCreateOrderParams(&req, claims.ID, r.Header.Get(constants.IdempotencyKeyHeader)))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponse(order), "SUCCESS")
}

// GetAllOrderDetails GET /api/order/get-all-order/{id}，id 為 user id
func (h *OrderHandler) GetAllOrderDetails(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryService.GetAllOrderDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponses(orders), "SUCCESS")
}

func (h *OrderHandler) GetDetailsOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.queryService.GetDetailsOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponse(order), "SUCCESS")
}

func (h *OrderHandler) CancelOrderDetails(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.CancelOrderDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponse(order), "Order cancelled successfully")
}

func (h *OrderHandler) UpdateOrderShipping(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsShipping == nil {
		response.ErrorJSON(w, http.StatusBadRequest, "The isShipping is required")
		return
	}

	order, err := h.orderService.UpdateOrderShipping(r.Context(), chi.URLParam(r, "id"), *req.IsShipping)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponse(order), "Order shipping status updated successfully")
}

// UpdateOrderPaid body 可省略，有帶時保存金流回傳內容
func (h *OrderHandler) UpdateOrderPaid(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentResultDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.MarkOrderPaid(r.Context(), chi.URLParam(r, "id"), model.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponse(order), "SUCCESS")
}

func (h *OrderHandler) UpdateOrderDelivered(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.MarkOrderDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponse(order), "SUCCESS")
}

func (h *OrderHandler) GetAllOrder(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryService.GetAllOrder(r.Context())
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toOrderResponses(orders), "SUCCESS")
}

func (h *OrderHandler) DeleteManyOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteManyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		response.ErrorJSON(w, http.StatusBadRequest, "The ids is required")
		return
	}

	deleted, err := h.queryService.DeleteManyOrder(r.Context(), req.IDs)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, dto.DeleteManyOrderResponse{DeletedCount: deleted}, "Delete order success")
}

func toCreateOrderParams(req *dto.CreateOrderRequest, userID, idempotencyKey string) service.CreateOrderParams {
	items := make([]service.CreateOrderItem, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		items = append(items, service.CreateOrderItem{
			ProductID: item.Product,
			Name:      item.Name,
			Amount:    item.Amount,
			Image:     item.Image,
			Price:     item.Price,
		})
	}

	addr := req.ShippingAddress
	return service.CreateOrderParams{
		UserID:         userID,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		OrderItems:     items,
		ShippingAddress: model.ShippingAddress{
			FullName:     addr.FullName,
			Address:      addr.Address,
			City:         addr.City,
			Phone:        addr.Phone,
			Ward:         addr.Ward,
			District:     addr.District,
			Province:     addr.Province,
			WardCode:     addr.WardCode,
			DistrictCode: addr.DistrictCode,
			ProvinceCode: addr.ProvinceCode,
		},
		PaymentMethod:       req.PaymentMethod,
		DeliveryMethod:      model.DeliveryMethod(req.DeliveryMethod),
		SpecialInstructions: req.SpecialInstructions,
		Email:               req.Email,
		ItemsPrice:          *req.ItemsPrice,
		ShippingPrice:       *req.ShippingPrice,
		TotalPrice:          *req.TotalPrice,
	}
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	res := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		itemRes := dto.OrderItemResponse{
			Name:    item.Name,
			Amount:  item.Amount,
			Image:   item.Image,
			Price:   item.Price.InexactFloat64(),
			Product: item.ProductID,
		}
		if p := item.Product; p != nil {
			itemRes.ProductInfo = &dto.ProductResponse{
				ID:           p.ProductID,
				Name:         p.Name,
				Image:        p.Image,
				Price:        p.Price.InexactFloat64(),
				CountInStock: p.CountInStock,
				Sold:         p.Sold,
				Description:  p.Description,
			}
		}
		items = append(items, itemRes)
	}

	addr := order.ShippingAddress
	res := dto.OrderResponse{
		ID:         order.OrderID,
		User:       order.UserID,
		OrderItems: items,
		ShippingAddress: dto.ShippingAddressDTO{
			FullName:     addr.FullName,
			Address:      addr.Address,
			City:         addr.City,
			Phone:        addr.Phone,
			Ward:         addr.Ward,
			District:     addr.District,
			Province:     addr.Province,
			WardCode:     addr.WardCode,
			DistrictCode: addr.DistrictCode,
			ProvinceCode: addr.ProvinceCode,
		},
		PaymentMethod:       order.PaymentMethod,
		DeliveryMethod:      string(order.DeliveryMethod),
		SpecialInstructions: order.SpecialInstructions,
		ItemsPrice:          order.ItemsPrice.InexactFloat64(),
		ShippingPrice:       order.ShippingPrice.InexactFloat64(),
		TotalPrice:          order.TotalPrice.InexactFloat64(),
		Status:              order.Status.String(),
		IsPaid:              order.IsPaid(),
		PaidAt:              order.PaidAt,
		IsShipping:          order.IsShipping(),
		IsDelivered:         order.IsDelivered(),
		DeliveredAt:         order.DeliveredAt,
		IsCancelled:         order.IsCancelled(),
		CancelledAt:         order.CancelledAt,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}

	if order.User != nil {
		res.UserInfo = &dto.OrderUserResponse{
			ID:    order.User.UserID,
			Name:  order.User.Name,
			Email: order.User.Email,
			Phone: order.User.Phone,
		}
	}
	if pr := order.PaymentResult; pr != (model.PaymentResult{}) {
		res.PaymentResult = &dto.PaymentResultDTO{
			ID:           pr.ID,
			Status:       pr.Status,
			UpdateTime:   pr.UpdateTime,
			EmailAddress: pr.EmailAddress,
		}
	}
	return res
}
