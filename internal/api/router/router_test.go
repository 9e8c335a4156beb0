package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hango1705/bongland-backend/internal/api"
	"github.com/hango1705/bongland-backend/internal/api/handler"
	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/infra/address"
	"github.com/hango1705/bongland-backend/internal/infra/auth/token"
	"github.com/hango1705/bongland-backend/internal/infra/ratelimit"
	"github.com/hango1705/bongland-backend/internal/service"
	"github.com/stretchr/testify/suite"
)

type stubOrderService struct{}

func (stubOrderService) CreateOrder(ctx context.Context, params service.CreateOrderParams) (*model.Order, error) {
	return &model.Order{OrderID: "order-new", UserID: params.UserID}, nil
}

func (stubOrderService) CancelOrderDetails(ctx context.Context, orderID string) (*model.Order, error) {
	return &model.Order{OrderID: orderID, Status: model.OrderStatusCancelled}, nil
}

func (stubOrderService) UpdateOrderShipping(ctx context.Context, orderID string, shipping bool) (*model.Order, error) {
	return &model.Order{OrderID: orderID, Status: model.OrderStatusShipping}, nil
}

func (stubOrderService) MarkOrderPaid(ctx context.Context, orderID string, result model.PaymentResult) (*model.Order, error) {
	return &model.Order{OrderID: orderID, Status: model.OrderStatusPaid}, nil
}

func (stubOrderService) MarkOrderDelivered(ctx context.Context, orderID string) (*model.Order, error) {
	return &model.Order{OrderID: orderID, Status: model.OrderStatusDelivered}, nil
}

// stubQueryService order-1 屬於 u-1，其餘訂單不存在
type stubQueryService struct{}

func (stubQueryService) GetAllOrderDetails(ctx context.Context, userID string) ([]model.Order, error) {
	return []model.Order{}, nil
}

func (stubQueryService) GetDetailsOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return &model.Order{OrderID: orderID, UserID: "u-1"}, nil
}

func (stubQueryService) GetAllOrder(ctx context.Context) ([]model.Order, error) {
	return []model.Order{}, nil
}

func (stubQueryService) DeleteManyOrder(ctx context.Context, ids []string) (int64, error) {
	return int64(len(ids)), nil
}

func (stubQueryService) GetOrderOwner(ctx context.Context, orderID string) (string, error) {
	if orderID == "order-1" {
		return "u-1", nil
	}
	return "", service.ErrOrderNotExist
}

type stubAddressService struct{}

func (stubAddressService) GetProvinces(ctx context.Context) ([]address.Division, error) {
	return []address.Division{{Name: "Tỉnh Hà Giang", Code: 2}}, nil
}

func (stubAddressService) GetDistricts(ctx context.Context, provinceCode string) ([]address.Division, error) {
	return []address.Division{}, nil
}

func (stubAddressService) GetWards(ctx context.Context, districtCode string) ([]address.Division, error) {
	return []address.Division{}, nil
}

func (stubAddressService) GetFullAddress(ctx context.Context, codes service.AddressCodes) (*service.FullAddress, error) {
	return &service.FullAddress{}, nil
}

const createBody = `{"orderItems":[{"product":"p-1","amount":1,"price":10,"name":"x"}],"paymentMethod":"COD",
"shippingAddress":{"fullName":"A","address":"B","city":"C","phone":"1"},"itemsPrice":10,"shippingPrice":0,"totalPrice":10}`

type RouterTestSuite struct {
	suite.Suite
	maker   *token.JWTMaker
	handler http.Handler
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	maker, err := token.NewJWTMaker("router-test-secret")
	s.Require().NoError(err)
	s.maker = maker

	server := api.NewServer(
		handler.NewOrderHandler(stubOrderService{}, stubQueryService{}),
		handler.NewAddressHandler(stubAddressService{}),
		handler.NewHealthHandler(nil),
	)
	s.handler = SetupRouter(server, Config{
		TokenMaker:     maker,
		Limiter:        ratelimit.NewTokenBucket(&ratelimit.LimiterConfig{Capacity: 2, RatePS: 0.001}),
		OwnerLookup:    stubQueryService{},
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func (s *RouterTestSuite) bearer(userID string, isAdmin bool) string {
	tkn, err := s.maker.CreateToken(userID, isAdmin, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + tkn
}

func (s *RouterTestSuite) call(method, target, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if auth != "" {
		req.Header.Set(constants.TokenHeader, auth)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) TestHealthIsPublic() {
	rec := s.call(http.MethodGet, "/api/health", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(constants.RequestIDHeader))
}

func (s *RouterTestSuite) TestOrderRoutesRequireToken() {
	rec := s.call(http.MethodGet, "/api/order/get-all-order/u-1", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestOrderRouteAuthorization() {
	user := s.bearer("u-1", false)
	other := s.bearer("u-2", false)
	admin := s.bearer("admin", true)

	testCases := []struct {
		name   string
		method string
		target string
		auth   string
		body   string
		want   int
	}{
		{"own orders", http.MethodGet, "/api/order/get-all-order/u-1", user, "", http.StatusOK},
		{"other user's orders", http.MethodGet, "/api/order/get-all-order/u-1", other, "", http.StatusForbidden},
		{"admin lists user orders", http.MethodGet, "/api/order/get-all-order/u-1", admin, "", http.StatusOK},
		{"owner reads order", http.MethodGet, "/api/order/get-details-order/order-1", user, "", http.StatusOK},
		{"non owner reads order", http.MethodGet, "/api/order/get-details-order/order-1", other, "", http.StatusForbidden},
		{"unknown order", http.MethodGet, "/api/order/get-details-order/order-x", user, "", http.StatusNotFound},
		{"owner cancels", http.MethodDelete, "/api/order/cancel-order/order-1", user, "", http.StatusOK},
		{"non owner cancels", http.MethodDelete, "/api/order/cancel-order/order-1", other, "", http.StatusForbidden},
		{"user updates shipping", http.MethodPut, "/api/order/update-shipping/order-1", user, `{"isShipping":true}`, http.StatusForbidden},
		{"admin updates shipping", http.MethodPut, "/api/order/update-shipping/order-1", admin, `{"isShipping":true}`, http.StatusOK},
		{"admin marks paid", http.MethodPut, "/api/order/update-paid/order-1", admin, "", http.StatusOK},
		{"admin marks delivered", http.MethodPut, "/api/order/update-delivered/order-1", admin, "", http.StatusOK},
		{"user lists all", http.MethodGet, "/api/order/get-all-order", user, "", http.StatusForbidden},
		{"admin lists all", http.MethodGet, "/api/order/get-all-order", admin, "", http.StatusOK},
		{"admin deletes many", http.MethodPost, "/api/order/delete-many-order", admin, `{"ids":["order-1"]}`, http.StatusOK},
		{"user deletes many", http.MethodPost, "/api/order/delete-many-order", user, `{"ids":["order-1"]}`, http.StatusForbidden},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec := s.call(tc.method, tc.target, tc.auth, tc.body)
			s.Equal(tc.want, rec.Code, rec.Body.String())
		})
	}
}

func (s *RouterTestSuite) TestCreateOrderRateLimited() {
	user := s.bearer("u-1", false)

	s.Equal(http.StatusOK, s.call(http.MethodPost, "/api/order/create", user, createBody).Code)
	s.Equal(http.StatusOK, s.call(http.MethodPost, "/api/order/create", user, createBody).Code)
	s.Equal(http.StatusTooManyRequests, s.call(http.MethodPost, "/api/order/create", user, createBody).Code)

	// 其他使用者不受影響
	s.Equal(http.StatusOK, s.call(http.MethodPost, "/api/order/create", s.bearer("u-2", false), createBody).Code)
}

func (s *RouterTestSuite) TestAddressRoutesArePublic() {
	rec := s.call(http.MethodGet, "/api/address/provinces", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Tỉnh Hà Giang")
}

func (s *RouterTestSuite) TestCorsPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/order/create", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "token, Idempotency-Key")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	s.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
