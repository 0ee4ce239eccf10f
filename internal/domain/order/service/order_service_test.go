package service

import (
	"testing"
	"time"

	negotiationModel "secondhand_market/internal/domain/negotiation/model"
	negotiationRepo "secondhand_market/internal/domain/negotiation/repository"
	"secondhand_market/internal/domain/order/model"
	"secondhand_market/internal/domain/order/repository"
	productModel "secondhand_market/internal/domain/product/model"
	"secondhand_market/internal/pkg/notify"
	"secondhand_market/pkg/apperr"
	baseModel "secondhand_market/pkg/model"
	"secondhand_market/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockOrderRepository is a mock of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(order *model.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByBuyer(buyerID string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(buyerID, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListBySeller(sellerID string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(sellerID, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(orderID, expected, to, note string, markPaid bool) error {
	args := m.Called(orderID, expected, to, note, markPaid)
	return args.Error(0)
}

func (m *MockOrderRepository) Cancel(order *model.Order, expected, reason string) error {
	args := m.Called(order, expected, reason)
	return args.Error(0)
}

func (m *MockOrderRepository) ListLogs(orderID string) ([]model.OrderStatusLog, error) {
	args := m.Called(orderID)
	return args.Get(0).([]model.OrderStatusLog), args.Error(1)
}

// MockProductRepository is a mock of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(product *productModel.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(id string) (*productModel.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productModel.Product), args.Error(1)
}

func (m *MockProductRepository) GetList(filter productModel.Filter, offset, limit int) ([]productModel.Product, int64, error) {
	args := m.Called(filter, offset, limit)
	return args.Get(0).([]productModel.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Update(product *productModel.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) SetStatus(id, from, to string) (bool, error) {
	args := m.Called(id, from, to)
	return args.Bool(0), args.Error(1)
}

// MockNegotiationRepository is a mock of NegotiationRepository
type MockNegotiationRepository struct {
	mock.Mock
}

func (m *MockNegotiationRepository) Create(n *negotiationModel.Negotiation) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockNegotiationRepository) GetByID(id string) (*negotiationModel.Negotiation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*negotiationModel.Negotiation), args.Error(1)
}

func (m *MockNegotiationRepository) FindActive(productID, buyerID string) (*negotiationModel.Negotiation, error) {
	args := m.Called(productID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*negotiationModel.Negotiation), args.Error(1)
}

func (m *MockNegotiationRepository) ListByBuyer(buyerID string, offset, limit int) ([]negotiationModel.Negotiation, int64, error) {
	args := m.Called(buyerID, offset, limit)
	return args.Get(0).([]negotiationModel.Negotiation), args.Get(1).(int64), args.Error(2)
}

func (m *MockNegotiationRepository) ListByStatus(status string, offset, limit int) ([]negotiationModel.Negotiation, int64, error) {
	args := m.Called(status, offset, limit)
	return args.Get(0).([]negotiationModel.Negotiation), args.Get(1).(int64), args.Error(2)
}

func (m *MockNegotiationRepository) Approve(id string, finalPrice int64, adminNote string) (bool, error) {
	args := m.Called(id, finalPrice, adminNote)
	return args.Bool(0), args.Error(1)
}

func (m *MockNegotiationRepository) Reject(id string, reason string) (bool, error) {
	args := m.Called(id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockNegotiationRepository) ExpireBefore(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNegotiationRepository) Consume(tx *gorm.DB, id string) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func testProduct(id, sellerID string) *productModel.Product {
	return &productModel.Product{
		BaseModel:    baseModel.BaseModel{ID: id},
		SellerID:     sellerID,
		Title:        "MacBook Air M2",
		SellingPrice: 2000000,
		Negotiable:   true,
		Status:       productModel.StatusAvailable,
	}
}

func approvedNegotiation(id, productID, buyerID string, finalPrice int64) *negotiationModel.Negotiation {
	return &negotiationModel.Negotiation{
		BaseModel:  baseModel.BaseModel{ID: id},
		ProductID:  productID,
		BuyerID:    buyerID,
		OfferPrice: finalPrice,
		FinalPrice: int64Ptr(finalPrice),
		Status:     negotiationModel.StatusApproved,
	}
}

func newTestService() (*MockOrderRepository, *MockProductRepository, *MockNegotiationRepository, OrderService) {
	mockRepo := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockNegotiations := new(MockNegotiationRepository)
	svc := NewOrderService(mockRepo, mockProducts, mockNegotiations, notify.NewDispatcher(0, 16))
	return mockRepo, mockProducts, mockNegotiations, svc
}

func TestCreateOrder(t *testing.T) {
	t.Run("Negotiated price is carried into the order", func(t *testing.T) {
		mockRepo, mockProducts, mockNegotiations, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockNegotiations.On("GetByID", "n1").Return(approvedNegotiation("n1", "p1", "buyer-1", 1500000), nil)
		mockRepo.On("CreateOrder", mock.AnythingOfType("*model.Order")).Return(nil)

		order, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			NegotiationID: strPtr("n1"),
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(1500000), order.FinalPrice)
		assert.Equal(t, model.StatusCreated, order.Status)
		assert.Equal(t, model.PaymentStatusUnpaid, order.PaymentStatus)
		assert.NotEmpty(t, order.OrderNo)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Without negotiation the selling price applies", func(t *testing.T) {
		mockRepo, mockProducts, _, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockRepo.On("CreateOrder", mock.AnythingOfType("*model.Order")).Return(nil)

		order, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			PaymentMethod: model.PaymentMethodTransfer,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(2000000), order.FinalPrice)
	})

	t.Run("Delivery defaults follow payment method", func(t *testing.T) {
		mockRepo, mockProducts, _, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockRepo.On("CreateOrder", mock.AnythingOfType("*model.Order")).Return(nil)

		order, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.DeliveryMeetup, order.DeliveryType)

		order, err = svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			PaymentMethod: model.PaymentMethodTransfer,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.DeliveryShipping, order.DeliveryType)
	})

	t.Run("Negotiation for another product is rejected", func(t *testing.T) {
		_, mockProducts, mockNegotiations, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockNegotiations.On("GetByID", "n1").Return(approvedNegotiation("n1", "p2", "buyer-1", 1500000), nil)

		_, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			NegotiationID: strPtr("n1"),
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrNegotiationMismatch, e.Code)
	})

	t.Run("Pending negotiation cannot be used", func(t *testing.T) {
		_, mockProducts, mockNegotiations, svc := newTestService()

		n := approvedNegotiation("n1", "p1", "buyer-1", 1500000)
		n.Status = negotiationModel.StatusPending
		n.FinalPrice = nil

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockNegotiations.On("GetByID", "n1").Return(n, nil)

		_, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			NegotiationID: strPtr("n1"),
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindState))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrNegotiationNotApproved, e.Code)
	})

	t.Run("Used negotiation is a conflict", func(t *testing.T) {
		_, mockProducts, mockNegotiations, svc := newTestService()

		n := approvedNegotiation("n1", "p1", "buyer-1", 1500000)
		n.Status = negotiationModel.StatusUsed
		n.Used = true

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockNegotiations.On("GetByID", "n1").Return(n, nil)

		_, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			NegotiationID: strPtr("n1"),
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrNegotiationUsed, e.Code)
	})

	t.Run("Another buyers negotiation cannot be used", func(t *testing.T) {
		_, mockProducts, mockNegotiations, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockNegotiations.On("GetByID", "n1").Return(approvedNegotiation("n1", "p1", "buyer-2", 1500000), nil)

		_, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			NegotiationID: strPtr("n1"),
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	})

	t.Run("Losing the consume race returns conflict", func(t *testing.T) {
		mockRepo, mockProducts, mockNegotiations, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockNegotiations.On("GetByID", "n1").Return(approvedNegotiation("n1", "p1", "buyer-1", 1500000), nil)
		mockRepo.On("CreateOrder", mock.AnythingOfType("*model.Order")).Return(negotiationRepo.ErrAlreadyConsumed)

		_, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			NegotiationID: strPtr("n1"),
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrNegotiationUsed, e.Code)
	})

	t.Run("Product grabbed by another order returns conflict", func(t *testing.T) {
		mockRepo, mockProducts, _, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)
		mockRepo.On("CreateOrder", mock.AnythingOfType("*model.Order")).Return(repository.ErrProductNotSellable)

		_, err := svc.Create("buyer-1", CreateInput{
			ProductID:     "p1",
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrProductUnavailable, e.Code)
	})

	t.Run("Buyer cannot order own product", func(t *testing.T) {
		_, mockProducts, _, svc := newTestService()

		mockProducts.On("GetByID", "p1").Return(testProduct("p1", "seller-1"), nil)

		_, err := svc.Create("seller-1", CreateInput{
			ProductID:     "p1",
			PaymentMethod: model.PaymentMethodCOD,
		})

		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func testOrder(id, buyerID, sellerID, status string) *model.Order {
	return &model.Order{
		BaseModel:     baseModel.BaseModel{ID: id},
		OrderNo:       "20260831120000abcd1234",
		ProductID:     "p1",
		BuyerID:       buyerID,
		SellerID:      sellerID,
		FinalPrice:    1500000,
		PaymentMethod: model.PaymentMethodCOD,
		DeliveryType:  model.DeliveryMeetup,
		Status:        status,
		PaymentStatus: model.PaymentStatusUnpaid,
	}
}

func TestTransitionOrder(t *testing.T) {
	t.Run("Forward transition by seller", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusCreated)
		updated := testOrder("o1", "buyer-1", "seller-1", model.StatusConfirmed)

		mockRepo.On("GetByID", "o1").Return(order, nil).Once()
		mockRepo.On("UpdateStatus", "o1", model.StatusCreated, model.StatusConfirmed, "", false).Return(nil)
		mockRepo.On("GetByID", "o1").Return(updated, nil).Once()

		result, err := svc.Transition("seller-1", false, "o1", model.StatusConfirmed, "")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, result.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Reaching paid marks the payment", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusMeetingDone)
		updated := testOrder("o1", "buyer-1", "seller-1", model.StatusPaid)
		updated.PaymentStatus = model.PaymentStatusPaid

		mockRepo.On("GetByID", "o1").Return(order, nil).Once()
		mockRepo.On("UpdateStatus", "o1", model.StatusMeetingDone, model.StatusPaid, "", true).Return(nil)
		mockRepo.On("GetByID", "o1").Return(updated, nil).Once()

		result, err := svc.Transition("seller-1", false, "o1", model.StatusPaid, "")

		assert.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPaid, result.PaymentStatus)
	})

	t.Run("Backward transition is rejected", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusPaid)
		mockRepo.On("GetByID", "o1").Return(order, nil)

		_, err := svc.Transition("seller-1", false, "o1", model.StatusConfirmed, "")

		assert.True(t, apperr.IsKind(err, apperr.KindState))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrInvalidTransition, e.Code)
	})

	t.Run("Cancelled is not reachable via transition", func(t *testing.T) {
		_, _, _, svc := newTestService()

		_, err := svc.Transition("seller-1", false, "o1", model.StatusCancelled, "")

		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("Outsider cannot touch the order", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusCreated)
		mockRepo.On("GetByID", "o1").Return(order, nil)

		_, err := svc.Transition("someone-else", false, "o1", model.StatusConfirmed, "")

		assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	})

	t.Run("Concurrent modification surfaces as state error", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusCreated)
		mockRepo.On("GetByID", "o1").Return(order, nil)
		mockRepo.On("UpdateStatus", "o1", model.StatusCreated, model.StatusConfirmed, "", false).
			Return(repository.ErrStatusChanged)

		_, err := svc.Transition("seller-1", false, "o1", model.StatusConfirmed, "")

		assert.True(t, apperr.IsKind(err, apperr.KindState))
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("Buyer cancels within the window", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusConfirmed)
		mockRepo.On("GetByID", "o1").Return(order, nil)
		mockRepo.On("Cancel", order, model.StatusConfirmed, "不想要了").Return(nil)

		err := svc.Cancel("o1", "buyer-1", "不想要了")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Cancel after the window is rejected", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusPaid)
		mockRepo.On("GetByID", "o1").Return(order, nil)

		err := svc.Cancel("o1", "buyer-1", "不想要了")

		assert.True(t, apperr.IsKind(err, apperr.KindState))
		e, _ := apperr.From(err)
		assert.Equal(t, response.ErrOrderNotCancellable, e.Code)
	})

	t.Run("Seller cannot cancel", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusCreated)
		mockRepo.On("GetByID", "o1").Return(order, nil)

		err := svc.Cancel("o1", "seller-1", "不卖了")

		assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("Participants and admin can view", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		order := testOrder("o1", "buyer-1", "seller-1", model.StatusCreated)
		mockRepo.On("GetByID", "o1").Return(order, nil)

		_, err := svc.GetByID("buyer-1", false, "o1")
		assert.NoError(t, err)

		_, err = svc.GetByID("seller-1", false, "o1")
		assert.NoError(t, err)

		_, err = svc.GetByID("admin-1", true, "o1")
		assert.NoError(t, err)

		_, err = svc.GetByID("someone-else", false, "o1")
		assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	})

	t.Run("Missing order is not found", func(t *testing.T) {
		mockRepo, _, _, svc := newTestService()

		mockRepo.On("GetByID", "missing").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetByID("buyer-1", false, "missing")

		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}
