package capitalflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quantcap/fundledger-backend/internal/domain"
	"github.com/quantcap/fundledger-backend/internal/usecase/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCapitalFlowRepository is a mock implementation of CapitalFlowRepository for testing
type MockCapitalFlowRepository struct {
	mock.Mock
}

func (m *MockCapitalFlowRepository) Create(ctx context.Context, flow *domain.CapitalFlow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

func (m *MockCapitalFlowRepository) GetByExternalRef(ctx context.Context, fundID, clientID uuid.UUID, externalRef string) (*domain.CapitalFlow, error) {
	args := m.Called(ctx, fundID, clientID, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapitalFlow), args.Error(1)
}

func (m *MockCapitalFlowRepository) ListByPosition(ctx context.Context, clientID, fundID uuid.UUID) ([]*domain.CapitalFlow, error) {
	args := m.Called(ctx, clientID, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CapitalFlow), args.Error(1)
}

// MockPositionRepository is a mock implementation of PositionRepository for testing
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) GetOrCreateForUpdate(ctx context.Context, clientID, fundID uuid.UUID) (*domain.ClientCapitalAccount, error) {
	args := m.Called(ctx, clientID, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientCapitalAccount), args.Error(1)
}

func (m *MockPositionRepository) Update(ctx context.Context, position *domain.ClientCapitalAccount) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) SumUnitsByFund(ctx context.Context, fundID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, fundID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockNAVSnapshotRepository is a mock implementation of NAVSnapshotRepository for testing
type MockNAVSnapshotRepository struct {
	mock.Mock
}

func (m *MockNAVSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.NAVSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockNAVSnapshotRepository) GetByDate(ctx context.Context, fundID uuid.UUID, date time.Time) (*domain.NAVSnapshot, error) {
	args := m.Called(ctx, fundID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NAVSnapshot), args.Error(1)
}

func (m *MockNAVSnapshotRepository) GetLatestOnOrBefore(ctx context.Context, fundID uuid.UUID, date time.Time) (*domain.NAVSnapshot, error) {
	args := m.Called(ctx, fundID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NAVSnapshot), args.Error(1)
}

func (m *MockNAVSnapshotRepository) ListRange(ctx context.Context, fundID uuid.UUID, start, end time.Time) ([]*domain.NAVSnapshot, error) {
	args := m.Called(ctx, fundID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NAVSnapshot), args.Error(1)
}

// fakeUnitOfWork runs the callback directly, without a database transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(flowRepo *MockCapitalFlowRepository, positionRepo *MockPositionRepository, navRepo *MockNAVSnapshotRepository) *Service {
	return NewService(flowRepo, positionRepo, pricing.NewResolver(navRepo), fakeUnitOfWork{})
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	assert.NoError(t, err)
	return d
}

func TestApply_SubscriptionCreatesFlowAndUpdatesPosition(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	clientID := uuid.New()
	fundID := uuid.New()
	flowDate := date(2024, 1, 1)

	flowRepo.On("GetByExternalRef", mock.Anything, fundID, clientID, "R1").
		Return(nil, domain.ErrRecordNotFound)
	navRepo.On("GetLatestOnOrBefore", mock.Anything, fundID, flowDate).
		Return(&domain.NAVSnapshot{
			FundID:     fundID,
			Date:       flowDate,
			NAVPerUnit: mustDecimal(t, "1.00000000"),
		}, nil)
	positionRepo.On("GetOrCreateForUpdate", mock.Anything, clientID, fundID).
		Return(&domain.ClientCapitalAccount{
			ID:       uuid.New(),
			ClientID: clientID,
			FundID:   fundID,
			Units:    decimal.Zero,
		}, nil)
	flowRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.CapitalFlow")).Return(nil)
	positionRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ClientCapitalAccount")).Return(nil)

	flow, err := service.Apply(ctx, ApplyInput{
		ClientID:    clientID,
		FundID:      fundID,
		FlowType:    domain.FlowTypeSubscription,
		FlowDate:    flowDate,
		Amount:      mustDecimal(t, "1000.00"),
		ExternalRef: "R1",
	})

	assert.NoError(t, err)
	assert.True(t, flow.UnitsDelta.Equal(mustDecimal(t, "1000.00000000")), "units_delta = %s", flow.UnitsDelta)
	assert.True(t, flow.NAVAtFlow.Equal(mustDecimal(t, "1.00000000")))
	assert.Equal(t, "R1", flow.ExternalRef)

	updated := positionRepo.Calls[len(positionRepo.Calls)-1].Arguments.Get(1).(*domain.ClientCapitalAccount)
	assert.True(t, updated.Units.Equal(mustDecimal(t, "1000.00000000")), "position units = %s", updated.Units)
	assert.Equal(t, flowDate, updated.LastValuationDate)

	flowRepo.AssertExpectations(t)
	positionRepo.AssertExpectations(t)
}

func TestApply_ReplayWithSameRefIsNoOp(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	clientID := uuid.New()
	fundID := uuid.New()
	existing := &domain.CapitalFlow{
		ID:          uuid.New(),
		ClientID:    clientID,
		FundID:      fundID,
		FlowType:    domain.FlowTypeSubscription,
		Amount:      mustDecimal(t, "1000.00"),
		UnitsDelta:  mustDecimal(t, "1000.00000000"),
		ExternalRef: "R1",
	}
	flowRepo.On("GetByExternalRef", mock.Anything, fundID, clientID, "R1").Return(existing, nil)

	flow, err := service.Apply(ctx, ApplyInput{
		ClientID:    clientID,
		FundID:      fundID,
		FlowType:    domain.FlowTypeSubscription,
		FlowDate:    date(2024, 1, 1),
		Amount:      mustDecimal(t, "1000.00"),
		ExternalRef: "R1",
	})

	assert.NoError(t, err)
	assert.Equal(t, existing, flow)
	flowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	positionRepo.AssertNotCalled(t, "GetOrCreateForUpdate", mock.Anything, mock.Anything, mock.Anything)
	positionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApply_RedemptionGuard(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	clientID := uuid.New()
	fundID := uuid.New()
	flowDate := date(2024, 2, 1)

	flowRepo.On("GetByExternalRef", mock.Anything, fundID, clientID, "R2").
		Return(nil, domain.ErrRecordNotFound)
	navRepo.On("GetLatestOnOrBefore", mock.Anything, fundID, flowDate).
		Return(&domain.NAVSnapshot{FundID: fundID, Date: flowDate, NAVPerUnit: mustDecimal(t, "1.00000000")}, nil)
	positionRepo.On("GetOrCreateForUpdate", mock.Anything, clientID, fundID).
		Return(&domain.ClientCapitalAccount{ClientID: clientID, FundID: fundID, Units: mustDecimal(t, "100.00000000")}, nil)

	_, err := service.Apply(ctx, ApplyInput{
		ClientID:    clientID,
		FundID:      fundID,
		FlowType:    domain.FlowTypeRedemption,
		FlowDate:    flowDate,
		Amount:      mustDecimal(t, "500.00"),
		ExternalRef: "R2",
	})

	var ierr *domain.InsufficientUnitsError
	assert.ErrorAs(t, err, &ierr)
	assert.True(t, ierr.CurrentUnits.Equal(mustDecimal(t, "100.00000000")))
	flowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	positionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApply_OverRedeemAllowedGoesNegative(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	clientID := uuid.New()
	fundID := uuid.New()
	flowDate := date(2024, 2, 1)

	flowRepo.On("GetByExternalRef", mock.Anything, fundID, clientID, "R3").
		Return(nil, domain.ErrRecordNotFound)
	navRepo.On("GetLatestOnOrBefore", mock.Anything, fundID, flowDate).
		Return(&domain.NAVSnapshot{FundID: fundID, Date: flowDate, NAVPerUnit: mustDecimal(t, "1.00000000")}, nil)
	positionRepo.On("GetOrCreateForUpdate", mock.Anything, clientID, fundID).
		Return(&domain.ClientCapitalAccount{ClientID: clientID, FundID: fundID, Units: mustDecimal(t, "100.00000000")}, nil)
	flowRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.CapitalFlow")).Return(nil)
	positionRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ClientCapitalAccount")).Return(nil)

	flow, err := service.Apply(ctx, ApplyInput{
		ClientID:        clientID,
		FundID:          fundID,
		FlowType:        domain.FlowTypeRedemption,
		FlowDate:        flowDate,
		Amount:          mustDecimal(t, "500.00"),
		ExternalRef:     "R3",
		AllowOverRedeem: true,
	})

	assert.NoError(t, err)
	assert.True(t, flow.UnitsDelta.Equal(mustDecimal(t, "-500.00000000")))

	updated := positionRepo.Calls[len(positionRepo.Calls)-1].Arguments.Get(1).(*domain.ClientCapitalAccount)
	assert.True(t, updated.Units.Equal(mustDecimal(t, "-400.00000000")), "position units = %s", updated.Units)
}

func TestApply_ValidationFailsBeforeAnyIO(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	var verr *domain.ValidationError

	_, err := service.Apply(ctx, ApplyInput{
		ClientID:    uuid.New(),
		FundID:      uuid.New(),
		FlowType:    domain.FlowTypeSubscription,
		FlowDate:    date(2024, 1, 1),
		Amount:      mustDecimal(t, "1000.00"),
		ExternalRef: "",
	})
	assert.ErrorAs(t, err, &verr)

	_, err = service.Apply(ctx, ApplyInput{
		ClientID:    uuid.New(),
		FundID:      uuid.New(),
		FlowType:    domain.FlowTypeSubscription,
		FlowDate:    date(2024, 1, 1),
		Amount:      mustDecimal(t, "-10.00"),
		ExternalRef: "R4",
	})
	assert.ErrorAs(t, err, &verr)

	_, err = service.Apply(ctx, ApplyInput{
		ClientID:    uuid.New(),
		FundID:      uuid.New(),
		FlowType:    domain.FlowType("TRANSFER"),
		FlowDate:    date(2024, 1, 1),
		Amount:      mustDecimal(t, "10.00"),
		ExternalRef: "R5",
	})
	assert.ErrorAs(t, err, &verr)

	flowRepo.AssertNotCalled(t, "GetByExternalRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApply_PricingErrorWhenNoSnapshot(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	clientID := uuid.New()
	fundID := uuid.New()
	flowDate := date(2024, 1, 1)

	flowRepo.On("GetByExternalRef", mock.Anything, fundID, clientID, "R6").
		Return(nil, domain.ErrRecordNotFound)
	navRepo.On("GetLatestOnOrBefore", mock.Anything, fundID, flowDate).
		Return(nil, domain.ErrRecordNotFound)

	_, err := service.Apply(ctx, ApplyInput{
		ClientID:    clientID,
		FundID:      fundID,
		FlowType:    domain.FlowTypeSubscription,
		FlowDate:    flowDate,
		Amount:      mustDecimal(t, "1000.00"),
		ExternalRef: "R6",
	})

	var perr *domain.PricingError
	assert.ErrorAs(t, err, &perr)
	flowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApply_RoundingIsDeterministicHalfUp(t *testing.T) {
	ctx := context.Background()

	run := func(ref string) decimal.Decimal {
		flowRepo := new(MockCapitalFlowRepository)
		positionRepo := new(MockPositionRepository)
		navRepo := new(MockNAVSnapshotRepository)
		service := newService(flowRepo, positionRepo, navRepo)

		clientID := uuid.New()
		fundID := uuid.New()
		flowDate := date(2024, 1, 1)

		flowRepo.On("GetByExternalRef", mock.Anything, fundID, clientID, ref).
			Return(nil, domain.ErrRecordNotFound)
		navRepo.On("GetLatestOnOrBefore", mock.Anything, fundID, flowDate).
			Return(&domain.NAVSnapshot{FundID: fundID, Date: flowDate, NAVPerUnit: mustDecimal(t, "33.33333333")}, nil)
		positionRepo.On("GetOrCreateForUpdate", mock.Anything, clientID, fundID).
			Return(&domain.ClientCapitalAccount{ClientID: clientID, FundID: fundID, Units: decimal.Zero}, nil)
		flowRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.CapitalFlow")).Return(nil)
		positionRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ClientCapitalAccount")).Return(nil)

		flow, err := service.Apply(ctx, ApplyInput{
			ClientID:    clientID,
			FundID:      fundID,
			FlowType:    domain.FlowTypeSubscription,
			FlowDate:    flowDate,
			Amount:      mustDecimal(t, "100.00"),
			ExternalRef: ref,
		})
		assert.NoError(t, err)
		return flow.UnitsDelta
	}

	first := run("R7")
	second := run("R7")

	// 100.00 / 33.33333333 = 3.0000000003... -> 3.00000000 at 8dp half-up
	assert.True(t, first.Equal(mustDecimal(t, "3.00000000")), "units = %s", first)
	assert.True(t, first.Equal(second))
}

func TestRebuildPosition_ReplaysLedger(t *testing.T) {
	ctx := context.Background()
	flowRepo := new(MockCapitalFlowRepository)
	positionRepo := new(MockPositionRepository)
	navRepo := new(MockNAVSnapshotRepository)
	service := newService(flowRepo, positionRepo, navRepo)

	clientID := uuid.New()
	fundID := uuid.New()

	positionRepo.On("GetOrCreateForUpdate", mock.Anything, clientID, fundID).
		Return(&domain.ClientCapitalAccount{ClientID: clientID, FundID: fundID, Units: mustDecimal(t, "999.00000000")}, nil)
	flowRepo.On("ListByPosition", mock.Anything, clientID, fundID).Return([]*domain.CapitalFlow{
		{UnitsDelta: mustDecimal(t, "1000.00000000"), NAVAtFlow: mustDecimal(t, "1.00000000"), FlowDate: date(2024, 1, 1)},
		{UnitsDelta: mustDecimal(t, "-250.00000000"), NAVAtFlow: mustDecimal(t, "1.05000000"), FlowDate: date(2024, 2, 1)},
	}, nil)
	positionRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ClientCapitalAccount")).Return(nil)

	position, err := service.RebuildPosition(ctx, clientID, fundID)

	assert.NoError(t, err)
	assert.True(t, position.Units.Equal(mustDecimal(t, "750.00000000")), "units = %s", position.Units)
	assert.True(t, position.NAVPerUnit.Equal(mustDecimal(t, "1.05000000")))
	assert.Equal(t, date(2024, 2, 1), position.LastValuationDate)
}

func TestManualRef_IsDeterministic(t *testing.T) {
	clientID := uuid.MustParse("5a3240ac-1a6e-4065-9b67-4c9c3f81a6f0")

	ref := ManualRef(clientID, "ETF_MOM_V1", date(2024, 3, 15))
	assert.Equal(t, "MANUAL-5a3240ac-1a6e-4065-9b67-4c9c3f81a6f0-ETF_MOM_V1-20240315", ref)
	assert.Equal(t, ref, ManualRef(clientID, "ETF_MOM_V1", date(2024, 3, 15)))
}
