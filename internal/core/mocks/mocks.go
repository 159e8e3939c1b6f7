package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListPaginated(ctx context.Context, params ports.ListTicketsRepoParams) ([]*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListResolvedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Ticket, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

// MockResolverRepository is a mock implementation of ports.ResolverRepository
type MockResolverRepository struct {
	mock.Mock
}

func NewMockResolverRepository() *MockResolverRepository {
	return &MockResolverRepository{}
}

func (m *MockResolverRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.ResolverAssignment, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ResolverAssignment), args.Error(1)
}

func (m *MockResolverRepository) Get(ctx context.Context, ticketID, userID int64) (*domain.ResolverAssignment, error) {
	args := m.Called(ctx, ticketID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolverAssignment), args.Error(1)
}

func (m *MockResolverRepository) SwapPrimary(ctx context.Context, ticketID, oldUserID, newUserID int64, makePrimary bool) error {
	args := m.Called(ctx, ticketID, oldUserID, newUserID, makePrimary)
	return args.Error(0)
}

func (m *MockResolverRepository) Upsert(ctx context.Context, assignment *domain.ResolverAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockResolverRepository) ClearPrimary(ctx context.Context, ticketID, userID int64) error {
	args := m.Called(ctx, ticketID, userID)
	return args.Error(0)
}

func (m *MockResolverRepository) AddTime(ctx context.Context, ticketID, userID int64, minutes int, description string) error {
	args := m.Called(ctx, ticketID, userID, minutes, description)
	return args.Error(0)
}

// MockChatRepository is a mock implementation of ports.ChatRepository
type MockChatRepository struct {
	mock.Mock
}

func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{}
}

func (m *MockChatRepository) Create(ctx context.Context, message *domain.ChatMessage) (*domain.ChatMessage, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *MockChatRepository) ListByTicket(ctx context.Context, ticketID int64, includePrivate bool) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, ticketID, includePrivate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailsByIDs(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]string), args.Error(1)
}

// MockGroupRepository is a mock implementation of ports.GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{}
}

func (m *MockGroupRepository) GetByID(ctx context.Context, groupID int64) (*domain.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

// MockContractRepository is a mock implementation of ports.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func NewMockContractRepository() *MockContractRepository {
	return &MockContractRepository{}
}

func (m *MockContractRepository) ActiveForCompany(ctx context.Context, companyID int64, now time.Time) (*domain.Contract, error) {
	args := m.Called(ctx, companyID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

func (m *MockContractRepository) RefreshStates(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockMaintenanceRepository is a mock implementation of ports.MaintenanceRepository
type MockMaintenanceRepository struct {
	mock.Mock
}

func NewMockMaintenanceRepository() *MockMaintenanceRepository {
	return &MockMaintenanceRepository{}
}

func (m *MockMaintenanceRepository) Insert(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceWindow), args.Error(1)
}

func (m *MockMaintenanceRepository) Update(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceWindow), args.Error(1)
}

func (m *MockMaintenanceRepository) ListUpcoming(ctx context.Context, now time.Time) ([]*domain.MaintenanceWindow, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MaintenanceWindow), args.Error(1)
}

// MockTicketService is a mock implementation of ports.TicketService
type MockTicketService struct {
	mock.Mock
}

func NewMockTicketService() *MockTicketService {
	return &MockTicketService{}
}

func (m *MockTicketService) Create(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) Get(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) List(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) Transition(ctx context.Context, params ports.TransitionParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) RecordSLAReason(ctx context.Context, params ports.SLAReasonParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) AutoCloseStale(ctx context.Context, maxAge time.Duration) (int, error) {
	args := m.Called(ctx, maxAge)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketService) Shutdown() {
	m.Called()
}

// MockChatService is a mock implementation of ports.ChatService
type MockChatService struct {
	mock.Mock
}

func NewMockChatService() *MockChatService {
	return &MockChatService{}
}

func (m *MockChatService) Append(ctx context.Context, params ports.AppendMessageParams) (*domain.ChatMessage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, ticketID int64, includePrivate bool) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, ticketID, includePrivate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

// MockDispatcher is a mock implementation of ports.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Dispatch(ctx context.Context, event domain.TicketEvent) {
	m.Called(ctx, event)
}

// MockMailSender is a mock implementation of ports.MailSender
type MockMailSender struct {
	mock.Mock
}

func NewMockMailSender() *MockMailSender {
	return &MockMailSender{}
}

func (m *MockMailSender) Send(ctx context.Context, email ports.OutboundEmail) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockMailbox is a mock implementation of ports.Mailbox
type MockMailbox struct {
	mock.Mock
}

func NewMockMailbox() *MockMailbox {
	return &MockMailbox{}
}

func (m *MockMailbox) FetchSince(ctx context.Context, floor time.Time) ([]*domain.InboundEmail, error) {
	args := m.Called(ctx, floor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InboundEmail), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedClock is a ports.Clock pinned to one instant for tests.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}
