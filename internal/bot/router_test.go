package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naija-utility-bot/internal/model"
	"naija-utility-bot/internal/pkg/lock"
	"naija-utility-bot/internal/repository"
	"naija-utility-bot/internal/service"
	"naija-utility-bot/internal/session"
)

// ============================================================================
// In-memory fakes
// ============================================================================

type fakeUserStore struct {
	balances map[int64]int64
}

func (f *fakeUserStore) GetBalance(_ context.Context, userID int64) (int64, error) {
	balance, ok := f.balances[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return balance, nil
}

func (f *fakeUserStore) AddBalance(_ context.Context, userID int64, delta int64) (int64, error) {
	f.balances[userID] += delta
	return f.balances[userID], nil
}

func (f *fakeUserStore) ListAll(_ context.Context) ([]*model.User, error) {
	return nil, nil
}

type fakeRequestStore struct {
	requests []*model.Request
}

func (f *fakeRequestStore) Create(_ context.Context, userID int64, reqType string, amount int64, details string) (*model.Request, error) {
	req := &model.Request{
		ReqID:   int64(len(f.requests) + 1),
		UserID:  userID,
		Type:    reqType,
		Amount:  amount,
		Details: details,
		Status:  model.StatusPending,
	}
	f.requests = append(f.requests, req)
	return req, nil
}

func (f *fakeRequestStore) GetByID(_ context.Context, reqID int64) (*model.Request, error) {
	for _, req := range f.requests {
		if req.ReqID == reqID {
			return req, nil
		}
	}
	return nil, repository.ErrRequestNotFound
}

func (f *fakeRequestStore) SetStatusIfPending(_ context.Context, reqID int64, status string) (bool, error) {
	for _, req := range f.requests {
		if req.ReqID == reqID && req.Status == model.StatusPending {
			req.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) ListPending(_ context.Context) ([]*model.Request, error) {
	var pending []*model.Request
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Status == model.StatusPending {
			pending = append(pending, f.requests[i])
		}
	}
	return pending, nil
}

// fakeNotifier is safe for concurrent use; AI replies arrive from a
// background goroutine.
type fakeNotifier struct {
	mu           sync.Mutex
	adminNotices []*model.Request
	userNotices  map[int64][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{userNotices: make(map[int64][]string)}
}

func (f *fakeNotifier) NotifyAdmin(req *model.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminNotices = append(f.adminNotices, req)
	return nil
}

func (f *fakeNotifier) NotifyUser(userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userNotices[userID] = append(f.userNotices[userID], text)
	return nil
}

func (f *fakeNotifier) userMessages(userID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.userNotices[userID]...)
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

type routerFixture struct {
	router   *Router
	users    *fakeUserStore
	requests *fakeRequestStore
	notifier *fakeNotifier
	complete *fakeCompleter
}

func newRouterFixture() *routerFixture {
	users := &fakeUserStore{balances: make(map[int64]int64)}
	requests := &fakeRequestStore{}
	notifier := newFakeNotifier()
	complete := &fakeCompleter{}

	ledger := service.NewLedger(users)
	lifecycle := service.NewLifecycle(ledger, requests, lock.NewUserLock())
	lifecycle.SetNotifier(notifier)
	referral := service.NewReferral(ledger, session.NewMemoryClaims(), 100)

	router := NewRouter(session.NewMemoryStore(), ledger, lifecycle, referral, complete, notifier, "naija_utility_bot")

	return &routerFixture{
		router:   router,
		users:    users,
		requests: requests,
		notifier: notifier,
		complete: complete,
	}
}

// ============================================================================
// Router tests
// ============================================================================

func TestRouter_BalanceAnswersImmediately(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	// Never-seen user reads as zero
	assert.Equal(t, "💰 Your balance: ₦0", f.router.Dispatch(ctx, 10, "Balance"))

	f.users.balances[10] = 420
	assert.Equal(t, "💰 Your balance: ₦420", f.router.Dispatch(ctx, 10, "Balance"))
}

func TestRouter_ReferralAnswersWithLink(t *testing.T) {
	f := newRouterFixture()

	reply := f.router.Dispatch(context.Background(), 10, "Referral")
	assert.Contains(t, reply, "₦100")
	assert.Contains(t, reply, "https://t.me/naija_utility_bot?start=10")
}

func TestRouter_AddFundsFlow(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	assert.Equal(t, "Enter amount to ADD:", f.router.Dispatch(ctx, 10, "Add Funds"))
	assert.Equal(t, "💸 Request logged.", f.router.Dispatch(ctx, 10, "250"))

	require.Len(t, f.requests.requests, 1)
	req := f.requests.requests[0]
	assert.Equal(t, model.TypeAddFund, req.Type)
	assert.Equal(t, int64(250), req.Amount)
	assert.Equal(t, model.StatusPending, req.Status)
}

func TestRouter_BuyDataFlow(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	assert.Equal(t, "Enter: <amount> <phone>", f.router.Dispatch(ctx, 10, "Buy Data"))
	assert.Equal(t, "📡 Data request logged.", f.router.Dispatch(ctx, 10, "500 08012345678"))

	require.Len(t, f.requests.requests, 1)
	req := f.requests.requests[0]
	assert.Equal(t, model.TypeData, req.Type)
	assert.Equal(t, int64(500), req.Amount)
	assert.Equal(t, "08012345678", req.Details)

	// Admin got exactly this request
	require.Len(t, f.notifier.adminNotices, 1)
	assert.Equal(t, req.ReqID, f.notifier.adminNotices[0].ReqID)
}

func TestRouter_BuyDataNegativeAmountAccepted(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	// Purchase flows take any integer amount; only the phone token and the
	// integer parse are validated.
	f.router.Dispatch(ctx, 10, "Buy Data")
	assert.Equal(t, "📡 Data request logged.", f.router.Dispatch(ctx, 10, "-5 08012345678"))

	require.Len(t, f.requests.requests, 1)
	req := f.requests.requests[0]
	assert.Equal(t, model.TypeData, req.Type)
	assert.Equal(t, int64(-5), req.Amount)
	assert.Equal(t, model.StatusPending, req.Status)
}

func TestRouter_BuyDataInvalidInput(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	f.router.Dispatch(ctx, 10, "Buy Data")
	assert.Equal(t, "❌ Invalid.", f.router.Dispatch(ctx, 10, "abc 08012345678"))
	assert.Empty(t, f.requests.requests)

	// Session was cleared despite the failure: the next message is not
	// treated as flow input.
	assert.Equal(t, "", f.router.Dispatch(ctx, 10, "500 08012345678"))
	assert.Empty(t, f.requests.requests)
}

func TestRouter_BuyAirtimeFlow(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	f.router.Dispatch(ctx, 10, "Buy Airtime")
	assert.Equal(t, "📞 Airtime request logged.", f.router.Dispatch(ctx, 10, "200 08098765432"))

	require.Len(t, f.requests.requests, 1)
	assert.Equal(t, model.TypeAirtime, f.requests.requests[0].Type)
}

func TestRouter_WithdrawInsufficientBalance(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()
	f.users.balances[10] = 30

	f.router.Dispatch(ctx, 10, "Withdraw")
	assert.Equal(t, "❌ Invalid or insufficient.", f.router.Dispatch(ctx, 10, "50"))
	assert.Empty(t, f.requests.requests)
}

func TestRouter_WithdrawWithinBalance(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()
	f.users.balances[10] = 100

	f.router.Dispatch(ctx, 10, "Withdraw")
	assert.Equal(t, "🚨 Withdraw request logged.", f.router.Dispatch(ctx, 10, "50"))

	require.Len(t, f.requests.requests, 1)
	assert.Equal(t, model.TypeWithdraw, f.requests.requests[0].Type)
	// Submission reserves nothing; the debit happens at approval time
	assert.Equal(t, int64(100), f.users.balances[10])
}

func TestRouter_CommandsNeverTreatedAsFlowInput(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()

	f.router.Dispatch(ctx, 10, "Add Funds")
	assert.Equal(t, "", f.router.Dispatch(ctx, 10, "/start"))

	// The session survived the command: the next plain message completes
	// the flow.
	assert.Equal(t, "💸 Request logged.", f.router.Dispatch(ctx, 10, "250"))
}

func TestRouter_UnknownTextIgnoredWhenIdle(t *testing.T) {
	f := newRouterFixture()

	assert.Equal(t, "", f.router.Dispatch(context.Background(), 10, "hello bot"))
	assert.Empty(t, f.requests.requests)
}

func TestRouter_AIFlowRepliesAsynchronously(t *testing.T) {
	f := newRouterFixture()
	ctx := context.Background()
	f.complete.reply = "42"

	assert.Equal(t, "Send your question:", f.router.Dispatch(ctx, 10, "Chat with AI"))
	assert.Equal(t, "🤖 Thinking…", f.router.Dispatch(ctx, 10, "meaning of life?"))

	assert.Eventually(t, func() bool {
		msgs := f.notifier.userMessages(10)
		return len(msgs) == 1 && msgs[0] == "42"
	}, time.Second, 10*time.Millisecond)
}

func TestRouter_AIFlowEmptyReply(t *testing.T) {
	f := newRouterFixture()
	f.complete.reply = ""

	f.router.Dispatch(context.Background(), 10, "Chat with AI")
	f.router.Dispatch(context.Background(), 10, "anyone there?")

	assert.Eventually(t, func() bool {
		msgs := f.notifier.userMessages(10)
		return len(msgs) == 1 && msgs[0] == "❌ No reply"
	}, time.Second, 10*time.Millisecond)
}

func TestRouter_AIFlowFailure(t *testing.T) {
	f := newRouterFixture()
	f.complete.err = errors.New("connection refused")

	f.router.Dispatch(context.Background(), 10, "Chat with AI")
	f.router.Dispatch(context.Background(), 10, "hello?")

	assert.Eventually(t, func() bool {
		msgs := f.notifier.userMessages(10)
		return len(msgs) == 1 && msgs[0] == "❌ AI Error"
	}, time.Second, 10*time.Millisecond)
}
