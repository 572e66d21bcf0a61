package application

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/campus-shuttle/service-shuttle/internal/domain/booking"
	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
	userDomain "github.com/campus-shuttle/service-shuttle/internal/domain/user"
	walletDomain "github.com/campus-shuttle/service-shuttle/internal/domain/wallet"
	"github.com/campus-shuttle/service-shuttle/internal/geo"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
	"github.com/campus-shuttle/service-shuttle/internal/platform/kafka"
)

var testLogger = zap.NewNop()

// --- catalog ---

type fakeCatalogRepo struct {
	snap *catalog.Snapshot
}

func (r *fakeCatalogRepo) Snapshot(context.Context) (*catalog.Snapshot, error) { return r.snap, nil }
func (r *fakeCatalogRepo) ListStops(context.Context) ([]catalog.Stop, error) {
	return r.snap.Stops, nil
}
func (r *fakeCatalogRepo) ListRoutes(context.Context) ([]catalog.Route, error) {
	return r.snap.Routes, nil
}
func (r *fakeCatalogRepo) ListTransferPoints(context.Context) ([]catalog.TransferPoint, error) {
	return r.snap.TransferPoints, nil
}

// equatorCatalog has A(0,0), B(0,1), C(0,2): R1=[A,B] 10 min, R2=[B,C] 15 min,
// R3=[A,B,C] 20 min and a registered transfer at B with a 5 minute wait.
type equatorCatalog struct {
	a, b, c    catalog.Stop
	r1, r2, r3 catalog.Route
	tp         catalog.TransferPoint
	repo       *fakeCatalogRepo
}

func newEquatorCatalog() *equatorCatalog {
	mk := func(name string, lon float64) catalog.Stop {
		return catalog.Stop{ID: uuid.New(), Name: name, Location: &geo.Coordinate{Lat: 0, Lon: lon}}
	}
	ec := &equatorCatalog{a: mk("A", 0), b: mk("B", 1), c: mk("C", 2)}
	ec.r1 = catalog.Route{ID: uuid.New(), Name: "R1", Stops: []catalog.Stop{ec.a, ec.b}, EstimatedMinutes: 10}
	ec.r2 = catalog.Route{ID: uuid.New(), Name: "R2", Stops: []catalog.Stop{ec.b, ec.c}, EstimatedMinutes: 15}
	ec.r3 = catalog.Route{ID: uuid.New(), Name: "R3", Stops: []catalog.Stop{ec.a, ec.b, ec.c}, EstimatedMinutes: 20}
	ec.tp = catalog.TransferPoint{ID: uuid.New(), StopID: ec.b.ID, Name: "B Interchange", WaitMinutes: 5}
	ec.repo = &fakeCatalogRepo{snap: &catalog.Snapshot{
		Stops:          []catalog.Stop{ec.a, ec.b, ec.c},
		Routes:         []catalog.Route{ec.r1, ec.r2, ec.r3},
		TransferPoints: []catalog.TransferPoint{ec.tp},
	}}
	return ec
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userDomain.User
}

func newFakeUserRepo(users ...*userDomain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*userDomain.User{}}
	for _, u := range users {
		r.users[u.ID()] = u
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) List(_ context.Context, page, limit int) ([]*userDomain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*userDomain.User
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email() < all[j].Email() })
	return all, int64(len(all)), nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *userDomain.User) error {
	return r.Save(ctx, u)
}

// --- bookings ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	order    []uuid.UUID
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[uuid.UUID]*bookingDomain.Booking{}}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingNumber() == number {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for i := len(r.order) - 1; i >= 0; i-- {
		if bk := r.bookings[r.order[i]]; bk.UserID() == userID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.bookings[r.order[i]])
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	r.order = append(r.order, bk.ID())
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	return nil
}

// --- wallet ---

type fakeTransactionRepo struct {
	mu  sync.Mutex
	txs map[uuid.UUID]*walletDomain.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txs: map[uuid.UUID]*walletDomain.Transaction{}}
}

func (r *fakeTransactionRepo) Save(_ context.Context, t *walletDomain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[t.ID()] = t
	return nil
}

func (r *fakeTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*walletDomain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return nil, domain.NewNotFoundError("Transaction", id.String())
	}
	return t, nil
}

func (r *fakeTransactionRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*walletDomain.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*walletDomain.Transaction
	for _, t := range r.txs {
		if t.UserID() == userID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTransactionRepo) Update(ctx context.Context, t *walletDomain.Transaction) error {
	return r.Save(ctx, t)
}

// --- infrastructure ---

type inlineTransactor struct{ calls int }

func (t *inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
