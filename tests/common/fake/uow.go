//go:build unit

// Package fake provides an in-memory UnitOfWork for command tests. It mirrors
// the storage semantics the commands rely on: availability resolution against
// active bookings, duplicate-key and foreign-key classification, and rollback
// of everything written inside a failed Within call.
package fake

import (
	"context"
	"strings"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	"gearbook/internal/domain/user"
	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type StoredBooking struct {
	Snapshot shared.BookingSnapshot
	Comment  *string
	Warnings booking.Warnings
	ItemIDs  []uuid.UUID
}

type NotificationJob struct {
	Kind    string
	Topic   string
	Payload []byte
	RunAt   time.Time
}

type UoW struct {
	Users        map[uuid.UUID]*shared.UserSnapshot
	Models       map[uuid.UUID]*shared.ModelSnapshot
	Items        map[uuid.UUID]shared.ItemSnapshot
	Bookings     map[uuid.UUID]*StoredBooking
	BookingItems map[uuid.UUID]*shared.BookingItemSnapshot
	Jobs         []NotificationJob

	// FailCreateBooking simulates an exclusion conflict raised by the store on
	// booking insert.
	FailCreateBooking bool
}

func NewUoW() *UoW {
	return &UoW{
		Users:        map[uuid.UUID]*shared.UserSnapshot{},
		Models:       map[uuid.UUID]*shared.ModelSnapshot{},
		Items:        map[uuid.UUID]shared.ItemSnapshot{},
		Bookings:     map[uuid.UUID]*StoredBooking{},
		BookingItems: map[uuid.UUID]*shared.BookingItemSnapshot{},
	}
}

// Seed helpers

func (f *UoW) AddUser(snap *shared.UserSnapshot) *UoW {
	f.Users[snap.ID] = snap
	return f
}

func (f *UoW) AddModel(snap *shared.ModelSnapshot) *UoW {
	f.Models[snap.ID] = snap
	return f
}

func (f *UoW) AddItem(snap shared.ItemSnapshot) *UoW {
	f.Items[snap.ID] = snap
	return f
}

func (f *UoW) AddBooking(sb *StoredBooking) *UoW {
	f.Bookings[sb.Snapshot.ID] = sb
	for _, itemID := range sb.ItemIDs {
		id := uuid.New()
		f.BookingItems[id] = &shared.BookingItemSnapshot{
			ID:              id,
			BookingID:       sb.Snapshot.ID,
			EquipmentItemID: itemID,
		}
	}
	return f
}

// shared.UnitOfWork

func (f *UoW) Within(_ context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	backup := f.clone()
	if err := fn(context.Background(), &fakeTx{f: f}); err != nil {
		f.restore(backup)
		return err
	}
	return nil
}

func (f *UoW) Reads() shared.CommandReads {
	return &fakeReads{f: f}
}

func (f *UoW) clone() *UoW {
	out := NewUoW()
	for k, v := range f.Users {
		u := *v
		out.Users[k] = &u
	}
	for k, v := range f.Models {
		m := *v
		out.Models[k] = &m
	}
	for k, v := range f.Items {
		out.Items[k] = v
	}
	for k, v := range f.Bookings {
		sb := *v
		sb.ItemIDs = append([]uuid.UUID(nil), v.ItemIDs...)
		out.Bookings[k] = &sb
	}
	for k, v := range f.BookingItems {
		bi := *v
		out.BookingItems[k] = &bi
	}
	out.Jobs = append([]NotificationJob(nil), f.Jobs...)
	return out
}

func (f *UoW) restore(backup *UoW) {
	f.Users = backup.Users
	f.Models = backup.Models
	f.Items = backup.Items
	f.Bookings = backup.Bookings
	f.BookingItems = backup.BookingItems
	f.Jobs = backup.Jobs
}

type fakeTx struct {
	f *UoW
}

func (t *fakeTx) Bookings() shared.BookingRepository { return &fakeBookingRepo{f: t.f} }

func (t *fakeTx) Equipment() shared.EquipmentRepository { return &fakeEquipmentRepo{f: t.f} }

func (t *fakeTx) Users() shared.UserRepository { return &fakeUserRepo{f: t.f} }

func (t *fakeTx) Notifications() shared.NotificationRepository { return &fakeNotificationRepo{f: t.f} }

func (t *fakeTx) Reads() shared.CommandReads { return &fakeReads{f: t.f} }

func (t *fakeTx) DB() db.DBTX { return nil }

type fakeReads struct {
	f *UoW
}

func notFound(msg string) error {
	return infra.WrapRepoErr(msg, nil, infra.KindNotFound)
}

func (r *fakeReads) UserByID(_ context.Context, id uuid.UUID) (*shared.UserSnapshot, error) {
	if u, ok := r.f.Users[id]; ok {
		snap := *u
		return &snap, nil
	}
	return nil, notFound("user not found")
}

func (r *fakeReads) UserByLogin(_ context.Context, login string) (*shared.UserSnapshot, error) {
	for _, u := range r.f.Users {
		if strings.EqualFold(u.Login, login) {
			snap := *u
			return &snap, nil
		}
	}
	return nil, notFound("user not found")
}

func (r *fakeReads) ModelByID(_ context.Context, id uuid.UUID) (*shared.ModelSnapshot, error) {
	if m, ok := r.f.Models[id]; ok {
		snap := *m
		return &snap, nil
	}
	return nil, notFound("model not found")
}

func (r *fakeReads) ModelByName(_ context.Context, name string) (*shared.ModelSnapshot, error) {
	for _, m := range r.f.Models {
		if strings.EqualFold(m.Name, name) {
			snap := *m
			return &snap, nil
		}
	}
	return nil, notFound("model not found")
}

func (r *fakeReads) ItemByID(_ context.Context, id uuid.UUID) (*shared.ItemSnapshot, error) {
	if i, ok := r.f.Items[id]; ok {
		snap := i
		return &snap, nil
	}
	return nil, notFound("item not found")
}

func (r *fakeReads) BookingByID(_ context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	if b, ok := r.f.Bookings[id]; ok {
		snap := b.Snapshot
		return &snap, nil
	}
	return nil, notFound("booking not found")
}

func (r *fakeReads) BookingItemByID(_ context.Context, id uuid.UUID) (*shared.BookingItemSnapshot, error) {
	if bi, ok := r.f.BookingItems[id]; ok {
		snap := *bi
		return &snap, nil
	}
	return nil, notFound("booking item not found")
}

type fakeBookingRepo struct {
	f *UoW
}

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) (uuid.UUID, error) {
	if r.f.FailCreateBooking {
		return uuid.Nil, infra.WrapRepoErr("booking conflict", nil, infra.KindConflict)
	}

	itemIDs := make([]uuid.UUID, 0, len(b.Items()))
	for _, item := range b.Items() {
		itemIDs = append(itemIDs, item.EquipmentItemID())
		r.f.BookingItems[item.ID()] = &shared.BookingItemSnapshot{
			ID:              item.ID(),
			BookingID:       b.ID(),
			EquipmentItemID: item.EquipmentItemID(),
			Returned:        item.Returned(),
		}
	}
	r.f.Bookings[b.ID()] = &StoredBooking{
		Snapshot: shared.BookingSnapshot{
			ID:           b.ID(),
			UserID:       b.UserID(),
			Reason:       b.Reason(),
			Status:       b.Status(),
			StartTime:    b.Window().Start(),
			EndTime:      b.Window().End(),
			AdminComment: b.AdminComment(),
			CreatedAt:    b.CreatedAt(),
		},
		Comment:  b.Comment(),
		Warnings: b.Warnings(),
		ItemIDs:  itemIDs,
	}
	return b.ID(), nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, status booking.Status, adminComment *string) error {
	sb, ok := r.f.Bookings[id]
	if !ok || sb.Snapshot.Status != expected {
		return infra.WrapRepoErr("booking missing or no longer in expected status", nil, infra.KindConflict)
	}
	sb.Snapshot.Status = status
	if adminComment != nil {
		sb.Snapshot.AdminComment = adminComment
	}
	return nil
}

func (r *fakeBookingRepo) SetItemReturned(_ context.Context, bookingItemID uuid.UUID, returned bool) error {
	bi, ok := r.f.BookingItems[bookingItemID]
	if !ok {
		return notFound("booking item not found")
	}
	bi.Returned = returned
	return nil
}

type fakeEquipmentRepo struct {
	f *UoW
}

func (r *fakeEquipmentRepo) LockModelsForAllocation(_ context.Context, _ []uuid.UUID) error {
	return nil
}

func (r *fakeEquipmentRepo) FindAvailableItems(_ context.Context, modelID uuid.UUID, window booking.Window, limit int32) ([]shared.ItemSnapshot, error) {
	var out []shared.ItemSnapshot
	for _, item := range r.f.Items {
		if item.ModelID != modelID || !item.Available {
			continue
		}
		if r.claimed(item.ID, window) {
			continue
		}
		out = append(out, item)
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeEquipmentRepo) claimed(equipmentItemID uuid.UUID, window booking.Window) bool {
	for _, bi := range r.f.BookingItems {
		if bi.EquipmentItemID != equipmentItemID {
			continue
		}
		sb, ok := r.f.Bookings[bi.BookingID]
		if !ok || !sb.Snapshot.Status.IsActive() {
			continue
		}
		other, err := booking.NewWindow(sb.Snapshot.StartTime, sb.Snapshot.EndTime)
		if err != nil {
			continue
		}
		if window.Overlaps(other) {
			return true
		}
	}
	return false
}

func (r *fakeEquipmentRepo) CreateModel(_ context.Context, m *equipment.Model) (uuid.UUID, error) {
	for _, existing := range r.f.Models {
		if strings.EqualFold(existing.Name, m.Name()) {
			return uuid.Nil, infra.WrapRepoErr("duplicate model name", nil, infra.KindDuplicateKey)
		}
	}
	r.f.Models[m.ID()] = &shared.ModelSnapshot{
		ID:       m.ID(),
		Code:     int32(len(r.f.Models) + 1),
		Name:     m.Name(),
		Category: m.Category(),
		Access:   m.Access(),
	}
	return m.ID(), nil
}

func (r *fakeEquipmentRepo) UpdateModel(_ context.Context, m *equipment.Model) error {
	snap, ok := r.f.Models[m.ID()]
	if !ok {
		return notFound("model not found")
	}
	snap.Name = m.Name()
	snap.Category = m.Category()
	snap.Access = m.Access()
	return nil
}

func (r *fakeEquipmentRepo) DeleteModel(_ context.Context, id uuid.UUID) error {
	if _, ok := r.f.Models[id]; !ok {
		return notFound("model not found")
	}
	for _, item := range r.f.Items {
		if item.ModelID == id {
			return infra.WrapRepoErr("model has items", nil, infra.KindForeignKeyViolated)
		}
	}
	delete(r.f.Models, id)
	return nil
}

func (r *fakeEquipmentRepo) CreateItem(_ context.Context, item *equipment.Item) (uuid.UUID, error) {
	for _, existing := range r.f.Items {
		if existing.InventoryNumber == item.InventoryNumber() {
			return uuid.Nil, infra.WrapRepoErr("duplicate inventory number", nil, infra.KindDuplicateKey)
		}
	}
	r.f.Items[item.ID()] = shared.ItemSnapshot{
		ID:              item.ID(),
		ModelID:         item.ModelID(),
		InventoryNumber: item.InventoryNumber(),
		Available:       item.Available(),
	}
	return item.ID(), nil
}

func (r *fakeEquipmentRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	if _, ok := r.f.Items[id]; !ok {
		return notFound("item not found")
	}
	delete(r.f.Items, id)
	return nil
}

func (r *fakeEquipmentRepo) SetItemAvailability(_ context.Context, id uuid.UUID, available bool) error {
	item, ok := r.f.Items[id]
	if !ok {
		return notFound("item not found")
	}
	item.Available = available
	r.f.Items[id] = item
	return nil
}

func (r *fakeEquipmentRepo) CountItemsByModel(_ context.Context, modelID uuid.UUID) (int64, error) {
	var count int64
	for _, item := range r.f.Items {
		if item.ModelID == modelID {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	f *UoW
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User, passwordHash string) (uuid.UUID, error) {
	for _, existing := range r.f.Users {
		if strings.EqualFold(existing.Login, u.Login().Value()) {
			return uuid.Nil, infra.WrapRepoErr("duplicate login", nil, infra.KindDuplicateKey)
		}
	}
	r.f.Users[u.ID()] = &shared.UserSnapshot{
		ID:           u.ID(),
		Login:        u.Login().Value(),
		Name:         u.Name(),
		Role:         u.Role(),
		PasswordHash: passwordHash,
	}
	return u.ID(), nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role user.Role) error {
	snap, ok := r.f.Users[id]
	if !ok {
		return notFound("user not found")
	}
	snap.Role = role
	return nil
}

func (r *fakeUserRepo) LinkTelegram(_ context.Context, id uuid.UUID, _ int64, _ string) error {
	if _, ok := r.f.Users[id]; !ok {
		return notFound("user not found")
	}
	return nil
}

func (r *fakeUserRepo) UnlinkTelegram(_ context.Context, id uuid.UUID) error {
	if _, ok := r.f.Users[id]; !ok {
		return notFound("user not found")
	}
	return nil
}

type fakeNotificationRepo struct {
	f *UoW
}

func (r *fakeNotificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	r.f.Jobs = append(r.f.Jobs, NotificationJob{Kind: kind, Topic: topic, Payload: payload, RunAt: runAt})
	return nil
}
