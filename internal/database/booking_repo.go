package database

import (
	"context"

	"gorm.io/gorm"
)

// 预约状态。
const (
	BookingPending   = "pending"
	BookingContacted = "contacted"
	BookingClosed    = "closed"
)

// BookingRepository 封装 bookings 表。
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, row *Booking) error {
	if row.Status == "" {
		row.Status = BookingPending
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// List 按创建时间倒序列出预约，status 为空时不过滤。
func (r *BookingRepository) List(ctx context.Context, status string) ([]Booking, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []Booking
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus 修改预约的跟进状态。
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
