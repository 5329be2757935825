package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts the booking and its initial timeline, then derives the
// display id from the row id inside the same transaction.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking.DisplayID = "tmp-" + uuid.NewString()
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		booking.DisplayID = models.FormatDisplayID(booking.ID)
		return tx.Model(&models.Booking{}).Where("id = ?", booking.ID).
			Update("display_id", booking.DisplayID).Error
	})
	if err != nil {
		return apperr.Dependency(err, "failed to save booking")
	}
	return nil
}

func (r *BookingRepository) withTimeline(db *gorm.DB) *gorm.DB {
	return db.Preload("Timeline", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC, id ASC")
	})
}

func (r *BookingRepository) Get(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.withTimeline(r.db.WithContext(ctx)).First(&booking, id).Error; err != nil {
		return nil, translate(err, "booking")
	}
	return &booking, nil
}

func (r *BookingRepository) GetByDisplayID(ctx context.Context, displayID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.withTimeline(r.db.WithContext(ctx)).Where("display_id = ?", displayID).First(&booking).Error
	if err != nil {
		return nil, translate(err, "booking")
	}
	return &booking, nil
}

func (r *BookingRepository) filtered(ctx context.Context, f models.BookingFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.AgentID != nil {
		q = q.Where("agent_id = ?", *f.AgentID)
	}
	return q
}

func (r *BookingRepository) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	var (
		bookings []models.Booking
		total    int64
	)
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "booking")
	}
	q := r.withTimeline(r.filtered(ctx, f)).Order("created_at DESC, id DESC")
	err := paginate(q, f.Page).Find(&bookings).Error
	return bookings, total, translate(err, "booking")
}

// Transition applies t as one conditional update plus a timeline insert.
// When the row no longer satisfies the preconditions the call fails with a
// conflict and nothing is written.
func (r *BookingRepository) Transition(ctx context.Context, id uint, t models.BookingTransition) (*models.Booking, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Booking{}).Where("id = ?", id)
		if len(t.From) > 0 {
			q = q.Where("status IN ?", t.From)
		}
		if t.RequireAgentID != nil {
			q = q.Where("agent_id = ?", *t.RequireAgentID)
		}

		values := map[string]interface{}{}
		if t.Status != "" {
			values["status"] = t.Status
		}
		if t.ClearAgent {
			values["agent_id"] = gorm.Expr("NULL")
		} else if t.AgentID != nil {
			values["agent_id"] = *t.AgentID
		}
		if t.PaymentStatus != "" {
			values["payment_status"] = t.PaymentStatus
		}

		res := q.Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Booking{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperr.NotFound("booking not found")
			}
			return apperr.Conflict("booking can no longer be changed this way")
		}

		entry := t.Entry
		entry.BookingID = id
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if t.CreditAgent {
			return creditCompletion(tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "booking")
	}
	return r.Get(ctx, id)
}

// creditCompletion adds a finished job and its amount to the agent's totals.
// A booking is credited at most once, even if it is completed again later.
func creditCompletion(tx *gorm.DB, bookingID uint) error {
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND credited_at IS NULL AND agent_id IS NOT NULL", bookingID).
		Update("credited_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var booking models.Booking
	if err := tx.Select("id", "agent_id", "total_amount").First(&booking, bookingID).Error; err != nil {
		return err
	}
	return tx.Model(&models.Agent{}).Where("id = ?", *booking.AgentID).
		Updates(map[string]interface{}{
			"completed_jobs":   gorm.Expr("completed_jobs + 1"),
			"earnings_total":   gorm.Expr("earnings_total + ?", booking.TotalAmount),
			"earnings_pending": gorm.Expr("earnings_pending + ?", booking.TotalAmount),
		}).Error
}

// AddReview stores the customer's one review on a completed booking, appends
// entry to its timeline and folds the rating into the agent's running mean in
// the same transaction.
func (r *BookingRepository) AddReview(ctx context.Context, id uint, rating int, comment string, entry models.TimelineEntry) (*models.Booking, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.BookingID = id
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND review_rating IS NULL", id, models.BookingStatusCompleted).
			Updates(map[string]interface{}{
				"review_rating":  rating,
				"review_comment": comment,
				"reviewed_at":    entry.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("booking cannot be reviewed: it is not completed or was already reviewed")
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var booking models.Booking
		if err := tx.Select("id", "agent_id").First(&booking, id).Error; err != nil {
			return err
		}
		if booking.AgentID == nil {
			return nil
		}
		return tx.Model(&models.Agent{}).Where("id = ?", *booking.AgentID).
			Updates(map[string]interface{}{
				"rating_average": gorm.Expr("(rating_average * rating_count + ?) / (rating_count + 1)", float64(rating)),
				"rating_count":   gorm.Expr("rating_count + 1"),
			}).Error
	})
	if err != nil {
		return nil, translate(err, "booking")
	}
	return r.Get(ctx, id)
}

func (r *BookingRepository) Count(ctx context.Context, statuses ...models.BookingStatus) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Count(&count).Error
	return count, translate(err, "booking")
}

// PaidRevenue sums the totals of bookings whose payment settled.
func (r *BookingRepository) PaidRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue).Error
	return revenue, translate(err, "booking")
}
