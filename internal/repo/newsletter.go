package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// AddSubscriber reports whether the email was newly subscribed.
func (r *GormRepo) AddSubscriber(ctx context.Context, email string) (bool, error) {
	sub := models.NewsletterSubscriber{Email: email}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&sub)
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) SubscriberEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.DB.WithContext(ctx).Model(&models.NewsletterSubscriber{}).Order("created_at ASC").Pluck("email", &emails).Error
	return emails, err
}
