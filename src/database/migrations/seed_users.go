package migrations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"halalinvest/src/model"
	"halalinvest/src/security"
)

const (
	demoEmail    = "demo@musliminvest.com"
	demoPassword = "password123"
)

var demoBalance = decimal.NewFromInt(2450)

// seedDemoUser creates the demo login together with its funded account.
// An existing user with the demo email is left untouched.
func seedDemoUser(db *gorm.DB) error {
	user, created, err := ensureUser(db, model.User{
		FullName:     "Ahmed Hassan",
		Email:        demoEmail,
		UserName:     "ahmed123",
		Phone:        "+1 (555) 123-4567",
		ReferralCode: "AHMED123",
		IsActive:     true,
	}, demoPassword)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	if !created {
		return nil
	}

	if err := db.Create(&model.Account{ID: user.ID, Balance: demoBalance}).Error; err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"migration": "seed_demo_user",
		"user_id":   user.ID,
	}).Info("Demo user seeded")
	return nil
}

func seedAdminUser(email, password string) func(*gorm.DB) error {
	return func(db *gorm.DB) error {
		user, created, err := ensureUser(db, model.User{
			FullName: "Administrator",
			Email:    email,
			UserName: email,
			IsActive: true,
			IsAdmin:  true,
		}, password)
		if err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		if !created && !user.IsAdmin {
			if err := db.Model(user).Update("is_admin", true).Error; err != nil {
				return fmt.Errorf("promote admin user: %w", err)
			}
		}
		logrus.WithFields(logrus.Fields{
			"migration": "seed_admin_user",
			"user_id":   user.ID,
		}).Info("Admin user ready")
		return nil
	}
}

// ensureUser returns the user with the email of want, creating it with
// password when missing. created reports whether a row was inserted.
func ensureUser(db *gorm.DB, want model.User, password string) (*model.User, bool, error) {
	want.Email = strings.ToLower(strings.TrimSpace(want.Email))

	var existing model.User
	err := db.Where("email = ?", want.Email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	want.Password = hash
	if want.ReferralCode == "" {
		want.ReferralCode = model.NewReferralCode()
	}

	if err := db.Create(&want).Error; err != nil {
		return nil, false, err
	}
	return &want, true, nil
}
