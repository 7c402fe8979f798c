// internal/services/wallet_flow_db_test.go
package services

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storelink/storelink-backend/internal/config"
	"github.com/storelink/storelink-backend/internal/database"
	"github.com/storelink/storelink-backend/internal/models"
)

// WalletFlowTestSuite exercises the money paths end to end against a real
// Postgres instance. Set TEST_DATABASE_DSN to run it; it is skipped otherwise.
type WalletFlowTestSuite struct {
	suite.Suite
	db            *gorm.DB
	settings      *SettingsService
	wallet        *WalletService
	audit         *AuditService
	notifications *NotificationService
	orders        *OrderService
	payouts       *PayoutService
	levels        *LevelSyncService
}

func TestWalletFlowSuite(t *testing.T) {
	suite.Run(t, new(WalletFlowTestSuite))
}

func (s *WalletFlowTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		s.T().Skipf("test database unreachable: %v", err)
	}
	s.db = db

	s.Require().NoError(database.RunMigrations(s.db))

	cfg := &config.Config{
		Payment: config.PaymentConfig{MinimumPayout: 10},
	}

	s.settings = settingsWithValues(map[string]string{})
	s.wallet = NewWalletService(s.db)
	s.audit = NewAuditService(s.db)
	s.notifications = NewNotificationService(s.db, cfg)
	s.orders = NewOrderService(s.db, s.settings, s.wallet, s.audit, s.notifications)
	s.payouts = NewPayoutService(s.db, cfg, s.settings, s.wallet, s.audit, s.notifications)
	s.levels = NewLevelSyncService(s.db, s.settings, s.notifications)
}

func (s *WalletFlowTestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec(`TRUNCATE TABLE wallet_transactions, payout_requests,
		notifications, audit_logs, orders, storefront_products, products,
		kyc_submissions, users CASCADE`).Error)

	s.settings.cache = map[string]string{
		SettingCommissionType:       "percentage",
		SettingCommissionRate:       "50",
		SettingAutoCreditOnComplete: "true",
		SettingAutoPayoutEnabled:    "true",
		SettingAutoPayoutThreshold:  "1000",
		SettingSilverThreshold:      "10",
		SettingGoldThreshold:        "50",
	}
}

func (s *WalletFlowTestSuite) createAffiliate(kyc models.KYCStatus) *models.User {
	user := &models.User{
		Name:           "Test Affiliate",
		Email:          fmt.Sprintf("aff-%s@example.com", uuid.NewString()[:8]),
		Role:           models.UserRoleAffiliate,
		Status:         models.UserStatusApproved,
		Level:          models.UserLevelBronze,
		KYCStatus:      kyc,
		StorefrontSlug: "shop-" + uuid.NewString()[:8],
	}
	s.Require().NoError(user.SetPassword("Secur3Pass!"))
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *WalletFlowTestSuite) createListing(user *models.User, basePrice, sellingPrice float64) *models.StorefrontProduct {
	product := &models.Product{
		SKU:       "SKU-" + uuid.NewString()[:8],
		Name:      "Test Product",
		BasePrice: basePrice,
		Stock:     100,
		IsActive:  true,
	}
	s.Require().NoError(s.db.Create(product).Error)

	listing := &models.StorefrontProduct{
		ProductID:    product.ID,
		UserID:       user.ID,
		SellingPrice: sellingPrice,
		IsActive:     true,
	}
	s.Require().NoError(s.db.Create(listing).Error)
	return listing
}

func (s *WalletFlowTestSuite) createOrder(listing *models.StorefrontProduct, quantity int) *models.Order {
	order, err := s.orders.CreateOrder(&CreateOrderRequest{
		StorefrontProductID: listing.ID,
		CustomerName:        "Walk-in Customer",
		Quantity:            quantity,
	})
	s.Require().NoError(err)
	return order
}

func (s *WalletFlowTestSuite) commissionEntries(userID uuid.UUID) []models.WalletTransaction {
	var entries []models.WalletTransaction
	s.Require().NoError(s.db.
		Where("user_id = ? AND type = ?", userID, models.WalletTxTypeCommission).
		Find(&entries).Error)
	return entries
}

func (s *WalletFlowTestSuite) TestOrderCompletionCreditsCommissionOnce() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	listing := s.createListing(affiliate, 30, 50)
	order := s.createOrder(listing, 2)

	_, err := s.orders.Transition(order.ID, models.OrderStatusPaidByUser, affiliate.ID)
	s.Require().NoError(err)
	_, err = s.orders.Transition(order.ID, models.OrderStatusProcessing, affiliate.ID)
	s.Require().NoError(err)
	completed, err := s.orders.Transition(order.ID, models.OrderStatusCompleted, affiliate.ID)
	s.Require().NoError(err)
	s.NotNil(completed.CompletedAt)

	// (50-30) * 2 * 50% = 20
	balance, err := s.wallet.Balance(affiliate.ID)
	s.Require().NoError(err)
	s.InDelta(20.0, balance, 0.001)

	entries := s.commissionEntries(affiliate.ID)
	s.Require().Len(entries, 1)
	s.Require().NotNil(entries[0].OrderID)
	s.Equal(order.ID, *entries[0].OrderID)
	s.InDelta(20.0, entries[0].Amount, 0.001)
	s.InDelta(20.0, entries[0].BalanceAfter, 0.001)

	// Completing twice must fail and must not credit again.
	_, err = s.orders.Transition(order.ID, models.OrderStatusCompleted, affiliate.ID)
	s.Require().ErrorIs(err, ErrInvalidTransition)
	s.Len(s.commissionEntries(affiliate.ID), 1)

	ok, sum, err := s.wallet.VerifyLedger(affiliate.ID)
	s.Require().NoError(err)
	s.True(ok)
	s.InDelta(20.0, sum, 0.001)
}

func (s *WalletFlowTestSuite) TestCommissionOverrideReplacesPlatformRate() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	override := 25.0
	s.Require().NoError(s.db.Model(&models.User{}).
		Where("id = ?", affiliate.ID).
		Update("commission_override", override).Error)

	listing := s.createListing(affiliate, 30, 50)
	order := s.createOrder(listing, 2)

	_, err := s.orders.Transition(order.ID, models.OrderStatusPaidByUser, affiliate.ID)
	s.Require().NoError(err)
	_, err = s.orders.Transition(order.ID, models.OrderStatusProcessing, affiliate.ID)
	s.Require().NoError(err)
	_, err = s.orders.Transition(order.ID, models.OrderStatusCompleted, affiliate.ID)
	s.Require().NoError(err)

	// The override replaces the platform rate of 50: (50-30) * 2 * 25% = 10.
	balance, err := s.wallet.Balance(affiliate.ID)
	s.Require().NoError(err)
	s.InDelta(10.0, balance, 0.001)

	entries := s.commissionEntries(affiliate.ID)
	s.Require().Len(entries, 1)
	s.InDelta(10.0, entries[0].Amount, 0.001)
}

func (s *WalletFlowTestSuite) TestCancelledOrderCreditsNothing() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	listing := s.createListing(affiliate, 30, 50)
	order := s.createOrder(listing, 1)

	cancelled, err := s.orders.Transition(order.ID, models.OrderStatusCancelled, affiliate.ID)
	s.Require().NoError(err)
	s.NotNil(cancelled.CancelledAt)

	balance, err := s.wallet.Balance(affiliate.ID)
	s.Require().NoError(err)
	s.Zero(balance)
	s.Empty(s.commissionEntries(affiliate.ID))

	// Cancelled is terminal.
	_, err = s.orders.Transition(order.ID, models.OrderStatusPaidByUser, affiliate.ID)
	s.Require().ErrorIs(err, ErrInvalidTransition)
}

func (s *WalletFlowTestSuite) TestAutoPayoutCreatesSinglePendingRequest() {
	eligible := s.createAffiliate(models.KYCStatusApproved)
	belowThreshold := s.createAffiliate(models.KYCStatusApproved)
	noKYC := s.createAffiliate(models.KYCStatusNotSubmitted)

	_, err := s.wallet.AdjustAtomic(eligible.ID, 1200, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)
	_, err = s.wallet.AdjustAtomic(belowThreshold.ID, 500, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)
	_, err = s.wallet.AdjustAtomic(noKYC.ID, 2000, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)

	summary, err := s.payouts.RunAutoPayouts(context.Background())
	s.Require().NoError(err)
	s.True(summary.Enabled)
	s.Equal(1, summary.Processed)
	s.Equal(1, summary.Created)
	s.Zero(summary.Skipped)
	s.Zero(summary.Failed)

	var payouts []models.PayoutRequest
	s.Require().NoError(s.db.Where("user_id = ?", eligible.ID).Find(&payouts).Error)
	s.Require().Len(payouts, 1)
	s.Equal(models.PayoutStatusPending, payouts[0].Status)
	s.Equal("auto", payouts[0].PaymentMethod)
	s.InDelta(1200.0, payouts[0].Amount, 0.001)

	// The full balance is held.
	balance, err := s.wallet.Balance(eligible.ID)
	s.Require().NoError(err)
	s.Zero(balance)

	var hold models.WalletTransaction
	s.Require().NoError(s.db.
		Where("user_id = ? AND type = ?", eligible.ID, models.WalletTxTypePayoutPending).
		First(&hold).Error)
	s.InDelta(-1200.0, hold.Amount, 0.001)

	// New commissions arrive while the request is still pending; the next
	// batch must not stack a second request.
	_, err = s.wallet.AdjustAtomic(eligible.ID, 1500, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)

	summary, err = s.payouts.RunAutoPayouts(context.Background())
	s.Require().NoError(err)
	s.Equal(1, summary.Processed)
	s.Zero(summary.Created)
	s.Equal(1, summary.Skipped)

	s.Require().NoError(s.db.Where("user_id = ?", eligible.ID).Find(&payouts).Error)
	s.Len(payouts, 1)

	balance, err = s.wallet.Balance(eligible.ID)
	s.Require().NoError(err)
	s.InDelta(1500.0, balance, 0.001)
}

func (s *WalletFlowTestSuite) TestAutoPayoutDisabled() {
	s.settings.cache[SettingAutoPayoutEnabled] = "false"

	eligible := s.createAffiliate(models.KYCStatusApproved)
	_, err := s.wallet.AdjustAtomic(eligible.ID, 5000, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)

	summary, err := s.payouts.RunAutoPayouts(context.Background())
	s.Require().NoError(err)
	s.False(summary.Enabled)
	s.Zero(summary.Processed)

	var count int64
	s.Require().NoError(s.db.Model(&models.PayoutRequest{}).Count(&count).Error)
	s.Zero(count)
}

func (s *WalletFlowTestSuite) TestRequestPayoutGuards() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	_, err := s.wallet.AdjustAtomic(affiliate.ID, 150, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)

	_, err = s.payouts.RequestPayout(affiliate.ID, &RequestPayoutInput{Amount: 5, PaymentMethod: "bank"})
	s.Require().ErrorIs(err, ErrBelowMinimumPayout)

	_, err = s.payouts.RequestPayout(affiliate.ID, &RequestPayoutInput{Amount: 500, PaymentMethod: "bank"})
	s.Require().ErrorIs(err, ErrInsufficientBalance)

	noKYC := s.createAffiliate(models.KYCStatusSubmitted)
	_, err = s.payouts.RequestPayout(noKYC.ID, &RequestPayoutInput{Amount: 50, PaymentMethod: "bank"})
	s.Require().ErrorIs(err, ErrKYCNotApproved)

	_, err = s.payouts.RequestPayout(affiliate.ID, &RequestPayoutInput{Amount: 100, PaymentMethod: "bank"})
	s.Require().NoError(err)
	_, err = s.payouts.RequestPayout(affiliate.ID, &RequestPayoutInput{Amount: 20, PaymentMethod: "bank"})
	s.Require().ErrorIs(err, ErrPendingPayoutExists)
}

func (s *WalletFlowTestSuite) TestPendingPayoutUniquePerUser() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	_, err := s.wallet.AdjustAtomic(affiliate.ID, 150, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)

	_, err = s.payouts.RequestPayout(affiliate.ID, &RequestPayoutInput{Amount: 100, PaymentMethod: "bank"})
	s.Require().NoError(err)

	// The partial unique index rejects a second pending row even when a
	// writer bypasses the application-level pending check entirely.
	second := &models.PayoutRequest{
		UserID:        affiliate.ID,
		Amount:        20,
		Status:        models.PayoutStatusPending,
		PaymentMethod: "bank",
	}
	err = s.db.Create(second).Error
	s.Require().ErrorIs(err, gorm.ErrDuplicatedKey)

	// Resolved requests do not block a new pending one.
	resolved := &models.PayoutRequest{
		UserID:        affiliate.ID,
		Amount:        30,
		Status:        models.PayoutStatusRejected,
		PaymentMethod: "bank",
	}
	s.Require().NoError(s.db.Create(resolved).Error)

	var pendingCount int64
	s.Require().NoError(s.db.Model(&models.PayoutRequest{}).
		Where("user_id = ? AND status = ?", affiliate.ID, models.PayoutStatusPending).
		Count(&pendingCount).Error)
	s.Equal(int64(1), pendingCount)
}

func (s *WalletFlowTestSuite) TestRejectPayoutReleasesHold() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	admin := &models.User{
		Name:   "Admin",
		Email:  fmt.Sprintf("admin-%s@example.com", uuid.NewString()[:8]),
		Role:   models.UserRoleAdmin,
		Status: models.UserStatusApproved,
	}
	s.Require().NoError(admin.SetPassword("Secur3Pass!"))
	s.Require().NoError(s.db.Create(admin).Error)

	_, err := s.wallet.AdjustAtomic(affiliate.ID, 150, models.WalletTxTypeAdminCredit, "seed", nil)
	s.Require().NoError(err)

	payout, err := s.payouts.RequestPayout(affiliate.ID, &RequestPayoutInput{Amount: 100, PaymentMethod: "bank"})
	s.Require().NoError(err)

	balance, err := s.wallet.Balance(affiliate.ID)
	s.Require().NoError(err)
	s.InDelta(50.0, balance, 0.001)

	rejected, err := s.payouts.RejectPayout(payout.ID, admin.ID, "details incomplete")
	s.Require().NoError(err)
	s.Equal(models.PayoutStatusRejected, rejected.Status)
	s.Equal("details incomplete", rejected.RejectReason)

	balance, err = s.wallet.Balance(affiliate.ID)
	s.Require().NoError(err)
	s.InDelta(150.0, balance, 0.001)

	var refund models.WalletTransaction
	s.Require().NoError(s.db.
		Where("user_id = ? AND type = ?", affiliate.ID, models.WalletTxTypeRefund).
		First(&refund).Error)
	s.InDelta(100.0, refund.Amount, 0.001)

	ok, _, err := s.wallet.VerifyLedger(affiliate.ID)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *WalletFlowTestSuite) TestLevelSyncUpgradesOnce() {
	affiliate := s.createAffiliate(models.KYCStatusApproved)
	listing := s.createListing(affiliate, 30, 50)

	for i := 0; i < 10; i++ {
		order := &models.Order{
			OrderNumber:         fmt.Sprintf("SL-20260830-%06d", i),
			AffiliateUserID:     affiliate.ID,
			StorefrontProductID: listing.ID,
			CustomerName:        "Walk-in Customer",
			Quantity:            1,
			SellingPrice:        50,
			BasePrice:           30,
			Status:              models.OrderStatusCompleted,
		}
		s.Require().NoError(s.db.Create(order).Error)
	}

	summary, err := s.levels.Run(context.Background())
	s.Require().NoError(err)
	s.Equal(1, summary.Scanned)
	s.Equal(1, summary.Upgraded)

	var reloaded models.User
	s.Require().NoError(s.db.First(&reloaded, "id = ?", affiliate.ID).Error)
	s.Equal(models.UserLevelSilver, reloaded.Level)

	var notifCount int64
	s.Require().NoError(s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", affiliate.ID, "level_upgraded").
		Count(&notifCount).Error)
	s.Equal(int64(1), notifCount)

	// A second run sees the stored level already matching and does nothing.
	summary, err = s.levels.Run(context.Background())
	s.Require().NoError(err)
	s.Zero(summary.Upgraded)

	s.Require().NoError(s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", affiliate.ID, "level_upgraded").
		Count(&notifCount).Error)
	s.Equal(int64(1), notifCount)
}
