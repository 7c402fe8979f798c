// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthAccountPending     = "auth.account_pending"
	KeyAuthAccountDisabled    = "auth.account_disabled"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserApproved       = "user.approved"
	KeyUserDisabled       = "user.disabled"

	// Products and storefronts
	KeyProductNotFound    = "product.not_found"
	KeyProductCreated     = "product.created"
	KeyProductUpdated     = "product.updated"
	KeyProductDeleted     = "product.deleted"
	KeyStorefrontNotFound = "storefront.not_found"
	KeyListingExists      = "storefront.listing_exists"
	KeyListingCreated     = "storefront.listing_created"
	KeyListingUpdated     = "storefront.listing_updated"

	// Orders
	KeyOrderNotFound          = "order.not_found"
	KeyOrderCreated           = "order.created"
	KeyOrderStatusUpdated     = "order.status_updated"
	KeyOrderInvalidTransition = "order.invalid_transition"
	KeyOrdersDisabled         = "order.public_disabled"
	KeyOrderRegionRestricted  = "order.region_restricted"
	KeyOrderVPNDetected       = "order.vpn_detected"

	// Wallet and payouts
	KeyWalletInsufficient  = "wallet.insufficient_balance"
	KeyPayoutNotFound      = "payout.not_found"
	KeyPayoutCreated       = "payout.created"
	KeyPayoutPendingExists = "payout.pending_exists"
	KeyPayoutBelowMinimum  = "payout.below_minimum"
	KeyPayoutKYCRequired   = "payout.kyc_required"

	// KYC
	KeyKYCNotFound  = "kyc.not_found"
	KeyKYCSubmitted = "kyc.submitted"
	KeyKYCApproved  = "kyc.approved"
	KeyKYCRejected  = "kyc.rejected"

	// Admin
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminActionSuccess = "admin.action_success"
	KeySettingUpdated     = "admin.setting_updated"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"
)
