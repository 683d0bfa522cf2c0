// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyInternalError = "error.internal"
	KeyAccessDenied  = "error.access_denied"
	KeyRateLimited   = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenRevoked       = "auth.token_revoked"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthAdminRequired      = "auth.admin_required"

	// Users
	KeyUserNotFound = "user.not_found"
	KeyUserDeleted  = "user.deleted"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductOrdered    = "product.ordered"
	KeyProductOutOfStock = "product.out_of_stock"

	// Ratings
	KeyRatingSaved    = "rating.saved"
	KeyRatingDeleted  = "rating.deleted"
	KeyRatingNotFound = "rating.not_found"

	// Reference data
	KeyCategoryCreated   = "category.created"
	KeyCategoryUpdated   = "category.updated"
	KeyCategoryDeleted   = "category.deleted"
	KeyCollectionCreated = "collection.created"
	KeyCollectionUpdated = "collection.updated"
	KeyCollectionDeleted = "collection.deleted"
	KeySizeCreated       = "size.created"
	KeySizeUpdated       = "size.updated"
	KeySizeDeleted       = "size.deleted"
	KeyColorCreated      = "color.created"
	KeyColorUpdated      = "color.updated"
	KeyColorDeleted      = "color.deleted"

	// Cart
	KeyCartAdded   = "cart.added"
	KeyCartUpdated = "cart.updated"
	KeyCartRemoved = "cart.removed"

	// Contacts
	KeyContactSaved   = "contact.saved"
	KeyContactRemoved = "contact.removed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationID       = "validation.invalid_id"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
	KeyFileTooMany      = "file.too_many"
)
