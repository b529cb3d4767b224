package models

type UserStatus string
type UserRole string
type AccountType string
type ModerationStatus string
type OrderStatus string
type FeatureType string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"

	UserRoleCustomer  UserRole = "customer"
	UserRolePerformer UserRole = "performer"
	UserRoleAdmin     UserRole = "admin"

	AccountTypePerson       AccountType = "person"
	AccountTypeOrganization AccountType = "organization"

	// Статусы модерации: pending -> approved | rejected.
	// Терминальные; обратно в pending возвращает только явное редактирование.
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusApproved ModerationStatus = "approved"
	ModerationStatusRejected ModerationStatus = "rejected"

	OrderStatusSearchPerformer   OrderStatus = "search_performer"
	OrderStatusPerformerSelected OrderStatus = "performer_selected"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusRejected          OrderStatus = "rejected"
	OrderStatusCancelled         OrderStatus = "cancelled"

	FeatureTypeBoolean     FeatureType = "boolean"
	FeatureTypeMultiOption FeatureType = "multi_option"
)

// Коды причин для status_reason_code, не привязанные к категориям классификатора.
const (
	ReasonInappropriateContent = "inappropriate_content"
	ReasonManualReview         = "manual_review"
)
