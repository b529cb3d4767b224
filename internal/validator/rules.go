package validator

import (
	"log"

	"usta_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Если правило не удалось зарегистрировать, приложение
			// не должно запускаться, так как это критическая ошибка.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-user-role': Проверяет, что роль пользователя валидна
	mustRegister("is-user-role", validateUserRole)

	// 'is-order-status': Проверяет, что статус заказа валиден
	mustRegister("is-order-status", validateOrderStatus)

	// 'is-account-type': person или organization
	mustRegister("is-account-type", validateAccountType)

	// 'is-moderation-status': pending/approved/rejected
	mustRegister("is-moderation-status", validateModerationStatus)
}

// --- Функции валидации ---

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' обрабатывает пустые
	}
	switch models.UserRole(value) {
	case models.UserRoleCustomer, models.UserRolePerformer, models.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.OrderStatus(value) {
	case models.OrderStatusSearchPerformer, models.OrderStatusPerformerSelected,
		models.OrderStatusCompleted, models.OrderStatusRejected, models.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func validateAccountType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.AccountType(value) {
	case models.AccountTypePerson, models.AccountTypeOrganization:
		return true
	default:
		return false
	}
}

func validateModerationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ModerationStatus(value) {
	case models.ModerationStatusPending, models.ModerationStatusApproved, models.ModerationStatusRejected:
		return true
	default:
		return false
	}
}
