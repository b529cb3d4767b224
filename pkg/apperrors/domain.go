package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для общих ошибок бизнес-логики и домена.
*/

// =========================================================================
// Фабричные ФУНКЦИИ (Используются для оборачивания ошибок, напр. из репозитория)
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidStatus - фабрика для невалидных статусов (409)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// ErrExternalService - фабрика для ошибок внешних сервисов (503).
// Классификатор модерации отвечает этим кодом; воркер ретраит такие ошибки
// и никогда не отдает их клиенту.
func ErrExternalService(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusServiceUnavailable)
}

// ErrConfiguration - ошибка конфигурации пайплайна (500).
// Возникает, когда модерация не может быть применена из-за неверной настройки.
func ErrConfiguration(domain, message string) *AppError {
	return New(CodeInternalError, domain, message, http.StatusInternalServerError)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ (Для частых, статичных ошибок)
// =========================================================================

// --- Orders & Reactions ---

// ErrOrderClosed - заказ закрыт (completed/rejected/cancelled), изменения запрещены.
var ErrOrderClosed = New(
	CodeInvalidStatus,
	"order",
	"Order is closed for modifications",
	http.StatusConflict, // 409
)

// ErrInvalidOrderTransition - переход статуса заказа не разрешен из текущего.
var ErrInvalidOrderTransition = New(
	CodeInvalidStatus,
	"order",
	"Operation not allowed for the current order status",
	http.StatusConflict, // 409
)

// ErrReactionAlreadyExists - исполнитель уже откликался на этот заказ.
var ErrReactionAlreadyExists = New(
	CodeAlreadyExists,
	"order",
	"Reaction to this order already exists",
	http.StatusConflict, // 409
)

// ErrReactionMismatch - отклик не принадлежит заказу.
var ErrReactionMismatch = New(
	CodeInvalidOperation,
	"order",
	"Reaction does not belong to this order",
	http.StatusBadRequest, // 400
)

// ErrNotOrderOwner - пользователь не владелец заказа.
var ErrNotOrderOwner = New(
	CodeForbidden,
	"order",
	"Only the order owner can perform this operation",
	http.StatusForbidden, // 403
)

// ErrNegativeFinalPrice - итоговая цена не может быть отрицательной.
var ErrNegativeFinalPrice = New(
	CodeValidationFailed,
	"order",
	"Final price must be non-negative",
	http.StatusBadRequest, // 400
)

// --- Performers & Reviews ---

// ErrPerformerNotApproved - профиль исполнителя не прошел модерацию.
var ErrPerformerNotApproved = New(
	CodeInvalidStatus,
	"performer",
	"Performer profile has not been approved",
	http.StatusConflict, // 409
)

// ErrSelfReview - исполнитель не может оставить отзыв на самого себя.
var ErrSelfReview = New(
	CodeInvalidOperation,
	"review",
	"You cannot review your own profile",
	http.StatusBadRequest, // 400
)

// ErrNotReviewAuthor - редактировать отзыв может только его автор.
var ErrNotReviewAuthor = New(
	CodeForbidden,
	"review",
	"Only the review author can perform this operation",
	http.StatusForbidden, // 403
)

// --- Auth & User Status ---

// ErrInvalidUserRole - используется, когда операция не предусмотрена для роли пользователя.
var ErrInvalidUserRole = New(
	CodeInvalidOperation,
	"business_logic",
	"Invalid user role for this operation",
	http.StatusBadRequest, // 400 - это логическая ошибка, а не ошибка прав
)

// ErrInsufficientPermissions - используется, когда не-админ пытается выполнить админ-действие.
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden, // 403
)

// ErrWeakPassword - пароль слишком слабый.
var ErrWeakPassword = New(
	CodeValidationFailed,
	"validation",
	"Password is too weak. Minimum 6 characters required.",
	http.StatusBadRequest, // 400
)

// ErrEmailAlreadyExists - email уже используется.
var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict, // 409
)

// ErrInvalidCredentials - неверный email или пароль.
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized, // 401
)

// ErrInvalidToken - неверный или просроченный токен (refresh, verify, reset).
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized, // 401
)

// ErrUserSuspended - аккаунт временно заблокирован.
var ErrUserSuspended = New(
	CodeForbidden,
	"auth",
	"Your account has been suspended",
	http.StatusForbidden, // 403
)

// ErrUserBanned - аккаунт забанен.
var ErrUserBanned = New(
	CodeForbidden,
	"auth",
	"Your account has been banned",
	http.StatusForbidden, // 403
)

// --- Chat ---

// ErrDialogAccessDenied - пользователь не является участником диалога.
var ErrDialogAccessDenied = New(
	CodeForbidden,
	"chat",
	"Access to dialog denied",
	http.StatusForbidden, // 403
)
