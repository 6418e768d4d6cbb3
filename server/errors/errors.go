package errors

import (
	"errors"
	"fmt"
	"net/http"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/importer"
)

// AppError ошибка приложения с HTTP статусом
type AppError struct {
	Code    int    `json:"status_code"` // HTTP статус код
	Message string `json:"message"`     // Сообщение для пользователя
	Err     error  `json:"-"`           // Внутренняя ошибка для логов
	Context string `json:"-"`           // Операция, в которой возникла ошибка
	Details any    `json:"details,omitempty"`
}

// Error реализует интерфейс error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap возвращает вложенную ошибку для errors.Is и errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode возвращает HTTP статус код ошибки
func (e *AppError) StatusCode() int {
	return e.Code
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(context string) *AppError {
	e.Context = context
	return e
}

// WithDetails прикладывает к ответу структурированные подробности
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func newError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewValidationError создает ошибку 400 Bad Request
func NewValidationError(message string, err error) *AppError {
	return newError(http.StatusBadRequest, message, err)
}

// NewNotFoundError создает ошибку 404 Not Found
func NewNotFoundError(message string, err error) *AppError {
	return newError(http.StatusNotFound, message, err)
}

// NewPayloadTooLargeError создает ошибку 413
func NewPayloadTooLargeError(message string, err error) *AppError {
	return newError(http.StatusRequestEntityTooLarge, message, err)
}

// NewUnsupportedMediaError создает ошибку 415
func NewUnsupportedMediaError(message string, err error) *AppError {
	return newError(http.StatusUnsupportedMediaType, message, err)
}

// NewUnprocessableError создает ошибку 422: запрос корректен, но данные не подходят
func NewUnprocessableError(message string, err error) *AppError {
	return newError(http.StatusUnprocessableEntity, message, err)
}

// NewTooManyRequestsError создает ошибку 429
func NewTooManyRequestsError(message string) *AppError {
	return newError(http.StatusTooManyRequests, message, nil)
}

// NewServiceUnavailableError создает ошибку 503
func NewServiceUnavailableError(message string, err error) *AppError {
	return newError(http.StatusServiceUnavailable, message, err)
}

// NewInternalError создает ошибку 500.
// Пользователь получает общее сообщение, детали остаются в логах.
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: "Внутренняя ошибка сервера",
		Err:     errors.Join(errors.New(message), err),
	}
}

// WrapError приводит ошибку доменного слоя к AppError
func WrapError(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var missing *importer.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return NewUnprocessableError("В отчете отсутствуют обязательные колонки", err).
			WithDetails(map[string][]string{"missing_columns": missing.Columns})
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return NewUnsupportedMediaError("Формат файла не поддерживается (ожидается .xlsx или .csv)", err)
	case errors.Is(err, database.ErrRunNotFound):
		return NewNotFoundError("Прогон сверки не найден", err)
	case errors.Is(err, address.ErrNilRegistry), errors.Is(err, address.ErrNilReference):
		return NewServiceUnavailableError("Справочник адресов недоступен", err)
	}

	return NewInternalError(message, err)
}
