// Package apperrors описывает таксономию ошибок рекомендательного ядра.
//
// Движки различают отсутствие опорной сущности, нехватку данных,
// сбои хранилища, некорректный ввод и конфликт версий. API и CLI
// сопоставляют вид ошибки с ответом пользователю.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind - вид ошибки
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindInsufficientData Kind = "insufficient_data"
	KindBackingStore     Kind = "backing_store"
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindInternal         Kind = "internal"
)

// Error - структурированная ошибка ядра
type Error struct {
	Kind    Kind
	Op      string // операция, в которой возникла ошибка
	Entity  string // для NotFound/Conflict: тип сущности
	Key     string // для NotFound/Conflict: ключ сущности
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	switch {
	case msg == "" && e.Entity != "":
		msg = fmt.Sprintf("%s %s: %s", e.Entity, kindText(e.Kind), e.Key)
	case msg == "":
		msg = kindText(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap возвращает причину для errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

func kindText(k Kind) string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInsufficientData:
		return "insufficient data"
	case KindBackingStore:
		return "backing store failure"
	case KindValidation:
		return "invalid input"
	case KindConflict:
		return "version conflict"
	default:
		return "internal error"
	}
}

// NotFound - опорная сущность отсутствует
func NotFound(entity, key string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Key: key}
}

// Conflict - запись изменилась между чтением и записью
func Conflict(entity, key string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Key: key}
}

// Validation - некорректные входные данные, отклоняются до любого I/O
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// InsufficientData - мало данных для метрики
func InsufficientData(op, format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientData, Op: op, Message: fmt.Sprintf(format, args...)}
}

// BackingStore оборачивает сбой хранилища. Уже типизированные ошибки пропускаются без изменений.
func BackingStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindBackingStore, Op: op, Err: err}
}

// Internal - ошибка генерации/расчёта с исходной причиной
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf возвращает вид ошибки или KindInternal для посторонних ошибок.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool         { return err != nil && KindOf(err) == KindNotFound }
func IsValidation(err error) bool       { return err != nil && KindOf(err) == KindValidation }
func IsConflict(err error) bool         { return err != nil && KindOf(err) == KindConflict }
func IsInsufficientData(err error) bool { return err != nil && KindOf(err) == KindInsufficientData }
