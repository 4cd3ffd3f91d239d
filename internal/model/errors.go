package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable — хранилище не удалось открыть; фатально для сессии.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorageWrite — запись отклонена хранилищем (квота, сериализация).
	ErrStorageWrite = errors.New("storage write failed")
	// ErrStorageRead — чтение завершилось ошибкой носителя.
	ErrStorageRead = errors.New("storage read failed")
	// ErrInvalidRecord — входные данные не прошли проверку, хранилище не трогали.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrQuotaExceeded — содержимое больше допустимого размера.
	ErrQuotaExceeded = errors.New("payload exceeds size quota")
	// ErrCountsStale — изменение записано, но пересчёт счётчиков категорий не удался.
	ErrCountsStale = errors.New("category counts are stale")
)

// StorageError описывает сбой операции хранилища.
// errors.Is срабатывает и на Kind, и на исходную причину Err.
type StorageError struct {
	Op   string
	ID   string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil && !errors.Is(e.Kind, e.Err) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewStorageError оборачивает err; nil остаётся nil.
func NewStorageError(op, id string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, ID: id, Kind: kind, Err: err}
}

// Invalid формирует ошибку валидации.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}
