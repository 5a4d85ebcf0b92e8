package service

import "errors"

var (
	// ErrConflict ссылка с таким short_link уже существует.
	ErrConflict = errors.New("golink already exists")
	// ErrNotFound ссылка не найдена.
	ErrNotFound = errors.New("golink not found")
	// ErrBackendFailure сбой хранилища. Подробности остаются в цепочке ошибок и в логе.
	ErrBackendFailure = errors.New("internal storage error")
)

// ValidationError входные данные отклонены до обращения к хранилищу.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
