package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Totarae/golinks/internal/model"
)

// Классы исхода операции хранилища.
const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "not_found"
	OutcomeAlreadyExists = "already_exists"
	OutcomeBackendError  = "backend_error"
)

// Observer получает сведения о каждом вызове хранилища.
type Observer interface {
	ObserveStorage(backend, op, outcome string, duration time.Duration)
}

// Outcome классифицирует результат операции.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return OutcomeAlreadyExists
	default:
		return OutcomeBackendError
	}
}

type instrumented struct {
	next    Storage
	backend string
	obs     Observer
}

// Instrument оборачивает хранилище и сообщает о вызовах наблюдателю.
func Instrument(next Storage, backend string, obs Observer) Storage {
	return &instrumented{next: next, backend: backend, obs: obs}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.obs.ObserveStorage(s.backend, op, Outcome(err), time.Since(start))
}

func (s *instrumented) Create(ctx context.Context, golink model.Golink) error {
	start := time.Now()
	err := s.next.Create(ctx, golink)
	s.observe("create", start, err)
	return err
}

func (s *instrumented) Get(ctx context.Context, shortLink string) (model.Golink, error) {
	start := time.Now()
	golink, err := s.next.Get(ctx, shortLink)
	s.observe("get", start, err)
	return golink, err
}

func (s *instrumented) GetAll(ctx context.Context) ([]model.Golink, error) {
	start := time.Now()
	golinks, err := s.next.GetAll(ctx)
	s.observe("get_all", start, err)
	return golinks, err
}

func (s *instrumented) GetPaginated(ctx context.Context, page, pageSize int) ([]model.Golink, int, error) {
	start := time.Now()
	golinks, total, err := s.next.GetPaginated(ctx, page, pageSize)
	s.observe("get_paginated", start, err)
	return golinks, total, err
}

func (s *instrumented) Update(ctx context.Context, shortLink, url string) (model.Golink, error) {
	start := time.Now()
	golink, err := s.next.Update(ctx, shortLink, url)
	s.observe("update", start, err)
	return golink, err
}

func (s *instrumented) Delete(ctx context.Context, shortLink string) error {
	start := time.Now()
	err := s.next.Delete(ctx, shortLink)
	s.observe("delete", start, err)
	return err
}

func (s *instrumented) Exists(ctx context.Context, shortLink string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, shortLink)
	s.observe("exists", start, err)
	return ok, err
}

func (s *instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
