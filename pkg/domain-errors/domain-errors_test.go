package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeUnauthorized, Message: "Invalid challenge"}
		s.Equal("Invalid challenge", err.Error())
	})

	s.Run("code is used when message is empty", func() {
		err := &Error{Code: CodeInvariantViolation}
		s.Equal("invariant_violation", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	s.True(errors.Is(New(CodeValidation, "Invalid recipient"), &Error{Code: CodeValidation}))
	s.False(errors.Is(New(CodeValidation, "Invalid recipient"), &Error{Code: CodeUnauthorized}))
	s.False((&Error{Code: CodeNotFound}).Is(errors.New("not_found")))

	inner := New(CodeInvariantViolation, "missing credential for level 2, contract 0xabc")
	outer := &Error{Code: CodeBadRequest, Message: "badge request", Err: inner}
	s.True(errors.Is(outer, &Error{Code: CodeInvariantViolation}))
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the inner domain code", func() {
		wrapped := Wrap(New(CodeUnauthorized, "Invalid issuer"), CodeInternal, "resolve address")
		s.True(HasCode(wrapped, CodeUnauthorized))
		s.Equal("resolve address", wrapped.Error())
	})

	s.Run("uses the given code for plain errors", func() {
		root := errors.New("dial tcp: refused")
		wrapped := Wrap(root, CodeTimeout, "rpc unavailable")
		s.True(HasCode(wrapped, CodeTimeout))
		s.ErrorIs(wrapped, root)
	})
}

func (s *DomainErrorsSuite) TestExternal() {
	s.Run("assigns an incident id to plain errors", func() {
		root := errors.New("scorer returned 502")
		err := External(root, "Unable to fetch score")

		s.True(HasCode(err, CodeExternalService))
		s.NotEmpty(IncidentID(err))
		s.ErrorIs(err, root)
	})

	s.Run("each call mints a new incident", func() {
		root := errors.New("boom")
		s.NotEqual(IncidentID(External(root, "a")), IncidentID(External(root, "b")))
	})

	s.Run("keeps an existing incident id", func() {
		first := External(errors.New("boom"), "first")
		second := External(first, "second")
		s.Equal(IncidentID(first), IncidentID(second))
	})

	s.Run("client errors pass through untouched", func() {
		validation := New(CodeValidation, "Invalid recipient")
		s.Same(validation, External(validation, "ignored"))
		s.Empty(IncidentID(validation))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.False(HasCode(nil, CodeNotFound))
	s.False(HasCode(errors.New("plain"), CodeNotFound))
	s.True(HasCode(Wrap(New(CodeNotFound, "x"), CodeInternal, "y"), CodeNotFound))
}
